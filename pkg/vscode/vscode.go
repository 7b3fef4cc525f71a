package vscode

import (
	"os"
	"os/exec"
	"runtime"
)

// GetCodePath returns the path to the VS Code executable
func GetCodePath() string {
	// Common VS Code paths for different systems
	var codePaths []string

	switch runtime.GOOS {
	case "linux":
		codePaths = []string{
			"/usr/bin/code",
			"/usr/local/bin/code",
			"/usr/share/code/bin/code",
			"/snap/bin/code",
			"/usr/bin/codium",
			"/usr/bin/code-insiders",
		}
	case "darwin":
		codePaths = []string{
			"/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code",
			"/Applications/VSCodium.app/Contents/Resources/app/bin/codium",
		}
	case "windows":
		codePaths = []string{
			"C:\\Program Files\\Microsoft VS Code\\bin\\code.cmd",
			"C:\\Program Files (x86)\\Microsoft VS Code\\bin\\code.cmd",
			"C:\\Users\\%USERNAME%\\AppData\\Local\\Programs\\Microsoft VS Code\\bin\\code.cmd",
		}
	}

	// Check each path
	for _, path := range codePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	// Try to find in PATH
	if path, err := exec.LookPath("code"); err == nil {
		return path
	}
	if path, err := exec.LookPath("codium"); err == nil {
		return path
	}
	if path, err := exec.LookPath("code-insiders"); err == nil {
		return path
	}

	return "" // Not found
}
