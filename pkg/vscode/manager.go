package vscode

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	portRangeStart = 9222
	portRangeEnd   = 9322
)

// Manager owns the VS Code instances started for automation runs. One
// instance per run; instances never outlive their run.
type Manager struct {
	mutex       sync.Mutex
	processes   map[string]*Process
	dataDirRoot string
	binaryPath  string
}

type Process struct {
	Command *exec.Cmd
	Port    int
	PID     int
	DataDir string
}

var GlobalManager = &Manager{
	processes:   make(map[string]*Process),
	dataDirRoot: os.TempDir(),
}

// SetDataDirRoot overrides where per-run user data directories are created.
func (m *Manager) SetDataDirRoot(root string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.dataDirRoot = root
}

// SetBinaryPath pins the VS Code executable instead of auto-detecting it.
func (m *Manager) SetBinaryPath(path string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.binaryPath = path
}

// codePath resolves the executable: the configured override wins, otherwise
// the discovery ladder runs.
func (m *Manager) codePath() string {
	if m.binaryPath != "" {
		return m.binaryPath
	}
	return GetCodePath()
}

// StartVSCode launches a VS Code instance with a remote debugging port for
// the given run and returns the allocated port. workspacePath may be empty
// to open an empty window.
func (m *Manager) StartVSCode(runID uint, workspacePath string) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := fmt.Sprintf("run-%d", runID)

	port := m.findAvailablePort()
	if port == 0 {
		return 0, fmt.Errorf("no available debug port in %d..%d", portRangeStart, portRangeEnd)
	}

	codePath := m.codePath()
	if codePath == "" {
		return 0, fmt.Errorf("VS Code not found. Please install VS Code or VSCodium")
	}

	dataDir := filepath.Join(m.dataDirRoot, fmt.Sprintf("vscode-data-%d", runID))
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create user data dir: %w", err)
	}

	args := []string{
		"--remote-debugging-port=" + strconv.Itoa(port),
		"--user-data-dir=" + dataDir,
		"--no-sandbox",
		"--disable-workspace-trust",
		"--disable-web-security",
		"--wait", // keep the CLI process attached so signals reach the workbench
	}
	if workspacePath != "" {
		args = append(args, "--folder-uri", workspacePath)
	}

	log.Printf("🚀 Starting VS Code for run %d on port %d (workspace: %q)", runID, port, workspacePath)
	cmd := exec.Command(codePath, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		os.RemoveAll(dataDir)
		return 0, fmt.Errorf("failed to start VS Code: %w", err)
	}

	process := &Process{
		Command: cmd,
		Port:    port,
		PID:     cmd.Process.Pid,
		DataDir: dataDir,
	}
	m.processes[key] = process
	log.Printf("📝 VS Code process registered: PID=%d, Port=%d", process.PID, port)

	// The executor runs its own bounded endpoint probe before binding; this
	// short readiness window only catches instant startup failures.
	if err := m.waitForDebugReady(port, 10*time.Second); err != nil {
		log.Printf("⚠️ Debug endpoint not up yet for run %d: %v (prober takes over)", runID, err)
	}

	return port, nil
}

// waitForDebugReady waits for the remote debugging endpoint to answer.
func (m *Manager) waitForDebugReady(port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	debugURL := fmt.Sprintf("http://localhost:%d/json/version", port)

	for time.Now().Before(deadline) {
		resp, err := http.Get(debugURL)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	return fmt.Errorf("debug endpoint not ready within %v", timeout)
}

// StopVSCode stops the VS Code instance for the given run, gracefully first.
func (m *Manager) StopVSCode(runID uint) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := fmt.Sprintf("run-%d", runID)
	process, exists := m.processes[key]
	if !exists {
		return
	}

	log.Printf("🛑 Stopping VS Code for run %d (PID: %d)", runID, process.PID)

	if process.Command.Process != nil {
		err := process.Command.Process.Signal(os.Interrupt)
		if err != nil {
			log.Printf("⚠️ Failed to signal VS Code process %d: %v", process.PID, err)
		} else {
			done := make(chan error, 1)
			go func() {
				done <- process.Command.Wait()
			}()

			select {
			case err := <-done:
				if err != nil {
					log.Printf("VS Code process %d ended with error: %v", process.PID, err)
				} else {
					log.Printf("✅ VS Code process %d terminated gracefully", process.PID)
				}
			case <-time.After(3 * time.Second):
				log.Printf("🔨 Graceful shutdown timeout, force killing VS Code process %d", process.PID)
				if killErr := process.Command.Process.Kill(); killErr != nil {
					log.Printf("⚠️ Failed to force kill VS Code process %d: %v", process.PID, killErr)
				} else {
					process.Command.Wait()
				}
			}
		}
	}

	if err := os.RemoveAll(process.DataDir); err != nil {
		log.Printf("⚠️ Failed to cleanup user data dir for run %d: %v", runID, err)
	}

	delete(m.processes, key)
	log.Printf("🧹 Cleanup completed for VS Code run %d", runID)
}

// findAvailablePort picks a debug port not held by a live run.
func (m *Manager) findAvailablePort() int {
	usedPorts := make(map[int]bool)
	for _, process := range m.processes {
		usedPorts[process.Port] = true
	}

	for port := portRangeStart; port <= portRangeEnd; port++ {
		if !usedPorts[port] {
			return port
		}
	}

	return 0
}

// DebugPort returns the allocated debug port for a run, or 0.
func (m *Manager) DebugPort(runID uint) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := fmt.Sprintf("run-%d", runID)
	if process, exists := m.processes[key]; exists {
		return process.Port
	}
	return 0
}

// CleanupAll stops every tracked VS Code instance (for shutdown).
func (m *Manager) CleanupAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	log.Printf("🧹 Cleaning up all VS Code instances (%d total)", len(m.processes))

	for key, process := range m.processes {
		if process.Command.Process != nil {
			log.Printf("🛑 Stopping VS Code process %s (PID: %d)", key, process.PID)
			process.Command.Process.Kill()
		}
		os.RemoveAll(process.DataDir)
	}

	m.processes = make(map[string]*Process)
}
