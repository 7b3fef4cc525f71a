package vscode

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindAvailablePortSkipsHeldPorts(t *testing.T) {
	m := &Manager{processes: map[string]*Process{
		"run-1": {Port: portRangeStart, Command: &exec.Cmd{}},
		"run-2": {Port: portRangeStart + 1, Command: &exec.Cmd{}},
	}}

	port := m.findAvailablePort()
	assert.Equal(t, portRangeStart+2, port)
}

func TestFindAvailablePortExhausted(t *testing.T) {
	processes := make(map[string]*Process)
	for p := portRangeStart; p <= portRangeEnd; p++ {
		processes[string(rune(p))] = &Process{Port: p, Command: &exec.Cmd{}}
	}
	m := &Manager{processes: processes}

	assert.Equal(t, 0, m.findAvailablePort())
}

func TestCodePathPrefersConfiguredBinary(t *testing.T) {
	m := &Manager{processes: make(map[string]*Process)}
	m.SetBinaryPath("/opt/custom/code")

	assert.Equal(t, "/opt/custom/code", m.codePath())
}

func TestCodePathFallsBackToDiscovery(t *testing.T) {
	m := &Manager{processes: make(map[string]*Process)}

	assert.Equal(t, GetCodePath(), m.codePath())
}

func TestDebugPortUnknownRun(t *testing.T) {
	m := &Manager{processes: make(map[string]*Process)}
	assert.Equal(t, 0, m.DebugPort(42))
}
