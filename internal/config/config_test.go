package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.VSCode.ProbeAttempts)
	assert.Equal(t, 1, cfg.VSCode.ProbeInterval)
	assert.Equal(t, 3, cfg.VSCode.MaxWorkers)
	assert.NotEmpty(t, cfg.VSCode.DataDirRoot)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VSCODE_PROBE_ATTEMPTS", "10")
	t.Setenv("VSCODE_MAX_WORKERS", "5")
	t.Setenv("DB_DATABASE", "copilotflow_test")

	cfg := Load()

	assert.Equal(t, 10, cfg.VSCode.ProbeAttempts)
	assert.Equal(t, 5, cfg.VSCode.MaxWorkers)
	assert.Contains(t, cfg.Database.GetDSN(), "copilotflow_test")
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("VSCODE_PROBE_ATTEMPTS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 30, cfg.VSCode.ProbeAttempts)
}

func TestGetDSNShape(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: "3306", Username: "u", Password: "p",
		Database: "copilotflow", Charset: "utf8mb4",
	}

	assert.Equal(t, "u:p@tcp(db:3306)/copilotflow?charset=utf8mb4&parseTime=True&loc=Local", d.GetDSN())
}
