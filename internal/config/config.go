package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	VSCode   VSCodeConfig
}

type ServerConfig struct {
	Host string
	Port string
	Mode string // debug, release
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Charset  string
}

type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// VSCodeConfig controls how automation runs launch and attach to VS Code.
type VSCodeConfig struct {
	BinaryPath    string // empty: auto-detect
	DataDirRoot   string // root for per-run --user-data-dir
	ProbeAttempts int
	ProbeInterval int // seconds
	MaxWorkers    int
}

var GlobalConfig *Config

func Load() *Config {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
			Mode: getEnv("SERVER_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			Username: getEnv("DB_USERNAME", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_DATABASE", "copilotflow"),
			Charset:  getEnv("DB_CHARSET", "utf8mb4"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "copilotflow-secret-key"),
			ExpireHours: getEnvAsInt("JWT_EXPIRE_HOURS", 24),
		},
		VSCode: VSCodeConfig{
			BinaryPath:    getEnv("VSCODE_BINARY_PATH", ""),
			DataDirRoot:   getEnv("VSCODE_DATA_DIR_ROOT", os.TempDir()),
			ProbeAttempts: getEnvAsInt("VSCODE_PROBE_ATTEMPTS", 30),
			ProbeInterval: getEnvAsInt("VSCODE_PROBE_INTERVAL", 1),
			MaxWorkers:    getEnvAsInt("VSCODE_MAX_WORKERS", 3),
		},
	}

	GlobalConfig = config
	return config
}

// GetDSN returns the MySQL connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Charset)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
