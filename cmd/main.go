package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"copilotflow/backend/internal/api/routes"
	"copilotflow/backend/internal/config"
	"copilotflow/backend/internal/executor"
	"copilotflow/backend/internal/services"
	"copilotflow/backend/pkg/auth"
	"copilotflow/backend/pkg/database"
	"copilotflow/backend/pkg/vscode"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize JWT
	auth.InitJWT(cfg.JWT.Secret)

	// Initialize database
	if err := database.InitDatabase(cfg); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Per-run VS Code user data dirs live under this root
	vscode.GlobalManager.SetDataDirRoot(cfg.VSCode.DataDirRoot)
	if cfg.VSCode.BinaryPath != "" {
		vscode.GlobalManager.SetBinaryPath(cfg.VSCode.BinaryPath)
	}

	// Initialize chat run executor
	executor.InitExecutor(cfg.VSCode.MaxWorkers)

	// Initialize scheduler service
	if err := services.InitScheduler(); err != nil {
		log.Fatal("Failed to initialize scheduler:", err)
	}

	// Initialize status sync service
	services.InitStatusSync()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize router
	router := routes.SetupRoutes(cfg)

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Shutting down server...")

		if services.GlobalScheduler != nil {
			services.GlobalScheduler.Stop()
		}

		if services.GlobalStatusSync != nil {
			services.GlobalStatusSync.Stop()
		}

		if executor.GlobalExecutor != nil {
			executor.GlobalExecutor.Stop()
		}

		// Every live VS Code instance belongs to this process; reap them.
		vscode.GlobalManager.CleanupAll()

		log.Println("Server shutdown complete")
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
