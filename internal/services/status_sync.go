package services

import (
	"log"
	"time"

	"copilotflow/backend/internal/executor"
	"copilotflow/backend/internal/models"
	"copilotflow/backend/pkg/database"
	"copilotflow/backend/pkg/vscode"
)

// StatusSyncService reconciles executor state with database state. A crashed
// worker or a missed handler confirmation leaves a run stuck in "running";
// this loop repairs those records.
type StatusSyncService struct {
	running bool
	ticker  *time.Ticker
}

func NewStatusSyncService() *StatusSyncService {
	return &StatusSyncService{}
}

func (s *StatusSyncService) Start() {
	if s.running {
		return
	}

	s.running = true
	s.ticker = time.NewTicker(30 * time.Second)

	go s.syncLoop()
	log.Println("Status sync service started")
}

func (s *StatusSyncService) Stop() {
	if !s.running {
		return
	}

	s.running = false
	if s.ticker != nil {
		s.ticker.Stop()
	}
	log.Println("Status sync service stopped")
}

func (s *StatusSyncService) syncLoop() {
	for s.running {
		<-s.ticker.C
		s.syncRunStates()
	}
}

func (s *StatusSyncService) syncRunStates() {
	if executor.GlobalExecutor == nil {
		return
	}

	var runningRuns []models.ChatRun
	err := database.DB.Where("status = ?", "running").Find(&runningRuns).Error
	if err != nil {
		log.Printf("Failed to query running runs: %v", err)
		return
	}

	fixed := 0
	for _, run := range runningRuns {
		if executor.GlobalExecutor.IsRunning(run.ID) {
			continue
		}

		// Very recent runs may still be persisting their result.
		if time.Since(run.StartTime) < 30*time.Second {
			continue
		}

		now := time.Now()
		run.EndTime = &now
		run.Duration = int(now.Sub(run.StartTime).Seconds())
		run.Status = "failed"
		run.ErrorMessage = "Run finished but its result was never recorded"

		if err := database.DB.Save(&run).Error; err != nil {
			log.Printf("❌ Failed to fix stuck run %d: %v", run.ID, err)
		} else {
			log.Printf("🔧 Fixed run %d: marked as failed after %d seconds (status sync)", run.ID, run.Duration)
			fixed++
		}
	}

	if fixed > 0 {
		log.Printf("Status sync fixed %d stuck runs", fixed)
	}

	s.timeoutLongRunningRuns()
}

// timeoutLongRunningRuns fails runs that exceeded the hard wall-clock limit
// and reclaims their VS Code instances.
func (s *StatusSyncService) timeoutLongRunningRuns() {
	cutoffTime := time.Now().Add(-30 * time.Minute)

	var longRunningRuns []models.ChatRun
	err := database.DB.Where("status = ? AND start_time < ?", "running", cutoffTime).Find(&longRunningRuns).Error
	if err != nil {
		log.Printf("Failed to query long running runs: %v", err)
		return
	}

	for _, run := range longRunningRuns {
		if executor.GlobalExecutor.IsRunning(run.ID) {
			executor.GlobalExecutor.CancelExecution(run.ID)
		}
		vscode.GlobalManager.StopVSCode(run.ID)

		now := time.Now()
		run.EndTime = &now
		run.Duration = int(now.Sub(run.StartTime).Seconds())
		run.Status = "failed"
		run.ErrorMessage = "Run timed out after 30 minutes"

		if err := database.DB.Save(&run).Error; err != nil {
			log.Printf("Failed to timeout run %d: %v", run.ID, err)
		} else {
			log.Printf("Timed out long running run %d after %d seconds", run.ID, run.Duration)
		}
	}
}

var GlobalStatusSync *StatusSyncService

func InitStatusSync() {
	GlobalStatusSync = NewStatusSyncService()
	GlobalStatusSync.Start()
}
