package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"copilotflow/backend/internal/executor"
	"copilotflow/backend/internal/models"
	"copilotflow/backend/pkg/database"

	"github.com/robfig/cron/v3"
)

type SchedulerService struct {
	cron    *cron.Cron
	mutex   sync.Mutex
	entries map[uint]cron.EntryID
}

var GlobalScheduler *SchedulerService

func InitScheduler() error {
	GlobalScheduler = &SchedulerService{
		cron:    cron.New(cron.WithSeconds()),
		entries: make(map[uint]cron.EntryID),
	}

	if err := GlobalScheduler.loadScheduledPrompts(); err != nil {
		return err
	}

	GlobalScheduler.cron.Start()
	log.Println("Scheduler service initialized")

	return nil
}

func (s *SchedulerService) loadScheduledPrompts() error {
	var schedules []models.ScheduledPrompt
	err := database.DB.Where("cron_expression != '' AND status = ?", 1).Find(&schedules).Error
	if err != nil {
		return err
	}

	for _, schedule := range schedules {
		if err := s.AddSchedule(schedule); err != nil {
			log.Printf("Failed to add schedule %d: %v", schedule.ID, err)
		}
	}

	log.Printf("Loaded %d scheduled prompts", len(schedules))
	return nil
}

func (s *SchedulerService) AddSchedule(schedule models.ScheduledPrompt) error {
	if schedule.CronExpression == "" {
		return nil
	}

	s.RemoveSchedule(schedule.ID)

	scheduleID := schedule.ID
	entryID, err := s.cron.AddFunc(schedule.CronExpression, func() {
		s.executeScheduledPrompt(scheduleID)
	})
	if err != nil {
		return err
	}

	s.mutex.Lock()
	s.entries[schedule.ID] = entryID
	s.mutex.Unlock()

	log.Printf("Added schedule %d (entry %d): %s", schedule.ID, entryID, schedule.CronExpression)
	return nil
}

func (s *SchedulerService) RemoveSchedule(scheduleID uint) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, exists := s.entries[scheduleID]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, scheduleID)
		log.Printf("Removed schedule %d (entry %d)", scheduleID, entryID)
	}
}

func (s *SchedulerService) executeScheduledPrompt(scheduleID uint) {
	log.Printf("Executing scheduled prompt %d", scheduleID)

	var schedule models.ScheduledPrompt
	err := database.DB.Preload("Workspace").
		Where("id = ? AND status = ?", scheduleID, 1).First(&schedule).Error
	if err != nil {
		log.Printf("Failed to load schedule %d: %v", scheduleID, err)
		return
	}

	if executor.GlobalExecutor == nil {
		log.Printf("Chat run executor not available for scheduled prompt %d", scheduleID)
		return
	}

	// Skip the tick rather than queue behind a full pool; the next tick will
	// fire soon enough for cron workloads.
	if executor.GlobalExecutor.GetRunningCount() >= 10 {
		log.Printf("Insufficient capacity for scheduled prompt %d, skipping this tick", scheduleID)
		return
	}

	folderURI := ""
	if schedule.WorkspaceID != nil && schedule.Workspace.Status == 1 {
		folderURI = schedule.Workspace.FolderURI
	}

	run := models.ChatRun{
		WorkspaceID: schedule.WorkspaceID,
		ScheduleID:  &schedule.ID,
		Model:       schedule.Model,
		Mode:        schedule.Mode,
		Prompt:      schedule.Prompt,
		Status:      "pending",
		UserID:      schedule.UserID,
	}

	if err := database.DB.Create(&run).Error; err != nil {
		log.Printf("Failed to create run for schedule %d: %v", scheduleID, err)
		return
	}

	go func() {
		run.Status = "running"
		run.StartTime = time.Now()
		database.DB.Save(&run)

		resultChan := executor.GlobalExecutor.ExecuteRun(&run, folderURI)
		result := <-resultChan

		now := time.Now()
		run.EndTime = &now
		run.Duration = int(now.Sub(run.StartTime).Seconds())
		run.ErrorMessage = result.ErrorMessage
		run.DOMSnapshot = result.DOM

		if result.Success {
			run.Status = "passed"
		} else {
			run.Status = "failed"
		}

		if logsJSON, err := json.Marshal(result.Logs); err == nil {
			run.RunLogs = string(logsJSON)
		}
		if transcriptJSON, err := json.Marshal(result.Messages); err == nil {
			run.Transcript = string(transcriptJSON)
		}

		if err := database.DB.Save(&run).Error; err != nil {
			log.Printf("Failed to persist scheduled run %d: %v", run.ID, err)
		}
		executor.GlobalExecutor.NotifyRunComplete(run.ID)

		log.Printf("Scheduled run %d for schedule %d finished (status: %s)", run.ID, scheduleID, run.Status)
	}()
}

func (s *SchedulerService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		log.Println("Scheduler service stopped")
	}
}
