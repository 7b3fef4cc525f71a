package models

import (
	"encoding/json"
	"time"

	"copilotflow/backend/internal/automator"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type User struct {
	BaseModel
	Username string `json:"username" gorm:"uniqueIndex;size:100;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password string `json:"-" gorm:"size:255;not null"`
	Avatar   string `json:"avatar" gorm:"size:255"`
	Status   int    `json:"status" gorm:"default:1"` // 1:active, 0:inactive
}

// Workspace is a named VS Code folder target. A run may reference one, or
// none to automate an empty window.
type Workspace struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null"`
	Description string `json:"description" gorm:"size:500"`
	FolderURI   string `json:"folder_uri" gorm:"size:500;not null"`
	UserID      uint   `json:"user_id" gorm:"not null"`
	User        User   `json:"user" gorm:"foreignKey:UserID"`
	Status      int    `json:"status" gorm:"default:1"`
}

// ChatRun is one automated Copilot chat turn: prompt in, transcript out.
type ChatRun struct {
	BaseModel
	WorkspaceID  *uint      `json:"workspace_id"` // nullable: empty window run
	Workspace    Workspace  `json:"workspace" gorm:"foreignKey:WorkspaceID"`
	ScheduleID   *uint      `json:"schedule_id"` // set for scheduler-created runs
	Model        string     `json:"model" gorm:"size:100;not null"`
	Mode         string     `json:"mode" gorm:"size:100;not null"`
	Prompt       string     `json:"prompt" gorm:"type:text;not null"`
	Status       string     `json:"status"` // pending, running, passed, failed, cancelled
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	Duration     int        `json:"duration"` // in seconds
	ErrorMessage string     `json:"error_message" gorm:"type:text"`
	RunLogs      string     `json:"run_logs" gorm:"type:longtext"`   // JSON RunLog array
	Transcript   string     `json:"transcript" gorm:"type:longtext"` // JSON ChatMessage array
	DOMSnapshot  string     `json:"-" gorm:"type:longtext"`
	UserID       uint       `json:"user_id" gorm:"not null"`
	User         User       `json:"user" gorm:"foreignKey:UserID"`
}

// GetTranscript decodes the persisted transcript column.
func (r *ChatRun) GetTranscript() ([]automator.ChatMessage, error) {
	var messages []automator.ChatMessage
	if r.Transcript == "" {
		return messages, nil
	}
	err := json.Unmarshal([]byte(r.Transcript), &messages)
	return messages, err
}

// ScheduledPrompt sends a fixed prompt on a cron schedule.
type ScheduledPrompt struct {
	BaseModel
	Name           string    `json:"name" gorm:"size:200;not null"`
	WorkspaceID    *uint     `json:"workspace_id"`
	Workspace      Workspace `json:"workspace" gorm:"foreignKey:WorkspaceID"`
	Model          string    `json:"model" gorm:"size:100;not null"`
	Mode           string    `json:"mode" gorm:"size:100;not null"`
	Prompt         string    `json:"prompt" gorm:"type:text;not null"`
	CronExpression string    `json:"cron_expression" gorm:"size:100;not null"`
	Status         int       `json:"status" gorm:"default:1"`
	UserID         uint      `json:"user_id" gorm:"not null"`
	User           User      `json:"user" gorm:"foreignKey:UserID"`
}
