package handlers

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"copilotflow/backend/internal/executor"
	"copilotflow/backend/internal/models"
	"copilotflow/backend/pkg/database"
	"copilotflow/backend/pkg/response"
	"copilotflow/backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type CreateRunRequest struct {
	WorkspaceID *uint  `json:"workspace_id"`
	Model       string `json:"model" binding:"required,max=100"`
	Mode        string `json:"mode" binding:"required,max=100"`
	Prompt      string `json:"prompt" binding:"required"`
}

// CreateRun records the run and hands it to the executor. The response
// returns immediately; progress is available via the log stream and status
// polling.
func CreateRun(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not logged in")
		return
	}

	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	folderURI := ""
	if req.WorkspaceID != nil {
		if !utils.HasPermissionOnWorkspace(userID.(uint), *req.WorkspaceID) {
			response.Forbidden(c, "No permission on this workspace")
			return
		}
		var workspace models.Workspace
		if err := database.DB.Where("status = ?", 1).First(&workspace, *req.WorkspaceID).Error; err != nil {
			response.NotFound(c, "Workspace not found")
			return
		}
		folderURI = workspace.FolderURI
	}

	run := models.ChatRun{
		WorkspaceID: req.WorkspaceID,
		Model:       req.Model,
		Mode:        req.Mode,
		Prompt:      req.Prompt,
		Status:      "pending",
		UserID:      userID.(uint),
	}

	if err := database.DB.Create(&run).Error; err != nil {
		response.InternalServerError(c, "Failed to create run")
		return
	}

	go dispatchRun(&run, folderURI)

	response.SuccessWithMessage(c, "Run queued", run)
}

// dispatchRun pushes a run through the executor and persists its result.
func dispatchRun(run *models.ChatRun, folderURI string) {
	run.Status = "running"
	run.StartTime = time.Now()
	if err := database.DB.Save(run).Error; err != nil {
		log.Printf("⚠️ Failed to mark run %d running: %v", run.ID, err)
	}

	resultChan := executor.GlobalExecutor.ExecuteRun(run, folderURI)
	result := <-resultChan

	now := time.Now()
	run.EndTime = &now
	run.Duration = elapsedSeconds(run.StartTime, now)
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

	// A cancelled run was already finalized by StopRun; don't overwrite.
	var current models.ChatRun
	if err := database.DB.Select("status").First(&current, run.ID).Error; err == nil && current.Status == "cancelled" {
		executor.GlobalExecutor.NotifyRunComplete(run.ID)
		return
	}

	if err := database.DB.Save(run).Error; err != nil {
		log.Printf("⚠️ Failed to persist result for run %d: %v", run.ID, err)
	}
	executor.GlobalExecutor.NotifyRunComplete(run.ID)
}

// elapsedSeconds is 0 for runs stopped before they ever started; a pending
// run has no StartTime to measure from.
func elapsedSeconds(start, end time.Time) int {
	if start.IsZero() {
		return 0
	}
	return int(end.Sub(start).Seconds())
}

func GetRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	status := c.Query("status")
	workspaceID := c.Query("workspace_id")

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	var runs []models.ChatRun
	var total int64

	query := database.DB.Model(&models.ChatRun{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if workspaceID != "" {
		query = query.Where("workspace_id = ?", workspaceID)
	}

	query.Count(&total)

	offset := (page - 1) * pageSize
	err := query.Preload("Workspace").Preload("User").
		Omit("transcript", "run_logs", "dom_snapshot").
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).Find(&runs).Error
	if err != nil {
		response.InternalServerError(c, "Failed to list runs")
		return
	}

	for i := range runs {
		runs[i].User.Password = ""
	}

	response.Page(c, runs, total, page, pageSize)
}

func GetRun(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}

	var run models.ChatRun
	err = database.DB.Preload("Workspace").Preload("User").First(&run, id).Error
	if err != nil {
		response.NotFound(c, "Run not found")
		return
	}

	run.User.Password = ""
	response.Success(c, run)
}

func GetRunLogs(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}

	var run models.ChatRun
	if err := database.DB.Select("run_logs").First(&run, id).Error; err != nil {
		response.NotFound(c, "Run not found")
		return
	}

	var logs []executor.RunLog
	if run.RunLogs != "" {
		if err := json.Unmarshal([]byte(run.RunLogs), &logs); err != nil {
			response.InternalServerError(c, "Failed to parse run logs")
			return
		}
	}

	response.Success(c, logs)
}

func GetRunTranscript(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}

	var run models.ChatRun
	if err := database.DB.Select("transcript").First(&run, id).Error; err != nil {
		response.NotFound(c, "Run not found")
		return
	}

	messages, err := run.GetTranscript()
	if err != nil {
		response.InternalServerError(c, "Failed to parse transcript")
		return
	}

	response.Success(c, messages)
}

// ExportRun returns the run's full artifact: transcript, DOM snapshot and
// the model/mode the turn ran with.
func ExportRun(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}

	var run models.ChatRun
	if err := database.DB.First(&run, id).Error; err != nil {
		response.NotFound(c, "Run not found")
		return
	}

	messages, err := run.GetTranscript()
	if err != nil {
		response.InternalServerError(c, "Failed to parse transcript")
		return
	}

	response.Success(c, gin.H{
		"messages": messages,
		"dom":      run.DOMSnapshot,
		"model":    run.Model,
		"mode":     run.Mode,
	})
}

func StopRun(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}

	var run models.ChatRun
	if err := database.DB.First(&run, id).Error; err != nil {
		response.NotFound(c, "Run not found")
		return
	}

	if run.Status != "running" && run.Status != "pending" {
		response.BadRequest(c, "Run is not running")
		return
	}

	executor.GlobalExecutor.CancelExecution(uint(id))

	now := time.Now()
	run.Status = "cancelled"
	run.EndTime = &now
	run.Duration = elapsedSeconds(run.StartTime, now)
	if err := database.DB.Save(&run).Error; err != nil {
		response.InternalServerError(c, "Failed to update run")
		return
	}

	response.SuccessWithMessage(c, "Run cancelled", run)
}

func DeleteRun(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not logged in")
		return
	}

	var run models.ChatRun
	err = database.DB.Where("id = ? AND user_id = ?", id, userID).First(&run).Error
	if err != nil {
		response.NotFound(c, "Run not found or no permission")
		return
	}

	if run.Status == "running" || run.Status == "pending" {
		response.BadRequest(c, "Cannot delete a running run")
		return
	}

	if err := database.DB.Delete(&run).Error; err != nil {
		response.InternalServerError(c, "Failed to delete run")
		return
	}

	response.SuccessWithMessage(c, "Run deleted", nil)
}

func GetRunStatistics(c *gin.Context) {
	var totalRuns, passedCount, failedCount, runningCount, pendingCount int64

	database.DB.Model(&models.ChatRun{}).Count(&totalRuns)
	database.DB.Model(&models.ChatRun{}).Where("status = ?", "passed").Count(&passedCount)
	database.DB.Model(&models.ChatRun{}).Where("status = ?", "failed").Count(&failedCount)
	database.DB.Model(&models.ChatRun{}).Where("status = ?", "running").Count(&runningCount)
	database.DB.Model(&models.ChatRun{}).Where("status = ?", "pending").Count(&pendingCount)

	var successRate float64
	if totalRuns > 0 {
		successRate = float64(passedCount) / float64(totalRuns) * 100
	}

	var avgDuration float64
	database.DB.Model(&models.ChatRun{}).
		Where("duration > 0").
		Select("AVG(duration) as avg_duration").
		Pluck("avg_duration", &avgDuration)

	response.Success(c, gin.H{
		"total_runs":    totalRuns,
		"passed_count":  passedCount,
		"failed_count":  failedCount,
		"running_count": runningCount,
		"pending_count": pendingCount,
		"success_rate":  successRate,
		"avg_duration":  avgDuration,
	})
}
