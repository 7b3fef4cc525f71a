package handlers

import (
	"strconv"

	"copilotflow/backend/internal/models"
	"copilotflow/backend/internal/services"
	"copilotflow/backend/pkg/database"
	"copilotflow/backend/pkg/response"
	"copilotflow/backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ScheduleRequest struct {
	Name           string `json:"name" binding:"required,min=1,max=200"`
	WorkspaceID    *uint  `json:"workspace_id"`
	Model          string `json:"model" binding:"required,max=100"`
	Mode           string `json:"mode" binding:"required,max=100"`
	Prompt         string `json:"prompt" binding:"required"`
	CronExpression string `json:"cron_expression" binding:"required,max=100"`
}

func GetSchedules(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	var schedules []models.ScheduledPrompt
	var total int64

	query := database.DB.Model(&models.ScheduledPrompt{})
	query.Count(&total)

	offset := (page - 1) * pageSize
	err := query.Preload("Workspace").Preload("User").Order("created_at DESC").
		Offset(offset).Limit(pageSize).Find(&schedules).Error
	if err != nil {
		response.InternalServerError(c, "Failed to list schedules")
		return
	}

	for i := range schedules {
		schedules[i].User.Password = ""
	}

	response.Page(c, schedules, total, page, pageSize)
}

func GetSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid schedule ID")
		return
	}

	var schedule models.ScheduledPrompt
	err = database.DB.Preload("Workspace").Preload("User").First(&schedule, id).Error
	if err != nil {
		response.NotFound(c, "Schedule not found")
		return
	}

	schedule.User.Password = ""
	response.Success(c, schedule)
}

func CreateSchedule(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not logged in")
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.WorkspaceID != nil && !utils.HasPermissionOnWorkspace(userID.(uint), *req.WorkspaceID) {
		response.Forbidden(c, "No permission on this workspace")
		return
	}

	schedule := models.ScheduledPrompt{
		Name:           req.Name,
		WorkspaceID:    req.WorkspaceID,
		Model:          req.Model,
		Mode:           req.Mode,
		Prompt:         req.Prompt,
		CronExpression: req.CronExpression,
		Status:         1,
		UserID:         userID.(uint),
	}

	if err := database.DB.Create(&schedule).Error; err != nil {
		response.InternalServerError(c, "Failed to create schedule")
		return
	}

	if err := services.GlobalScheduler.AddSchedule(schedule); err != nil {
		// Keep the record; the cron expression may simply be invalid.
		response.BadRequest(c, "Schedule saved but not registered: "+err.Error())
		return
	}

	response.SuccessWithMessage(c, "Schedule created", schedule)
}

func UpdateSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid schedule ID")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not logged in")
		return
	}

	var schedule models.ScheduledPrompt
	if err := database.DB.First(&schedule, id).Error; err != nil {
		response.NotFound(c, "Schedule not found")
		return
	}

	if schedule.UserID != userID.(uint) && !utils.IsAdmin(userID.(uint)) {
		response.Forbidden(c, "No permission on this schedule")
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	schedule.Name = req.Name
	schedule.WorkspaceID = req.WorkspaceID
	schedule.Model = req.Model
	schedule.Mode = req.Mode
	schedule.Prompt = req.Prompt
	schedule.CronExpression = req.CronExpression

	if err := database.DB.Save(&schedule).Error; err != nil {
		response.InternalServerError(c, "Failed to update schedule")
		return
	}

	if schedule.Status == 1 {
		if err := services.GlobalScheduler.AddSchedule(schedule); err != nil {
			response.BadRequest(c, "Schedule saved but not registered: "+err.Error())
			return
		}
	}

	response.SuccessWithMessage(c, "Schedule updated", schedule)
}

// ToggleSchedule enables or disables a schedule's cron registration.
func ToggleSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid schedule ID")
		return
	}

	var schedule models.ScheduledPrompt
	if err := database.DB.First(&schedule, id).Error; err != nil {
		response.NotFound(c, "Schedule not found")
		return
	}

	if schedule.Status == 1 {
		schedule.Status = 0
		services.GlobalScheduler.RemoveSchedule(schedule.ID)
	} else {
		schedule.Status = 1
		if err := services.GlobalScheduler.AddSchedule(schedule); err != nil {
			response.BadRequest(c, "Failed to register schedule: "+err.Error())
			return
		}
	}

	if err := database.DB.Save(&schedule).Error; err != nil {
		response.InternalServerError(c, "Failed to update schedule")
		return
	}

	response.SuccessWithMessage(c, "Schedule updated", schedule)
}

func DeleteSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid schedule ID")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not logged in")
		return
	}

	var schedule models.ScheduledPrompt
	if err := database.DB.First(&schedule, id).Error; err != nil {
		response.NotFound(c, "Schedule not found")
		return
	}

	if schedule.UserID != userID.(uint) && !utils.IsAdmin(userID.(uint)) {
		response.Forbidden(c, "No permission on this schedule")
		return
	}

	services.GlobalScheduler.RemoveSchedule(schedule.ID)

	if err := database.DB.Delete(&schedule).Error; err != nil {
		response.InternalServerError(c, "Failed to delete schedule")
		return
	}

	response.SuccessWithMessage(c, "Schedule deleted", nil)
}
