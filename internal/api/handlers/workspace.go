package handlers

import (
	"strconv"

	"copilotflow/backend/internal/models"
	"copilotflow/backend/pkg/database"
	"copilotflow/backend/pkg/response"
	"copilotflow/backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type WorkspaceRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
	FolderURI   string `json:"folder_uri" binding:"required,max=500"`
}

func GetWorkspaces(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	keyword := c.Query("keyword")

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	var workspaces []models.Workspace
	var total int64

	query := database.DB.Model(&models.Workspace{}).Where("status = ?", 1)
	if keyword != "" {
		query = query.Where("name LIKE ? OR description LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	query.Count(&total)

	offset := (page - 1) * pageSize
	err := query.Preload("User").Order("created_at DESC").
		Offset(offset).Limit(pageSize).Find(&workspaces).Error
	if err != nil {
		response.InternalServerError(c, "Failed to list workspaces")
		return
	}

	for i := range workspaces {
		workspaces[i].User.Password = ""
	}

	response.Page(c, workspaces, total, page, pageSize)
}

func GetWorkspace(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid workspace ID")
		return
	}

	var workspace models.Workspace
	err = database.DB.Preload("User").Where("status = ?", 1).First(&workspace, id).Error
	if err != nil {
		response.NotFound(c, "Workspace not found")
		return
	}

	workspace.User.Password = ""
	response.Success(c, workspace)
}

func CreateWorkspace(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not logged in")
		return
	}

	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	workspace := models.Workspace{
		Name:        req.Name,
		Description: req.Description,
		FolderURI:   req.FolderURI,
		UserID:      userID.(uint),
		Status:      1,
	}

	if err := database.DB.Create(&workspace).Error; err != nil {
		response.InternalServerError(c, "Failed to create workspace")
		return
	}

	response.SuccessWithMessage(c, "Workspace created", workspace)
}

func UpdateWorkspace(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid workspace ID")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not logged in")
		return
	}

	if !utils.HasPermissionOnWorkspace(userID.(uint), uint(id)) {
		response.Forbidden(c, "No permission on this workspace")
		return
	}

	var req WorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var workspace models.Workspace
	if err := database.DB.First(&workspace, id).Error; err != nil {
		response.NotFound(c, "Workspace not found")
		return
	}

	workspace.Name = req.Name
	workspace.Description = req.Description
	workspace.FolderURI = req.FolderURI

	if err := database.DB.Save(&workspace).Error; err != nil {
		response.InternalServerError(c, "Failed to update workspace")
		return
	}

	response.SuccessWithMessage(c, "Workspace updated", workspace)
}

func DeleteWorkspace(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid workspace ID")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not logged in")
		return
	}

	if !utils.HasPermissionOnWorkspace(userID.(uint), uint(id)) {
		response.Forbidden(c, "No permission on this workspace")
		return
	}

	// Soft delete via status so historical runs keep their reference.
	err = database.DB.Model(&models.Workspace{}).Where("id = ?", id).Update("status", 0).Error
	if err != nil {
		response.InternalServerError(c, "Failed to delete workspace")
		return
	}

	response.SuccessWithMessage(c, "Workspace deleted", nil)
}
