package utils

import (
	"copilotflow/backend/internal/models"
	"copilotflow/backend/pkg/database"
)

// IsAdmin checks if the user with given ID is an admin user
func IsAdmin(userID uint) bool {
	var user models.User
	err := database.DB.First(&user, userID).Error
	if err != nil {
		return false
	}
	return user.Username == "admin"
}

// HasPermissionOnWorkspace checks if user has permission on a workspace (owner or admin)
func HasPermissionOnWorkspace(userID uint, workspaceID uint) bool {
	if IsAdmin(userID) {
		return true
	}

	var workspace models.Workspace
	err := database.DB.Where("id = ? AND user_id = ? AND status = ?", workspaceID, userID, 1).First(&workspace).Error
	return err == nil
}

// HasPermissionOnRun checks if user has permission on a chat run (owner, workspace owner, or admin)
func HasPermissionOnRun(userID uint, runID uint) bool {
	if IsAdmin(userID) {
		return true
	}

	var run models.ChatRun
	err := database.DB.Preload("Workspace").First(&run, runID).Error
	if err != nil {
		return false
	}

	if run.UserID == userID {
		return true
	}
	return run.WorkspaceID != nil && run.Workspace.UserID == userID
}
