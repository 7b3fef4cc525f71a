package handlers

import (
	"net/http"
	"time"

	"copilotflow/backend/internal/config"
	"copilotflow/backend/internal/models"
	"copilotflow/backend/pkg/auth"
	"copilotflow/backend/pkg/database"
	"copilotflow/backend/pkg/response"
	"copilotflow/backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var user models.User
	err := database.DB.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			response.Unauthorized(c, "Invalid username or password")
		} else {
			response.InternalServerError(c, "Database query failed")
		}
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "Invalid username or password")
		return
	}

	if user.Status != 1 {
		response.Forbidden(c, "Account is disabled")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, config.GlobalConfig.JWT.ExpireHours)
	if err != nil {
		response.InternalServerError(c, "Failed to generate token")
		return
	}

	user.Password = ""

	response.SuccessWithMessage(c, "Login successful", LoginResponse{
		Token: token,
		User:  user,
	})
}

func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var existingUser models.User
	if err := database.DB.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
		response.BadRequest(c, "Username already exists")
		return
	}
	if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		response.BadRequest(c, "Email already registered")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		response.InternalServerError(c, "Failed to hash password")
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
		Status:   1,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		response.InternalServerError(c, "Failed to create user")
		return
	}

	user.Password = ""
	response.SuccessWithMessage(c, "Registration successful", user)
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		},
	})
}
