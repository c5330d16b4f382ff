package controller

import (
	"net/http"

	"flowchat/platform"
	"flowchat/service"

	"github.com/gin-gonic/gin"
)

// UserController ...
type UserController struct {
	Auth *service.SessionAuth
}

var userService = service.UserService{}

var logger = platform.Logger

func (ctrl UserController) Register(c *gin.Context) {
	logger.Infof("[%s] Handling user registration request", c.GetString("requestId"))

	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Email    string `json:"email" binding:"email"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user := &service.User{
		Username: input.Username,
		Password: input.Password,
		Email:    input.Email,
	}
	if err := userService.Register(user); err != nil {
		logger.Warnf("[%s] Failed to register user %s: %s", c.GetString("requestId"), user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	logger.Infof("[%s] User %s registered successfully", c.GetString("requestId"), user.Username)
	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (ctrl UserController) Login(c *gin.Context) {
	logger.Infof("[%s] Handling user login request", c.GetString("requestId"))

	var loginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	token, err := userService.Login(&service.User{
		Username: loginRequest.Username,
		Password: loginRequest.Password,
	})
	if err != nil {
		logger.Warnf("[%s] User %s failed to login: %s", c.GetString("requestId"), loginRequest.Username, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	// The token becomes the session the conversation sync resolves against.
	if ctrl.Auth != nil {
		ctrl.Auth.SetToken(token)
	}

	logger.Infof("[%s] User %s login successfully", c.GetString("requestId"), loginRequest.Username)
	c.JSON(http.StatusOK, gin.H{"token": token})
}
