package controller

import (
	"net/http"

	"flowchat/service"

	"github.com/gin-gonic/gin"
)

// AuthController ...
type AuthController struct{}

var tokenService = new(service.TokenService)

// TokenValid ...
func (a AuthController) TokenValid(c *gin.Context) {
	tokenAuth, err := tokenService.ExtractTokenMetadata(c.Request)
	if err != nil {
		//Token either expired or not valid
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Please login first"})
		return
	}

	c.Set("UserId", tokenAuth.UserID)
	c.Set("UserEmail", tokenAuth.Email)
}

// Refresh ...
func (a AuthController) Refresh(c *gin.Context) {
	tokenAuth, err := tokenService.ExtractTokenMetadata(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization, please login again"})
		return
	}

	td, err := tokenService.CreateToken(uint(tokenAuth.UserID), tokenAuth.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization, please login again"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": td.AccessToken})
}
