package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"flowchat/controller"
	"flowchat/model"
	"flowchat/platform"
	"flowchat/service"

	_uuid "github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CORSMiddleware ...
// CORS (Cross-Origin Resource Sharing)
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Origin, Authorization, Accept, Client-Security-Token, Accept-Encoding, x-access-token")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
		} else {
			c.Next()
		}
	}
}

// RequestIDMiddleware ...
// Generate a unique ID and attach it to each request for future reference or use
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := _uuid.New()
		c.Writer.Header().Set("X-Request-Id", uuid.String())
		c.Set("requestId", uuid.String())
		c.Next()
	}
}

func LogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		if raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method
		userAgent := c.Request.UserAgent()
		requestId := c.GetString("requestId")

		logrus.Infof(
			" [%s] %d | %v | %s | %s | %s | %s ",
			requestId,
			status,
			latency,
			clientIP,
			method,
			path,
			userAgent,
		)
	}
}

var auth = new(controller.AuthController)

// TokenAuthMiddleware ...
// JWT Authentication middleware attached to each request that needs to be authenitcated to
// validate the access_token in the header
func TokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.TokenValid(c)
		c.Next()
	}
}

func main() {
	fmt.Println("Server started...")

	//Load the .env file
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("failed to load the env file")
	}

	r := gin.Default()
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LogMiddleware())

	//init database
	platform.InitDB()
	model.InstallDB()

	platform.InitLLMClient()

	sessionAuth := service.NewSessionAuth()
	notifier := service.NewMemoryNotifier()
	store := model.NewStore(platform.DB)
	chatService := service.NewConversationService(store, sessionAuth, service.NewLLMGenerator(), notifier)
	chatService.Initialize(context.Background())

	v1 := r.Group("/v1")
	{
		user := controller.UserController{Auth: sessionAuth}
		v1.POST("/user/register", user.Register)
		v1.POST("/user/login", user.Login)

		//Refresh the token
		v1.POST("/token/refresh", auth.Refresh)

		// Conversations
		chat := controller.ChatController{Svc: chatService, Notifier: notifier}
		v1.GET("/conversations", chat.List)
		v1.POST("/conversations", chat.Create)
		v1.POST("/conversations/:id/select", chat.Select)
		v1.DELETE("/conversations/:id", chat.Delete)
		v1.POST("/conversations/:id/messages", chat.Send)
		v1.POST("/conversations/:id/cancel", chat.Cancel)
		v1.GET("/conversations/:id/export", chat.Export)
		v1.GET("/notifications", chat.Notifications)
	}

	c := cron.New()
	c.AddFunc("30 3 * * *", func() {
		days, _ := strconv.Atoi(os.Getenv("RETENTION_DAYS"))
		if days > 0 {
			chatService.RetentionSweep(context.Background(), time.Duration(days)*24*time.Hour)
		}
	})
	c.Start()

	port := os.Getenv("PORT")
	r.Run(":" + port)
}
