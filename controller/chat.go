package controller

import (
	"errors"
	"fmt"
	"net/http"

	"flowchat/service"

	"github.com/gin-gonic/gin"
)

// ChatController exposes the conversation state over HTTP. The send endpoint
// streams assistant chunks as SSE the same way the summary endpoint used to.
type ChatController struct {
	Svc      *service.ConversationService
	Notifier *service.MemoryNotifier
}

func (ch ChatController) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"conversations": ch.Svc.Conversations(),
		"selected":      ch.Svc.SelectedID(),
	})
}

func (ch ChatController) Create(c *gin.Context) {
	conv := ch.Svc.CreateConversation(c.Request.Context())
	logger.Infof("[%s] Created conversation %s", c.GetString("requestId"), conv.ID)
	c.JSON(http.StatusOK, conv)
}

func (ch ChatController) Select(c *gin.Context) {
	ch.Svc.SelectConversation(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"selected": ch.Svc.SelectedID()})
}

func (ch ChatController) Delete(c *gin.Context) {
	ch.Svc.DeleteConversation(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"selected": ch.Svc.SelectedID()})
}

func (ch ChatController) Send(c *gin.Context) {
	var reqData struct {
		Content string `json:"content" binding:"required"`
		Search  bool   `json:"search"`
	}
	if err := c.ShouldBindJSON(&reqData); err != nil {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Warnf("[%s] get Writer flusher error", c.GetString("requestId"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// Stream headers go out with the first chunk, not before: SendMessage can
	// still reject the request, and those rejections must stay plain JSON.
	headersSent := false
	startStream := func() {
		if headersSent {
			return
		}
		headersSent = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	msg, err := ch.Svc.SendMessage(c.Request.Context(), c.Param("id"), reqData.Content, reqData.Search, func(delta string) {
		startStream()
		fmt.Fprint(w, delta)
		flusher.Flush()
	})
	if err != nil {
		if headersSent {
			logger.Warnf("[%s] send message failed mid-stream, %s", c.GetString("requestId"), err)
			return
		}
		if errors.Is(err, service.ErrGenerationInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Warnf("[%s] send message failed, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	startStream()
	if msg != nil {
		logger.Infof("[%s] finished message %s", c.GetString("requestId"), msg.ID)
	}
}

func (ch ChatController) Cancel(c *gin.Context) {
	ch.Svc.CancelGeneration(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}

func (ch ChatController) Export(c *gin.Context) {
	conv, err := ch.Svc.GetConversation(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	html, err := service.ExportConversationHTML(conv)
	if err != nil {
		logger.Warnf("[%s] export failed, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export conversation"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (ch ChatController) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": ch.Notifier.Recent()})
}
