package controllers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/realtime"
)

const keepAliveInterval = 25 * time.Second

type EventController struct {
	Hub *realtime.Hub
}

func NewEventController(hub *realtime.Hub) *EventController {
	return &EventController{Hub: hub}
}

// Stream pushes comment events of ?post to the client as server-sent events.
func (ec *EventController) Stream(c *gin.Context) {
	post := c.Query("post")
	if post == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post is required"})
		return
	}

	sub := ec.Hub.Subscribe(post)
	defer ec.Hub.Unsubscribe(sub)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.Send:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev.Payload)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().Unix()})
			return true
		}
	})
}
