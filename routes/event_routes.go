package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/controllers"
)

func SetupEventRoutes(api *gin.RouterGroup, eventController *controllers.EventController) {
	api.GET("/events", eventController.Stream)
}
