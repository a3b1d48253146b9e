package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/controllers"
)

func SetupValidationRoutes(api *gin.RouterGroup, validationController *controllers.ValidationController) {
	api.GET("/user/email/:email/exists", validationController.ValidateEmail)
}
