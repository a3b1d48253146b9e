package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/controllers"
)

func SetupUserRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, authController *controllers.AuthController, googleEnabled bool) {
	user := api.Group("/user")
	{
		user.POST("/register", authController.Register)
		user.POST("/login", authController.Login)
		if googleEnabled {
			user.POST("/google", authController.GoogleLogin)
		}

		user.POST("/logout", auth, authController.Logout)
		user.GET("/me", auth, authController.Me)
	}
}
