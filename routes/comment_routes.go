package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/controllers"
	"github.com/jayeen28/techzu-backend/middleware"
)

func SetupCommentRoutes(api *gin.RouterGroup, auth gin.HandlerFunc, limiter *middleware.RateLimiter, commentController *controllers.CommentController) {
	comments := api.Group("/comment")
	{
		comments.GET("/:post", commentController.List)
		comments.GET("/view/:id", commentController.View)
	}

	// Writes
	writes := api.Group("/comment")
	writes.Use(auth)
	if limiter != nil {
		writes.Use(limiter.Middleware())
	}
	{
		writes.POST("/:post", commentController.Create)
		writes.PATCH("/edit/:id", commentController.Edit)
		writes.POST("/react/:id", commentController.React)
		writes.DELETE("/:id", commentController.Remove)
	}
}
