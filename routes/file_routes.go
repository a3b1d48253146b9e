package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/controllers"
)

// SetupFileRoutes registers file routes. Uploads are open to anonymous clients so an
// avatar can be uploaded before registering.
func SetupFileRoutes(api *gin.RouterGroup, auth, optionalAuth gin.HandlerFunc, fileController *controllers.FileController) {
	files := api.Group("/file")
	{
		files.POST("", optionalAuth, fileController.Upload)
		files.GET("/:id", auth, fileController.Get)
	}
}
