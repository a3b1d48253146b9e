package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/config"
	"github.com/jayeen28/techzu-backend/controllers"
	"github.com/jayeen28/techzu-backend/middleware"
	"github.com/jayeen28/techzu-backend/realtime"
	"github.com/jayeen28/techzu-backend/services"
)

// Dependencies are the wired services the routes are built on.
type Dependencies struct {
	Users        *services.UserService
	Comments     *services.CommentService
	Files        *services.FileService
	Hub          *realtime.Hub
	Google       *config.GoogleConfig
	RateLimiter  *middleware.RateLimiter
	CookieKey    string
	CookieSecure bool
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	// Initialize controllers
	authController := controllers.NewAuthController(deps.Users, deps.Google, deps.CookieKey, deps.CookieSecure)
	commentController := controllers.NewCommentController(deps.Comments)
	fileController := controllers.NewFileController(deps.Files)
	validationController := controllers.NewValidationController(deps.Users)
	eventController := controllers.NewEventController(deps.Hub)

	auth := middleware.AuthMiddleware(deps.Users, deps.CookieKey)
	optionalAuth := middleware.OptionalAuth(deps.Users, deps.CookieKey)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		SetupUserRoutes(api, auth, authController, deps.Google != nil)
		SetupValidationRoutes(api, validationController)
		SetupCommentRoutes(api, auth, deps.RateLimiter, commentController)
		SetupFileRoutes(api, auth, optionalAuth, fileController)
		SetupEventRoutes(api, eventController)
	}
}
