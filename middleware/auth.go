package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/models"
	"github.com/jayeen28/techzu-backend/services"
	"github.com/jayeen28/techzu-backend/utils"
)

// Authenticator validates session tokens and loads their users.
type Authenticator interface {
	ParseToken(raw string) (*utils.UserClaims, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware accepts the session cookie or an Authorization bearer token and
// stores the current user in the context.
func AuthMiddleware(auth Authenticator, cookieKey string) gin.HandlerFunc {
	return authenticate(auth, cookieKey, false)
}

// OptionalAuth lets requests without credentials through anonymously. Credentials that
// are present must still be valid.
func OptionalAuth(auth Authenticator, cookieKey string) gin.HandlerFunc {
	return authenticate(auth, cookieKey, true)
}

func authenticate(auth Authenticator, cookieKey string, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c, cookieKey)
		if token == "" && optional {
			c.Next()
			return
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := auth.FindByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, services.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		c.Set(string(utils.ClaimsContextKey), claims)
		c.Set(string(utils.UserContextKey), user)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieKey string) string {
	if cookie, err := c.Cookie(cookieKey); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	bearerToken := strings.Split(authHeader, " ")
	if len(bearerToken) == 2 && strings.EqualFold(bearerToken[0], "Bearer") {
		return bearerToken[1]
	}
	return ""
}
