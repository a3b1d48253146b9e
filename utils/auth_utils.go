package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/models"
)

type UserClaims struct {
	UserID string `json:"user_id"`
}

type contextKey string

const (
	UserContextKey   contextKey = "user"
	ClaimsContextKey contextKey = "claims"
)

// GetUser returns the user loaded by the auth middleware, or nil.
func GetUser(c *gin.Context) *models.User {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if u, ok := user.(*models.User); ok {
		return u
	}
	return nil
}

func GetClaims(c *gin.Context) *UserClaims {
	claims, exists := c.Get(string(ClaimsContextKey))
	if !exists {
		return nil
	}
	if userClaims, ok := claims.(*UserClaims); ok {
		return userClaims
	}
	return nil
}
