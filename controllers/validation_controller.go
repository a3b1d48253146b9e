package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/services"
)

type ValidationController struct {
	Users *services.UserService
}

func NewValidationController(users *services.UserService) *ValidationController {
	return &ValidationController{Users: users}
}

func (vc *ValidationController) ValidateEmail(c *gin.Context) {
	exists, err := vc.Users.EmailExists(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}
