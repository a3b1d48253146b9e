package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/config"
	"github.com/jayeen28/techzu-backend/services"
	"github.com/jayeen28/techzu-backend/utils"
	"github.com/rs/zerolog/log"
)

type AuthController struct {
	Users        *services.UserService
	GoogleConfig *config.GoogleConfig
	CookieKey    string
	CookieSecure bool
}

func NewAuthController(users *services.UserService, google *config.GoogleConfig, cookieKey string, cookieSecure bool) *AuthController {
	return &AuthController{
		Users:        users,
		GoogleConfig: google,
		CookieKey:    cookieKey,
		CookieSecure: cookieSecure,
	}
}

func (ac *AuthController) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ac.CookieKey, token, int(ac.Users.TokenExpiry().Seconds()), "/", "", ac.CookieSecure, true)
}

func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	user, err := ac.Users.Register(c.Request.Context(), input)
	if errors.Is(err, services.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered", "success": false})
		return
	}
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	log.Info().Str("user", user.ID).Msg("user registered")
	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Message: "User registration successful",
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := ac.Users.Login(c.Request.Context(), input)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	ac.setSession(c, token)
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// GoogleLogin signs in with a Google ID token or an authorization code.
func (ac *AuthController) GoogleLogin(c *gin.Context) {
	if ac.GoogleConfig == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	var input struct {
		IDToken string `json:"idToken"`
		Code    string `json:"code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || (input.IDToken == "" && input.Code == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idToken or code is required"})
		return
	}

	var (
		info *config.GoogleUserInfo
		err  error
	)
	if input.IDToken != "" {
		info, err = ac.GoogleConfig.VerifyIDToken(c.Request.Context(), input.IDToken)
	} else {
		info, err = ac.GoogleConfig.ExchangeCode(c.Request.Context(), input.Code)
	}
	if err != nil {
		log.Warn().Err(err).Msg("google sign-in rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google credentials"})
		return
	}

	user, token, err := ac.Users.GoogleSignIn(c.Request.Context(), services.GoogleProfile{
		ID:            info.ID,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Name:          info.Name,
		Picture:       info.Picture,
	})
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google credentials"})
		return
	}
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	ac.setSession(c, token)
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (ac *AuthController) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ac.CookieKey, "", -1, "/", "", ac.CookieSecure, true)
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "Logged out"})
}

func (ac *AuthController) Me(c *gin.Context) {
	user := utils.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
