package controllers

import (
	"errors"
	"net/http"
	"strings"

	"autoparts-store/middlewares"
	"autoparts-store/models"
	"autoparts-store/notifier"
	"autoparts-store/repository"
	"autoparts-store/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct {
	Users     repository.UserRepository
	Hub       *notifier.Hub
	JWTSecret string
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates the credential and its profile row. New accounts always
// start as customers; role changes are an admin concern.
func (ctl *AuthController) Register(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("register", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user := &repository.User{
		Profile: models.Profile{
			ID:       uuid.NewString(),
			FullName: strings.TrimSpace(req.FullName),
			Role:     models.RoleCustomer,
		},
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashed),
	}
	if err := ctl.Users.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := utils.GenerateToken(ctl.JWTSecret, user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"profile": user.Profile, "token": token})
}

func (ctl *AuthController) Login(c *gin.Context) {
	defer func() {
		middlewares.RecordOperation("login", c.Writer.Status() >= 200 && c.Writer.Status() < 300)
	}()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ctl.Users.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(ctl.JWTSecret, user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": user.Profile, "token": token})
}

// Logout tears down the caller's notifier subscription. The token itself is
// stateless and simply expires.
func (ctl *AuthController) Logout(c *gin.Context) {
	ctl.Hub.Unsubscribe(c.GetString("userID"))
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// Me returns the caller's profile with the derived admin flag, and registers
// the notifier subscription for the session (one per user; re-registering
// replaces the previous one).
func (ctl *AuthController) Me(c *gin.Context) {
	profile, err := ctl.Users.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ctl.Hub.Subscribe(profile.ID, notifier.LogSink{})

	c.JSON(http.StatusOK, gin.H{"profile": profile, "is_admin": profile.IsAdmin()})
}
