package sessions

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/users"
)

// Handler handles login and logout
type Handler struct {
	db      *gorm.DB
	userSvc *users.Service
}

// NewHandler creates a new sessions handler
func NewHandler(db *gorm.DB, userSvc *users.Service) *Handler {
	return &Handler{db: db, userSvc: userSvc}
}

// LoginRequest represents the request to open a session
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token and the signed-in user
type LoginResponse struct {
	Token string             `json:"token"`
	User  users.UserResponse `json:"user"`
}

// Create verifies credentials and issues a token bound to a new
// session row. Deleting the row later invalidates the token.
func (h *Handler) Create(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "email = ?", models.NormalizeEmail(req.Email)).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	session := models.Session{ID: uuid.NewString(), UserID: user.ID}
	if err := h.db.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	token, err := auth.GenerateToken(session.ID, user.ID, user.Email, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{Token: token, User: users.UserToResponse(user)})
}

// CreateFromFacebook opens a session from a Facebook access token,
// creating or refreshing the account behind the profile's email
func (h *Handler) CreateFromFacebook(c *gin.Context) {
	var req users.OAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing access_token"})
		return
	}

	user, err := h.userSvc.CreateFromToken(c.Request.Context(), req.AccessToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
		return
	}

	session := models.Session{ID: uuid.NewString(), UserID: user.ID}
	if err := h.db.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	token, err := auth.GenerateToken(session.ID, user.ID, user.Email, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{Token: token, User: users.UserToResponse(*user)})
}

// Delete revokes the current session
func (h *Handler) Delete(c *gin.Context) {
	sessionID, _ := auth.GetSessionID(c)
	if err := h.db.Delete(&models.Session{}, "id = ?", sessionID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke session"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterPublicRoutes registers the login routes
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.Create)
	rg.POST("/sessions/facebook", h.CreateFromFacebook)
}

// RegisterRoutes registers the authenticated logout route
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/sessions", h.Delete)
}
