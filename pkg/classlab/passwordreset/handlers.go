package passwordreset

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/users"
)

// Mailer delivers the reset message
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Handler handles the password reset flow
type Handler struct {
	db      *gorm.DB
	mailer  Mailer
	baseURL string
}

// NewHandler creates a new password reset handler. baseURL is the
// frontend origin the mailed link points at.
func NewHandler(db *gorm.DB, mailer Mailer, baseURL string) *Handler {
	return &Handler{db: db, mailer: mailer, baseURL: baseURL}
}

// CreateResetRequest represents the request to start a reset
type CreateResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// SetPasswordRequest represents the request to finish a reset
type SetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// Create issues a single-use token and mails it to the account owner.
// An unknown address gets the same response as a known one.
func (h *Handler) Create(c *gin.Context) {
	var req CreateResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "email = ?", models.NormalizeEmail(req.Email)).Error; err != nil {
		c.JSON(http.StatusAccepted, gin.H{"message": "Reset mail sent"})
		return
	}

	reset := models.PasswordReset{Token: uuid.NewString(), UserID: user.ID}
	if err := h.db.Create(&reset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reset token"})
		return
	}

	if h.mailer != nil {
		link := fmt.Sprintf("%s/reset/%s", h.baseURL, reset.Token)
		html := fmt.Sprintf("<p>Hi %s,</p><p>Follow <a href=%q>this link</a> to choose a new password.</p>", user.Name, link)
		if err := h.mailer.Send(c.Request.Context(), user.Email, "Reset your password", html); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("reset mail delivery failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send reset mail"})
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Reset mail sent"})
}

// Get shows which account a token belongs to
func (h *Handler) Get(c *gin.Context) {
	var reset models.PasswordReset
	if err := h.db.Preload("User").First(&reset, "token = ?", c.Param("token")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reset token not found"})
		return
	}
	c.JSON(http.StatusOK, users.UserToResponse(reset.User))
}

// Update sets a new password and consumes the token
func (h *Handler) Update(c *gin.Context) {
	var reset models.PasswordReset
	if err := h.db.First(&reset, "token = ?", c.Param("token")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reset token not found"})
		return
	}

	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			UpdateColumn("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Delete(&reset).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// RegisterPublicRoutes registers the reset flow, all unauthenticated
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/password-resets", h.Create)
	rg.GET("/password-resets/:token", h.Get)
	rg.PUT("/password-resets/:token", h.Update)
}
