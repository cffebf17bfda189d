package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/query"
)

// Handler handles user-related requests
type Handler struct {
	db  *gorm.DB
	svc *Service
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB, svc *Service) *Handler {
	return &Handler{db: db, svc: svc}
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// UpdateUserRequest represents the request to update a user
type UpdateUserRequest struct {
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
	Role    *string `json:"role"`
}

// OAuthRequest carries the access token of an external login
type OAuthRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

// UpdatePasswordRequest represents the request to change a password
type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Picture   string `json:"picture,omitempty"`
	CreatedAt string `json:"created_at"`
}

// UserToResponse converts a user model to a response
func UserToResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		Picture:   user.Picture,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

var userSortable = map[string]string{
	"email":      "email",
	"name":       "name",
	"created_at": "created_at",
}

// List returns all users (admin only)
func (h *Handler) List(c *gin.Context) {
	q := query.ParseList(c)

	db := h.db.Model(&models.User{})
	db = q.Search(db, "email", "name")
	db = q.Apply(db, userSortable)

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = UserToResponse(user)
	}
	c.JSON(http.StatusOK, responses)
}

// Get returns a single user
func (h *Handler) Get(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, UserToResponse(user))
}

// Me returns the authenticated user
func (h *Handler) Me(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, UserToResponse(user))
}

// Create registers a new account. Open endpoint.
func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Picture:      req.Picture,
	}
	user.Normalize()

	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	c.JSON(http.StatusCreated, UserToResponse(user))
}

// CreateFromFacebook signs a user up (or refreshes their profile)
// from a Facebook access token. Open endpoint.
func (h *Handler) CreateFromFacebook(c *gin.Context) {
	var req OAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing access_token"})
		return
	}

	user, err := h.svc.CreateFromToken(c.Request.Context(), req.AccessToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid access token"})
		return
	}

	c.JSON(http.StatusCreated, UserToResponse(*user))
}

// Update modifies a user's profile (self or admin). Role changes are
// admin only.
func (h *Handler) Update(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !auth.CanMutate(c, &user.ID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not your account"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Picture != nil {
		user.Picture = *req.Picture
	}
	if req.Role != nil {
		if !auth.IsAdmin(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Only admins can change roles"})
			return
		}
		role := models.Role(*req.Role)
		if role != models.RoleUser && role != models.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		user.Role = role
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, UserToResponse(user))
}

// UpdatePassword changes a user's password (self or admin)
func (h *Handler) UpdatePassword(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !auth.CanMutate(c, &user.ID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not your account"})
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := h.db.Model(&user).UpdateColumn("password_hash", hash).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// Delete removes a user and detaches their content (admin only)
func (h *Handler) Delete(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.svc.Delete(&user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers authenticated user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", auth.RequireAdmin(), h.List)
	rg.GET("/users/me", h.Me)
	rg.GET("/users/:id", h.Get)
	rg.PUT("/users/:id", h.Update)
	rg.PUT("/users/:id/password", h.UpdatePassword)
	rg.DELETE("/users/:id", auth.RequireAdmin(), h.Delete)
}

// RegisterPublicRoutes registers the open signup routes
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/users", h.Create)
	rg.POST("/users/facebook", h.CreateFromFacebook)
}
