package guides

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/query"
)

// Handler handles guide-related requests
type Handler struct {
	db  *gorm.DB
	svc *Service
}

// NewHandler creates a new guides handler
func NewHandler(db *gorm.DB, svc *Service) *Handler {
	return &Handler{db: db, svc: svc}
}

// CreateGuideRequest represents the request to create a guide
type CreateGuideRequest struct {
	Kind        string     `json:"kind" binding:"omitempty,oneof=question activity resource"`
	Title       string     `json:"title" binding:"required,max=96"`
	Description string     `json:"description" binding:"omitempty,max=2048"`
	Challenge   *uint      `json:"challenge"`
	Guides      []uint     `json:"guides"`
	Date        *time.Time `json:"date"`
	URL         string     `json:"url"`
	MediaType   string     `json:"media_type"`
	Image       string     `json:"image"`
}

// UpdateGuideRequest represents the request to update a guide. Pointer
// fields distinguish absent from empty; Challenge additionally
// distinguishes an explicit null (detach).
type UpdateGuideRequest struct {
	Title       *string          `json:"title" binding:"omitempty,max=96"`
	Description *string          `json:"description" binding:"omitempty,max=2048"`
	Challenge   query.OptionalID `json:"challenge"`
	Guides      *[]uint          `json:"guides"`
	Date        *time.Time       `json:"date"`
	URL         *string          `json:"url"`
	MediaType   *string          `json:"media_type"`
	Image       *string          `json:"image"`
}

var guideSortable = map[string]string{
	"title":      "title",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func (h *Handler) list(c *gin.Context, kind models.GuideKind) {
	q := query.ParseList(c)

	db := h.db.Model(&models.Guide{}).
		Preload("User").Preload("Tags").Preload("Challenge").Preload("Guides")

	if kind != "" {
		db = db.Where("kind = ?", kind)
	} else if t := c.Query("type"); t != "" {
		if !models.GuideKind(t).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid guide type"})
			return
		}
		db = db.Where("kind = ?", t)
	}
	if user := c.Query("user"); user != "" {
		db = db.Where("user_id = ?", user)
	}
	if challenge := c.Query("challenge"); challenge != "" {
		db = db.Where("challenge_id = ?", challenge)
	}
	if peer := c.Query("guide"); peer != "" {
		db = db.Joins("JOIN guide_links ON guide_links.guide_id = guides.id AND guide_links.peer_id = ?", peer)
	}

	db = q.Search(db, "title", "description")
	db = q.Apply(db, guideSortable)
	if q.Sort == "" {
		db = db.Order("created_at DESC")
	}

	var list []models.Guide
	if err := db.Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch guides"})
		return
	}

	responses := make([]GuideResponse, len(list))
	for i, g := range list {
		responses[i] = guideToResponse(g, true)
	}
	c.JSON(http.StatusOK, responses)
}

// List returns guides of every kind
func (h *Handler) List(c *gin.Context) { h.list(c, "") }

func (h *Handler) create(c *gin.Context, kind models.GuideKind) {
	userID, _ := auth.GetUserID(c)

	var req CreateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if kind == "" {
		kind = models.KindQuestion
		if req.Kind != "" {
			kind = models.GuideKind(req.Kind)
		}
	}

	g := models.Guide{
		Kind:        kind,
		Title:       req.Title,
		Description: req.Description,
		UserID:      &userID,
		ChallengeID: req.Challenge,
		Date:        req.Date,
		URL:         req.URL,
		MediaType:   req.MediaType,
		Image:       req.Image,
	}

	if req.Challenge != nil {
		var challenge models.Challenge
		if err := h.db.First(&challenge, *req.Challenge).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
			return
		}
	}

	if err := h.svc.Create(c.Request.Context(), &g, req.Guides); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create guide: " + err.Error()})
		return
	}

	h.show(c, g.ID, http.StatusCreated)
}

// Create creates a guide, defaulting to the question kind
func (h *Handler) Create(c *gin.Context) { h.create(c, "") }

func (h *Handler) show(c *gin.Context, id uint, status int) {
	var g models.Guide
	err := h.db.Preload("User").Preload("Tags").Preload("Challenge").Preload("Guides").
		First(&g, id).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}
	c.JSON(status, guideToResponse(g, true))
}

// Get returns a single guide with its relations populated
func (h *Handler) Get(c *gin.Context) {
	id, ok := query.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid guide ID"})
		return
	}
	h.show(c, id, http.StatusOK)
}

// Update modifies a guide (owner or admin)
func (h *Handler) Update(c *gin.Context) {
	var g models.Guide
	if err := h.db.First(&g, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}

	if !auth.CanMutate(c, g.UserID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not the guide owner"})
		return
	}

	var req UpdateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	retagNeeded := false
	if req.Title != nil && *req.Title != g.Title {
		g.Title = *req.Title
		retagNeeded = true
	}
	if req.Description != nil && *req.Description != g.Description {
		g.Description = *req.Description
		retagNeeded = true
	}
	if req.Challenge.Present {
		g.ChallengeID = req.Challenge.Value
	}
	if req.Date != nil {
		g.Date = req.Date
	}
	if req.URL != nil {
		g.URL = *req.URL
	}
	if req.MediaType != nil {
		g.MediaType = *req.MediaType
	}
	if req.Image != nil {
		g.Image = *req.Image
	}

	if err := h.svc.Update(c.Request.Context(), &g, retagNeeded, req.Guides); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update guide: " + err.Error()})
		return
	}

	h.show(c, g.ID, http.StatusOK)
}

// Delete removes a guide and every reference to it (owner or admin)
func (h *Handler) Delete(c *gin.Context) {
	var g models.Guide
	if err := h.db.First(&g, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}

	if !auth.CanMutate(c, g.UserID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not the guide owner"})
		return
	}

	if err := h.svc.Delete(&g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guide"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers guide routes, including the kind-scoped
// aliases /questions, /activities and /resources.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/guides", h.List)
	rg.POST("/guides", h.Create)
	rg.GET("/guides/:id", h.Get)
	rg.PUT("/guides/:id", h.Update)
	rg.DELETE("/guides/:id", h.Delete)

	kinds := map[string]models.GuideKind{
		"/questions":  models.KindQuestion,
		"/activities": models.KindActivity,
		"/resources":  models.KindResource,
	}
	for path, kind := range kinds {
		kind := kind
		rg.GET(path, func(c *gin.Context) { h.list(c, kind) })
		rg.POST(path, func(c *gin.Context) { h.create(c, kind) })
	}
}
