package tags

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/query"
)

// Handler handles tag-related requests
type Handler struct {
	db       *gorm.DB
	registry *Registry
}

// NewHandler creates a new tags handler
func NewHandler(db *gorm.DB, registry *Registry) *Handler {
	return &Handler{db: db, registry: registry}
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CreateTagRequest represents the request to create a tag
type CreateTagRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateTagRequest represents the request to rename a tag
type UpdateTagRequest struct {
	Name string `json:"name" binding:"required"`
}

func tagToResponse(tag models.Tag) TagResponse {
	return TagResponse{ID: tag.ID, Name: tag.Name, Count: tag.Count}
}

var tagSortable = map[string]string{
	"name":  "name",
	"count": "count",
}

// List returns tags, most used first by default
func (h *Handler) List(c *gin.Context) {
	q := query.ParseList(c)

	db := q.Search(h.db.Model(&models.Tag{}), "name")
	db = q.Apply(db, tagSortable)
	if q.Sort == "" {
		db = db.Order("count DESC")
	}

	var tags []models.Tag
	if err := db.Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	responses := make([]TagResponse, len(tags))
	for i, tag := range tags {
		responses[i] = tagToResponse(tag)
	}
	c.JSON(http.StatusOK, responses)
}

// Get returns a single tag
func (h *Handler) Get(c *gin.Context) {
	var tag models.Tag
	if err := h.db.First(&tag, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}
	c.JSON(http.StatusOK, tagToResponse(tag))
}

// Create creates a tag explicitly (admin). Creating a name that already
// exists resolves to the existing tag rather than failing.
func (h *Handler) Create(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tags, err := h.registry.GetOrCreate(h.db, []string{req.Name})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}
	if len(tags) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tag name must not be blank"})
		return
	}

	c.JSON(http.StatusCreated, tagToResponse(tags[0]))
}

// Update renames a tag (admin)
func (h *Handler) Update(c *gin.Context) {
	var tag models.Tag
	if err := h.db.First(&tag, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	var req UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	normalized := Normalize([]string{req.Name})
	if len(normalized) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tag name must not be blank"})
		return
	}

	tag.Name = normalized[0]
	if err := h.db.Save(&tag).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Tag name already exists"})
		return
	}
	c.JSON(http.StatusOK, tagToResponse(tag))
}

// Delete removes a tag and strips it from every challenge and guide
func (h *Handler) Delete(c *gin.Context) {
	var tag models.Tag
	if err := h.db.First(&tag, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		return h.registry.Remove(tx, &tag)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers tag routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.List)
	rg.GET("/tags/:id", h.Get)
	rg.POST("/tags", auth.RequireAdmin(), h.Create)
	rg.PUT("/tags/:id", auth.RequireAdmin(), h.Update)
	rg.DELETE("/tags/:id", auth.RequireAdmin(), h.Delete)
}
