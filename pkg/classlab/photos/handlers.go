package photos

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/query"
)

// Handler handles photo-related requests
type Handler struct {
	db  *gorm.DB
	svc *Service
}

// NewHandler creates a new photos handler
func NewHandler(db *gorm.DB, svc *Service) *Handler {
	return &Handler{db: db, svc: svc}
}

// SizeResponse is one rendition in API responses
type SizeResponse struct {
	Src    string `json:"src"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// PhotoResponse represents a photo in API responses
type PhotoResponse struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Owner     string        `json:"owner"`
	URL       string        `json:"url"`
	Color     string        `json:"color,omitempty"`
	Thumbnail *SizeResponse `json:"thumbnail,omitempty"`
	Small     *SizeResponse `json:"small,omitempty"`
	Medium    *SizeResponse `json:"medium,omitempty"`
	Large     *SizeResponse `json:"large,omitempty"`
}

func sizeToResponse(size models.PhotoSize) *SizeResponse {
	if size.Src == "" {
		return nil
	}
	return &SizeResponse{Src: size.Src, Width: size.Width, Height: size.Height}
}

// PhotoToResponse serializes a photo, omitting absent renditions
func PhotoToResponse(photo models.Photo) PhotoResponse {
	return PhotoResponse{
		ID:        photo.ID,
		Title:     photo.Title,
		Owner:     photo.Owner,
		URL:       photo.URL,
		Color:     photo.Color,
		Thumbnail: sizeToResponse(photo.Thumbnail),
		Small:     sizeToResponse(photo.Small),
		Medium:    sizeToResponse(photo.Medium),
		Large:     sizeToResponse(photo.Large),
	}
}

// List searches the photo provider when q is given, otherwise lists
// stored photos.
func (h *Handler) List(c *gin.Context) {
	q := query.ParseList(c)

	if q.Q != "" {
		candidates, err := h.svc.Search(c.Request.Context(), q.Q, q.Limit, q.Page)
		if err != nil {
			log.Warn().Err(err).Str("query", q.Q).Msg("photo search failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Photo search failed"})
			return
		}
		responses := make([]PhotoResponse, len(candidates))
		for i, photo := range candidates {
			responses[i] = PhotoToResponse(photo)
		}
		c.JSON(http.StatusOK, responses)
		return
	}

	var photos []models.Photo
	db := q.Apply(h.db.Model(&models.Photo{}), map[string]string{"title": "title", "created_at": "created_at"})
	if err := db.Find(&photos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch photos"})
		return
	}

	responses := make([]PhotoResponse, len(photos))
	for i, photo := range photos {
		responses[i] = PhotoToResponse(photo)
	}
	c.JSON(http.StatusOK, responses)
}

// Get returns a single stored photo
func (h *Handler) Get(c *gin.Context) {
	var photo models.Photo
	if err := h.db.First(&photo, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
		return
	}
	c.JSON(http.StatusOK, PhotoToResponse(photo))
}

// Delete removes a photo, unsetting it on referencing challenges
func (h *Handler) Delete(c *gin.Context) {
	var photo models.Photo
	if err := h.db.First(&photo, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
		return
	}

	if err := h.svc.Delete(&photo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete photo"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers photo routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/photos", h.List)
	rg.GET("/photos/:id", h.Get)
	rg.DELETE("/photos/:id", auth.RequireAdmin(), h.Delete)
}
