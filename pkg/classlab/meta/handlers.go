package meta

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler exposes the metadata scraper over HTTP
type Handler struct {
	scraper *Scraper
}

// NewHandler creates a new meta handler
func NewHandler(scraper *Scraper) *Handler {
	return &Handler{scraper: scraper}
}

// Get scrapes the metadata of the URL in the query string
func (h *Handler) Get(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter required"})
		return
	}

	page, err := h.scraper.Fetch(c.Request.Context(), url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("metadata fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch metadata"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// RegisterRoutes registers meta routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/meta", h.Get)
}
