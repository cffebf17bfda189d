package challenges

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/photos"
	"github.com/classlab/classlab/pkg/classlab/query"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Handler handles challenge-related requests
type Handler struct {
	db  *gorm.DB
	svc *Service
}

// NewHandler creates a new challenges handler
func NewHandler(db *gorm.DB, svc *Service) *Handler {
	return &Handler{db: db, svc: svc}
}

// CreateChallengeRequest represents the request to create a challenge
type CreateChallengeRequest struct {
	Title             string  `json:"title" binding:"required,max=96"`
	BigIdea           string  `json:"big_idea" binding:"omitempty,max=48"`
	EssentialQuestion string  `json:"essential_question" binding:"omitempty,max=96"`
	Description       string  `json:"description" binding:"omitempty,max=2048"`
	Photo             *string `json:"photo"`
}

// UpdateChallengeRequest represents the request to update a challenge.
// User and Photo distinguish an explicit null from an absent field.
type UpdateChallengeRequest struct {
	Title             *string              `json:"title" binding:"omitempty,max=96"`
	BigIdea           *string              `json:"big_idea" binding:"omitempty,max=48"`
	EssentialQuestion *string              `json:"essential_question" binding:"omitempty,max=96"`
	Description       *string              `json:"description" binding:"omitempty,max=2048"`
	User              query.OptionalID     `json:"user"`
	Photo             query.OptionalString `json:"photo"`
}

// UserView is the short user projection nested in challenge responses
type UserView struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// TagView is the tag projection nested in challenge responses
type TagView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GuideView is the short guide projection nested in challenge responses
type GuideView struct {
	ID    uint   `json:"id"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

// ChallengeResponse represents a challenge in API responses. The
// description only appears in the full view; relations are omitted
// when not loaded.
type ChallengeResponse struct {
	ID                uint                  `json:"id"`
	Title             string                `json:"title"`
	BigIdea           string                `json:"big_idea,omitempty"`
	EssentialQuestion string                `json:"essential_question,omitempty"`
	Description       string                `json:"description,omitempty"`
	CreatedAt         string                `json:"created_at"`
	UpdatedAt         string                `json:"updated_at"`
	User              *UserView             `json:"user,omitempty"`
	Users             []UserView            `json:"users,omitempty"`
	Photo             *photos.PhotoResponse `json:"photo,omitempty"`
	Tags              []TagView             `json:"tags,omitempty"`
	Guides            []GuideView           `json:"guides,omitempty"`
}

func userToView(user *models.User) *UserView {
	if user == nil {
		return nil
	}
	return &UserView{ID: user.ID, Name: user.Name, Picture: user.Picture}
}

func challengeToResponse(ch models.Challenge, full bool) ChallengeResponse {
	resp := ChallengeResponse{
		ID:                ch.ID,
		Title:             ch.Title,
		BigIdea:           ch.BigIdea,
		EssentialQuestion: ch.EssentialQuestion,
		CreatedAt:         ch.CreatedAt.Format(timeLayout),
		UpdatedAt:         ch.UpdatedAt.Format(timeLayout),
		User:              userToView(ch.User),
	}
	if full {
		resp.Description = ch.Description
	}
	for _, user := range ch.Users {
		resp.Users = append(resp.Users, *userToView(&user))
	}
	if ch.Photo != nil {
		photoResp := photos.PhotoToResponse(*ch.Photo)
		resp.Photo = &photoResp
	}
	for _, tag := range ch.Tags {
		resp.Tags = append(resp.Tags, TagView{ID: tag.ID, Name: tag.Name, Count: tag.Count})
	}
	for _, g := range ch.Guides {
		resp.Guides = append(resp.Guides, GuideView{ID: g.ID, Kind: string(g.Kind), Title: g.Title})
	}
	return resp
}

var challengeSortable = map[string]string{
	"title":      "title",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func (h *Handler) preloaded() *gorm.DB {
	return h.db.Model(&models.Challenge{}).
		Preload("User").Preload("Users").Preload("Photo").Preload("Tags").Preload("Guides")
}

// List returns challenges in the short view
func (h *Handler) List(c *gin.Context) {
	q := query.ParseList(c)

	db := h.preloaded()
	if user := c.Query("user"); user != "" {
		db = db.Where("user_id = ?", user)
	}
	db = q.Search(db, "title", "big_idea", "essential_question", "description")
	db = q.Apply(db, challengeSortable)
	if q.Sort == "" {
		db = db.Order("created_at DESC")
	}

	var list []models.Challenge
	if err := db.Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch challenges"})
		return
	}

	responses := make([]ChallengeResponse, len(list))
	for i, ch := range list {
		responses[i] = challengeToResponse(ch, false)
	}
	c.JSON(http.StatusOK, responses)
}

func (h *Handler) show(c *gin.Context, id uint, status int) {
	var ch models.Challenge
	if err := h.preloaded().First(&ch, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		return
	}
	c.JSON(status, challengeToResponse(ch, true))
}

// Get returns a single challenge in the full view
func (h *Handler) Get(c *gin.Context) {
	id, ok := query.ParseUintParam(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge ID"})
		return
	}
	h.show(c, id, http.StatusOK)
}

// Create creates a challenge owned by the authenticated user
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch := models.Challenge{
		Title:             req.Title,
		BigIdea:           req.BigIdea,
		EssentialQuestion: req.EssentialQuestion,
		Description:       req.Description,
		UserID:            &userID,
		PhotoID:           req.Photo,
	}

	if req.Photo != nil {
		var photo models.Photo
		if err := h.db.First(&photo, "id = ?", *req.Photo).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
			return
		}
	}

	if err := h.svc.Create(c.Request.Context(), &ch); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create challenge: " + err.Error()})
		return
	}

	h.show(c, ch.ID, http.StatusCreated)
}

// Update modifies a challenge (owner or admin)
func (h *Handler) Update(c *gin.Context) {
	var ch models.Challenge
	if err := h.db.First(&ch, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		return
	}

	if !auth.CanMutate(c, ch.UserID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not the challenge owner"})
		return
	}

	var req UpdateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	retagNeeded := false
	apply := func(dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			retagNeeded = true
		}
	}
	apply(&ch.Title, req.Title)
	apply(&ch.BigIdea, req.BigIdea)
	apply(&ch.EssentialQuestion, req.EssentialQuestion)
	apply(&ch.Description, req.Description)

	var newOwner **uint
	if req.User.Present {
		newOwner = &req.User.Value
	}

	photoChanged := false
	if req.Photo.Present {
		if req.Photo.Value != nil {
			var photo models.Photo
			if err := h.db.First(&photo, "id = ?", *req.Photo.Value).Error; err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
				return
			}
			photoChanged = ch.PhotoID == nil || *ch.PhotoID != *req.Photo.Value
		}
		ch.PhotoID = req.Photo.Value
	}

	if err := h.svc.Update(c.Request.Context(), &ch, retagNeeded, newOwner, photoChanged); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update challenge: " + err.Error()})
		return
	}

	h.show(c, ch.ID, http.StatusOK)
}

// Delete removes a challenge, decoupling (not deleting) its guides
func (h *Handler) Delete(c *gin.Context) {
	var ch models.Challenge
	if err := h.db.First(&ch, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		return
	}

	if !auth.CanMutate(c, ch.UserID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not the challenge owner"})
		return
	}

	if err := h.svc.Delete(&ch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete challenge"})
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers challenge routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/challenges", h.List)
	rg.POST("/challenges", h.Create)
	rg.GET("/challenges/:id", h.Get)
	rg.PUT("/challenges/:id", h.Update)
	rg.DELETE("/challenges/:id", h.Delete)
}
