package guides

import (
	"time"

	"github.com/classlab/classlab/pkg/classlab/models"
)

const timeLayout = "2006-01-02T15:04:05Z"

// UserView is the short user projection nested in guide responses
type UserView struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// TagView is the tag projection nested in guide responses
type TagView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ChallengeView is the short challenge projection nested in guide
// responses; the full challenge document lives under /challenges.
type ChallengeView struct {
	ID                uint   `json:"id"`
	Title             string `json:"title"`
	BigIdea           string `json:"big_idea,omitempty"`
	EssentialQuestion string `json:"essential_question,omitempty"`
}

// GuideResponse represents a guide in API responses. Relations are
// omitted when they were not loaded, so callers control the shape by
// choosing what to populate.
type GuideResponse struct {
	ID          uint   `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`

	Date      string `json:"date,omitempty"`
	URL       string `json:"url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Image     string `json:"image,omitempty"`

	User      *UserView       `json:"user,omitempty"`
	Tags      []TagView       `json:"tags,omitempty"`
	Challenge *ChallengeView  `json:"challenge,omitempty"`
	Guides    []GuideResponse `json:"guides,omitempty"`
}

func userToView(user *models.User) *UserView {
	if user == nil {
		return nil
	}
	return &UserView{ID: user.ID, Name: user.Name, Picture: user.Picture}
}

func tagsToViews(tags []models.Tag) []TagView {
	if len(tags) == 0 {
		return nil
	}
	views := make([]TagView, len(tags))
	for i, tag := range tags {
		views[i] = TagView{ID: tag.ID, Name: tag.Name, Count: tag.Count}
	}
	return views
}

func challengeToView(ch *models.Challenge) *ChallengeView {
	if ch == nil {
		return nil
	}
	return &ChallengeView{
		ID:                ch.ID,
		Title:             ch.Title,
		BigIdea:           ch.BigIdea,
		EssentialQuestion: ch.EssentialQuestion,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}

// guideToResponse serializes a guide. The variant fields are surfaced
// per kind, matched exhaustively so a new kind cannot slip through
// unserialized.
func guideToResponse(g models.Guide, withPeers bool) GuideResponse {
	resp := GuideResponse{
		ID:          g.ID,
		Kind:        string(g.Kind),
		Title:       g.Title,
		Description: g.Description,
		CreatedAt:   g.CreatedAt.Format(timeLayout),
		UpdatedAt:   g.UpdatedAt.Format(timeLayout),
		User:        userToView(g.User),
		Tags:        tagsToViews(g.Tags),
		Challenge:   challengeToView(g.Challenge),
	}

	switch g.Kind {
	case models.KindQuestion:
		// no variant fields
	case models.KindActivity:
		resp.Date = formatDate(g.Date)
	case models.KindResource:
		resp.URL = g.URL
		resp.MediaType = g.MediaType
		resp.Image = g.Image
	}

	if withPeers && len(g.Guides) > 0 {
		resp.Guides = make([]GuideResponse, len(g.Guides))
		for i, peer := range g.Guides {
			resp.Guides[i] = guideToResponse(peer, false)
		}
	}
	return resp
}
