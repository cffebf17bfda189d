package photos

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classlab/classlab/pkg/classlab/flickr"
	"github.com/classlab/classlab/pkg/classlab/models"
)

// Searcher finds photo candidates for a text query
type Searcher interface {
	Search(ctx context.Context, text string, limit, page int) ([]flickr.Photo, error)
}

// ColorSampler picks a representative color from an image URL
type ColorSampler interface {
	Sample(ctx context.Context, imageURL string) (string, error)
}

// Service manages externally sourced photos: search, idempotent import
// and reference cleanup.
type Service struct {
	db       *gorm.DB
	searcher Searcher
	sampler  ColorSampler
}

// NewService creates a photo service. searcher and sampler may be nil,
// which disables search and color picking respectively.
func NewService(db *gorm.DB, searcher Searcher, sampler ColorSampler) *Service {
	return &Service{db: db, searcher: searcher, sampler: sampler}
}

var sizeLetters = []byte{'t', 's', 'm', 'l'}

// TranslateFromFlickr maps a Flickr search result onto the Photo
// shape. The external id is kept as the primary key so re-importing
// the same photo is idempotent. A missing rendition falls back to the
// nearest smaller one that exists.
func TranslateFromFlickr(p flickr.Photo) models.Photo {
	photo := models.Photo{
		ID:    p.ID,
		Owner: p.OwnerName,
		URL:   fmt.Sprintf("https://www.flickr.com/photos/%s/%s", p.Owner, p.ID),
		Title: p.Title,
	}

	var sizes [4]models.PhotoSize
	for i, letter := range sizeLetters {
		src, width, height, ok := p.Size(letter)
		if !ok && i > 0 {
			sizes[i] = sizes[i-1]
			continue
		}
		sizes[i] = models.PhotoSize{Src: src, Width: width, Height: height}
	}
	photo.Thumbnail, photo.Small, photo.Medium, photo.Large = sizes[0], sizes[1], sizes[2], sizes[3]
	return photo
}

// Search queries the photo provider and translates the results. A nil
// searcher yields no candidates.
func (s *Service) Search(ctx context.Context, text string, limit, page int) ([]models.Photo, error) {
	if s.searcher == nil {
		return nil, nil
	}
	results, err := s.searcher.Search(ctx, text, limit, page)
	if err != nil {
		return nil, err
	}
	photos := make([]models.Photo, len(results))
	for i, result := range results {
		photos[i] = TranslateFromFlickr(result)
	}
	return photos, nil
}

// Import upserts a photo keyed on its external id. Importing the same
// id twice merges the incoming fields into the existing row instead of
// creating a duplicate; a previously picked color survives.
func (s *Service) Import(tx *gorm.DB, photo *models.Photo) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"owner", "url", "title",
			"thumbnail_src", "thumbnail_width", "thumbnail_height",
			"small_src", "small_width", "small_height",
			"medium_src", "medium_width", "medium_height",
			"large_src", "large_width", "large_height",
			"updated_at",
		}),
	}).Create(photo).Error
}

// PickColor samples the photo's thumbnail down to one pixel and
// persists the resulting color onto the photo row. Called after a
// photo is newly attached to a challenge; the error propagates to the
// triggering save.
func (s *Service) PickColor(ctx context.Context, tx *gorm.DB, photo *models.Photo) error {
	if s.sampler == nil || photo.Thumbnail.Src == "" {
		return nil
	}
	color, err := s.sampler.Sample(ctx, photo.Thumbnail.Src)
	if err != nil {
		return err
	}
	photo.Color = color
	return tx.Model(photo).UpdateColumn("color", color).Error
}

// Delete removes a photo and unsets the reference on every challenge
// pointing at it.
func (s *Service) Delete(photo *models.Photo) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Challenge{}).
			Where("photo_id = ?", photo.ID).
			UpdateColumn("photo_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(photo).Error
	})
}
