package challenges

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/photos"
	"github.com/classlab/classlab/pkg/classlab/tags"
)

// Service owns the challenge aggregate: ownership bookkeeping,
// auto-tagging, photo attachment with color extraction, and the
// decoupling cascade on removal.
type Service struct {
	db       *gorm.DB
	registry *tags.Registry
	photos   *photos.Service
}

// NewService creates a challenge service
func NewService(db *gorm.DB, registry *tags.Registry, photoSvc *photos.Service) *Service {
	return &Service{db: db, registry: registry, photos: photoSvc}
}

// SetOwner reassigns the challenge owner and keeps the users set in
// step: the previous owner is pulled, the new one union-added. Fires
// on every assignment, the first one included; assigning nil leaves
// the challenge ownerless with the prior owner pulled.
func (s *Service) SetOwner(tx *gorm.DB, ch *models.Challenge, userID *uint) error {
	if ch.UserID != nil && (userID == nil || *userID != *ch.UserID) {
		err := tx.Where("challenge_id = ? AND user_id = ?", ch.ID, *ch.UserID).
			Delete(&models.ChallengeUser{}).Error
		if err != nil {
			return err
		}
	}
	if userID != nil {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ChallengeUser{ChallengeID: ch.ID, UserID: *userID}).Error
		if err != nil {
			return err
		}
	}
	ch.UserID = userID
	return tx.Model(ch).UpdateColumn("user_id", userID).Error
}

// Create persists a new challenge. Tags are extracted from the four
// taggable paths; when no photo was supplied one is fetched from the
// photo provider by title, and a newly attached photo gets its color
// sampled. External failures abort the create.
func (s *Service) Create(ctx context.Context, ch *models.Challenge) error {
	owner := ch.UserID
	ch.UserID = nil

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(ch).Error; err != nil {
			return err
		}
		if err := s.SetOwner(tx, ch, owner); err != nil {
			return err
		}
		if err := s.retag(ctx, tx, ch); err != nil {
			return err
		}

		if ch.PhotoID == nil {
			if err := s.autoPhoto(ctx, tx, ch); err != nil {
				return err
			}
		}
		return s.pickColor(ctx, tx, ch)
	})
}

// Update persists scalar changes on a loaded challenge. retagNeeded
// must be true when a taggable path actually changed; ownerChange and
// photoChange flag the respective side effects.
func (s *Service) Update(ctx context.Context, ch *models.Challenge, retagNeeded bool, newOwner **uint, photoChanged bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(ch).Error; err != nil {
			return err
		}
		if newOwner != nil {
			if err := s.SetOwner(tx, ch, *newOwner); err != nil {
				return err
			}
		}
		if retagNeeded {
			if err := s.retag(ctx, tx, ch); err != nil {
				return err
			}
		}
		if photoChanged {
			if err := s.pickColor(ctx, tx, ch); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a challenge. Its guides are decoupled, not deleted:
// their challenge reference is unset in one bulk statement. Tag and
// owner adjacency rows go with the challenge.
func (s *Service) Delete(ch *models.Challenge) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Guide{}).
			Where("challenge_id = ?", ch.ID).
			UpdateColumn("challenge_id", nil).Error
		if err != nil {
			return err
		}
		if err := tx.Where("challenge_id = ?", ch.ID).Delete(&models.ChallengeTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("challenge_id = ?", ch.ID).Delete(&models.ChallengeUser{}).Error; err != nil {
			return err
		}
		return tx.Delete(ch).Error
	})
}

// retag runs the decrement-recompute-increment cycle and replaces the
// challenge's tag adjacency rows.
func (s *Service) retag(ctx context.Context, tx *gorm.DB, ch *models.Challenge) error {
	var current []models.Tag
	err := tx.Model(&models.Tag{}).
		Joins("JOIN challenge_tags ON challenge_tags.tag_id = tags.id AND challenge_tags.challenge_id = ?", ch.ID).
		Find(&current).Error
	if err != nil {
		return err
	}

	fresh, err := s.registry.Assign(ctx, tx, current, ch.TaggableText())
	if err != nil {
		return err
	}

	if err := tx.Where("challenge_id = ?", ch.ID).Delete(&models.ChallengeTag{}).Error; err != nil {
		return err
	}
	if len(fresh) > 0 {
		rows := make([]models.ChallengeTag, len(fresh))
		for i, tag := range fresh {
			rows[i] = models.ChallengeTag{ChallengeID: ch.ID, TagID: tag.ID}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	ch.Tags = fresh
	return nil
}

// autoPhoto fetches a representative photo for the challenge title and
// attaches it. No candidates is not an error; a provider failure is.
func (s *Service) autoPhoto(ctx context.Context, tx *gorm.DB, ch *models.Challenge) error {
	candidates, err := s.photos.Search(ctx, ch.Title, 1, 1)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}

	photo := candidates[0]
	if err := s.photos.Import(tx, &photo); err != nil {
		return err
	}
	ch.PhotoID = &photo.ID
	ch.Photo = &photo
	return tx.Model(ch).UpdateColumn("photo_id", photo.ID).Error
}

// pickColor samples the attached photo's thumbnail and persists the
// color onto the photo row. Awaited, not fire-and-forget: a sampler
// failure fails the surrounding save.
func (s *Service) pickColor(ctx context.Context, tx *gorm.DB, ch *models.Challenge) error {
	if ch.PhotoID == nil {
		return nil
	}
	var photo models.Photo
	if err := tx.First(&photo, "id = ?", *ch.PhotoID).Error; err != nil {
		return err
	}
	if err := s.photos.PickColor(ctx, tx, &photo); err != nil {
		return err
	}
	ch.Photo = &photo
	return nil
}
