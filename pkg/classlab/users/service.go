package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/facebook"
	"github.com/classlab/classlab/pkg/classlab/models"
)

// ProfileFetcher resolves an OAuth access token to a user profile
type ProfileFetcher interface {
	Me(ctx context.Context, accessToken string) (*facebook.Profile, error)
}

// Service owns user lifecycle operations that touch other tables or
// external services
type Service struct {
	db      *gorm.DB
	fetcher ProfileFetcher
}

// NewService creates a new users service
func NewService(db *gorm.DB, fetcher ProfileFetcher) *Service {
	return &Service{db: db, fetcher: fetcher}
}

// CreateFromToken resolves an OAuth access token to a profile and
// creates or updates the account behind its email. An existing
// account keeps its password; a new one gets a random password so it
// can only be entered through OAuth until a reset.
func (s *Service) CreateFromToken(ctx context.Context, accessToken string) (*models.User, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("oauth login not configured")
	}

	profile, err := s.fetcher.Me(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	var user models.User
	err = s.db.First(&user, "email = ?", models.NormalizeEmail(profile.Email)).Error
	switch {
	case err == nil:
		user.Name = profile.Name
		user.Picture = profile.Picture
		if err := s.db.Save(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := auth.HashPassword(uuid.NewString())
		if err != nil {
			return nil, err
		}
		user = models.User{
			Email:        profile.Email,
			PasswordHash: hash,
			Name:         profile.Name,
			Picture:      profile.Picture,
		}
		user.Normalize()
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	default:
		return nil, err
	}
}

// Delete removes a user and every reference to them: sessions and
// reset tokens go away, owned challenges and guides are kept but
// detached, audit rows are pruned.
func (s *Service) Delete(user *models.User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Challenge{}).Where("user_id = ?", user.ID).
			UpdateColumn("user_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.ChallengeUser{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Guide{}).Where("user_id = ?", user.ID).
			UpdateColumn("user_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}
