package models

import "gorm.io/gorm"

// AllModels returns all models for migration.
// Join tables come last so their foreign key targets exist first.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&PasswordReset{},
		&Tag{},
		&Photo{},
		&Challenge{},
		&Guide{},
		&ChallengeUser{},
		&ChallengeTag{},
		&GuideTag{},
		&GuideLink{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
