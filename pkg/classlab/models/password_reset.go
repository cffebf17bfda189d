package models

import "time"

// PasswordReset is a single-use token mailed to a user who forgot
// their password. Consumed when the password is changed, cascaded away
// when the user is deleted.
type PasswordReset struct {
	Token     string    `gorm:"primarykey" json:"token"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
