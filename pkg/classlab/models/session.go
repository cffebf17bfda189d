package models

import "time"

// Session is a revocable bearer credential bound to one user. The ID is
// carried as the jti claim of issued JWTs; deleting the row invalidates
// the token.
type Session struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
