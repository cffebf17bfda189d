package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a system-wide user role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AnonymousEmail is the sentinel clients may send instead of a real
// address; it is replaced with a random placeholder on normalization.
const AnonymousEmail = "anonymous"

// User represents an account on the platform
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `json:"name"`
	Role         Role      `gorm:"default:user" json:"role"`
	Picture      string    `json:"picture"`
}

// NormalizeEmail lowercases and trims an address, replacing the
// anonymous sentinel with a random placeholder.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == AnonymousEmail {
		return strings.ReplaceAll(uuid.NewString(), "-", "") + "@anonymous.com"
	}
	return email
}

// Normalize fills derived fields: name from the email local part and a
// gravatar picture URL from the email hash, when either is blank.
func (u *User) Normalize() {
	u.Email = NormalizeEmail(u.Email)
	if u.Name == "" {
		u.Name = strings.SplitN(u.Email, "@", 2)[0]
	}
	if u.Picture == "" {
		hash := md5.Sum([]byte(u.Email))
		u.Picture = "https://gravatar.com/avatar/" + hex.EncodeToString(hash[:]) + "?d=identicon"
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
