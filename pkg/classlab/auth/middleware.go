package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/models"
)

const (
	// ContextKeyUserID is the key for user ID in gin context
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the key for email in gin context
	ContextKeyEmail = "email"
	// ContextKeyRole is the key for the user role in gin context
	ContextKeyRole = "role"
	// ContextKeySessionID is the key for the session id in gin context
	ContextKeySessionID = "session_id"
)

// SessionMiddleware validates bearer JWTs and requires the backing
// session row to still exist, so logout and user deletion revoke
// outstanding tokens immediately.
func SessionMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			if err == ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		var session models.Session
		if err := db.First(&session, "id = ?", claims.ID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session revoked"})
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeySessionID, session.ID)

		c.Next()
	}
}

// RequireAdmin middleware checks if the user has the admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextKeyRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if role != string(models.RoleAdmin) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserID returns the user ID from the gin context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetRole returns the user role from the gin context
func GetRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(ContextKeyRole)
	if !exists {
		return "", false
	}
	return role.(string), true
}

// GetSessionID returns the session id from the gin context
func GetSessionID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextKeySessionID)
	if !exists {
		return "", false
	}
	return id.(string), true
}

// IsAdmin reports whether the authenticated user holds the admin role
func IsAdmin(c *gin.Context) bool {
	role, _ := GetRole(c)
	return role == string(models.RoleAdmin)
}

// CanMutate reports whether the authenticated user may mutate a
// resource owned by ownerID: same user or admin.
func CanMutate(c *gin.Context, ownerID *uint) bool {
	if IsAdmin(c) {
		return true
	}
	userID, ok := GetUserID(c)
	if !ok || ownerID == nil {
		return false
	}
	return *ownerID == userID
}
