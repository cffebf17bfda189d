package models

import "time"

// Challenge is the top-level learning project. It references its
// current owner, the set of every user who has ever owned it, an
// illustrating photo, an auto-assigned tag set and a collection of
// guides (via Guide.ChallengeID).
type Challenge struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	Title             string    `gorm:"not null;size:96" json:"title"`
	BigIdea           string    `gorm:"size:48" json:"big_idea"`
	EssentialQuestion string    `gorm:"size:96" json:"essential_question"`
	Description       string    `gorm:"size:2048" json:"description"`
	UserID            *uint     `gorm:"index" json:"user_id"`
	PhotoID           *string   `gorm:"index" json:"photo_id"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Users  []User  `gorm:"many2many:challenge_users;" json:"users,omitempty"`
	Photo  *Photo  `gorm:"foreignKey:PhotoID" json:"photo,omitempty"`
	Tags   []Tag   `gorm:"many2many:challenge_tags;" json:"tags,omitempty"`
	Guides []Guide `gorm:"foreignKey:ChallengeID" json:"guides,omitempty"`
}

// ChallengeUser is one row of the owner audit set: every user that has
// ever been assigned as the challenge owner, current owner included.
type ChallengeUser struct {
	ChallengeID uint `gorm:"primaryKey"`
	UserID      uint `gorm:"primaryKey"`
}

func (ChallengeUser) TableName() string { return "challenge_users" }

// ChallengeTag is one row of the challenge/tag adjacency set
type ChallengeTag struct {
	ChallengeID uint `gorm:"primaryKey"`
	TagID       uint `gorm:"primaryKey"`
}

func (ChallengeTag) TableName() string { return "challenge_tags" }

// TaggableText concatenates the four taggable paths in schema order;
// the auto-tagger extracts keywords from this text.
func (c *Challenge) TaggableText() string {
	return c.Title + "\n\n" + c.BigIdea + "\n\n" + c.EssentialQuestion + "\n\n" + c.Description
}
