package models

import "time"

// GuideKind discriminates the three guide variants
type GuideKind string

const (
	KindQuestion GuideKind = "question"
	KindActivity GuideKind = "activity"
	KindResource GuideKind = "resource"
)

// GuideKinds lists every valid discriminator value
var GuideKinds = []GuideKind{KindQuestion, KindActivity, KindResource}

// Valid reports whether k is a known guide kind
func (k GuideKind) Valid() bool {
	switch k {
	case KindQuestion, KindActivity, KindResource:
		return true
	}
	return false
}

// Guide is a teaching step inside a Challenge. Questions, activities
// and resources share this row shape and are told apart by Kind; the
// variant-specific columns are only populated for their kind.
type Guide struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Kind        GuideKind `gorm:"not null;index;default:question" json:"kind"`
	Title       string    `gorm:"not null;size:96" json:"title"`
	Description string    `gorm:"size:2048" json:"description"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	ChallengeID *uint     `gorm:"index" json:"challenge_id"`

	// activity only
	Date *time.Time `json:"date,omitempty"`

	// resource only
	URL       string `json:"url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Image     string `json:"image,omitempty"`

	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Challenge *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	Tags      []Tag      `gorm:"many2many:guide_tags;" json:"tags,omitempty"`
	Guides    []Guide    `gorm:"many2many:guide_links;joinForeignKey:guide_id;joinReferences:peer_id" json:"guides,omitempty"`
}

// TaggableText concatenates the two taggable paths of a guide
func (g *Guide) TaggableText() string {
	return g.Title + "\n\n" + g.Description
}

// GuideTag is one row of the guide/tag adjacency set
type GuideTag struct {
	GuideID uint `gorm:"primaryKey"`
	TagID   uint `gorm:"primaryKey"`
}

// TableName keeps the many2many association and the explicit model on
// the same table.
func (GuideTag) TableName() string { return "guide_tags" }

// GuideLink is one orientation of the symmetric related-guide edge.
// The invariant is that (a,b) exists iff (b,a) exists; the guides
// service writes and removes both rows together.
type GuideLink struct {
	GuideID uint `gorm:"primaryKey"`
	PeerID  uint `gorm:"primaryKey"`
}

func (GuideLink) TableName() string { return "guide_links" }
