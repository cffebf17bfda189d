package models

// Tag is a deduplicated keyword with a live-attachment count. Names are
// stored trimmed and lowercased; count reflects the number of entities
// currently tagged with it and is adjusted in bulk, never read-modify-
// write. Tags are hard-deleted so a name can be recreated cleanly.
type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"uniqueIndex;not null" json:"name"`
	Count int    `gorm:"not null;default:0" json:"count"`
}
