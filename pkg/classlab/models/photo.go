package models

import "time"

// PhotoSize is one rendition of a photo
type PhotoSize struct {
	Src    string `json:"src"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Photo is an externally sourced image. The primary key is the id
// assigned by the image provider, which makes re-importing the same
// photo idempotent: the second import merges into the existing row.
type Photo struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Color     string    `json:"color"`
	Thumbnail PhotoSize `gorm:"embedded;embeddedPrefix:thumbnail_" json:"thumbnail"`
	Small     PhotoSize `gorm:"embedded;embeddedPrefix:small_" json:"small"`
	Medium    PhotoSize `gorm:"embedded;embeddedPrefix:medium_" json:"medium"`
	Large     PhotoSize `gorm:"embedded;embeddedPrefix:large_" json:"large"`
	Owner     string    `json:"owner"`
	URL       string    `json:"url"`
	Title     string    `gorm:"index" json:"title"`
}
