package photos

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/flickr"
	"github.com/classlab/classlab/pkg/classlab/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func TestTranslateFromFlickr(t *testing.T) {
	p := flickr.Photo{
		ID: "123", Owner: "99@N00", OwnerName: "Some Photographer", Title: "A bridge",
		URLT: "https://example.com/t.jpg", WidthT: 100, HeightT: 75,
		URLS: "https://example.com/s.jpg", WidthS: 240, HeightS: 180,
		URLM: "https://example.com/m.jpg", WidthM: 500, HeightM: 375,
		URLL: "https://example.com/l.jpg", WidthL: 1024, HeightL: 768,
	}

	photo := TranslateFromFlickr(p)
	if photo.ID != "123" {
		t.Errorf("Expected external id kept, got %q", photo.ID)
	}
	if photo.Owner != "Some Photographer" {
		t.Errorf("Expected owner display name, got %q", photo.Owner)
	}
	if photo.URL != "https://www.flickr.com/photos/99@N00/123" {
		t.Errorf("Unexpected photo page URL %q", photo.URL)
	}
	if photo.Large.Src != "https://example.com/l.jpg" || photo.Large.Width != 1024 {
		t.Errorf("Unexpected large rendition %+v", photo.Large)
	}
}

func TestTranslateFallsBackToSmallerSize(t *testing.T) {
	p := flickr.Photo{
		ID:   "123",
		URLT: "https://example.com/t.jpg", WidthT: 100, HeightT: 75,
		URLS: "https://example.com/s.jpg", WidthS: 240, HeightS: 180,
		URLL: "https://example.com/l.jpg", WidthL: 1024, HeightL: 768,
	}

	photo := TranslateFromFlickr(p)
	if photo.Medium.Src != "https://example.com/s.jpg" {
		t.Errorf("Expected missing medium to fall back to small, got %q", photo.Medium.Src)
	}
	if photo.Large.Src != "https://example.com/l.jpg" {
		t.Errorf("Expected large untouched, got %q", photo.Large.Src)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, nil)

	first := models.Photo{ID: "p1", Title: "Old title", Owner: "Someone"}
	if err := svc.Import(db, &first); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	db.Model(&models.Photo{ID: "p1"}).UpdateColumn("color", "#abcdef")

	second := models.Photo{ID: "p1", Title: "New title", Owner: "Someone"}
	if err := svc.Import(db, &second); err != nil {
		t.Fatalf("Re-import failed: %v", err)
	}

	var count int64
	db.Model(&models.Photo{}).Count(&count)
	if count != 1 {
		t.Fatalf("Expected 1 photo after re-import, got %d", count)
	}

	var stored models.Photo
	db.First(&stored, "id = ?", "p1")
	if stored.Title != "New title" {
		t.Errorf("Expected title merged, got %q", stored.Title)
	}
	if stored.Color != "#abcdef" {
		t.Errorf("Expected picked color to survive re-import, got %q", stored.Color)
	}
}

type stubSampler struct {
	color string
	calls int
}

func (s *stubSampler) Sample(ctx context.Context, imageURL string) (string, error) {
	s.calls++
	return s.color, nil
}

func TestPickColorPersists(t *testing.T) {
	db := setupTestDB(t)
	sampler := &stubSampler{color: "#112233"}
	svc := NewService(db, nil, sampler)

	photo := models.Photo{ID: "p1", Thumbnail: models.PhotoSize{Src: "https://example.com/t.jpg"}}
	db.Create(&photo)

	if err := svc.PickColor(context.Background(), db, &photo); err != nil {
		t.Fatalf("PickColor failed: %v", err)
	}

	var stored models.Photo
	db.First(&stored, "id = ?", "p1")
	if stored.Color != "#112233" {
		t.Errorf("Expected color persisted, got %q", stored.Color)
	}
}

func TestPickColorSkipsWithoutThumbnail(t *testing.T) {
	db := setupTestDB(t)
	sampler := &stubSampler{color: "#112233"}
	svc := NewService(db, nil, sampler)

	photo := models.Photo{ID: "p1"}
	db.Create(&photo)

	if err := svc.PickColor(context.Background(), db, &photo); err != nil {
		t.Fatalf("PickColor failed: %v", err)
	}
	if sampler.calls != 0 {
		t.Errorf("Expected sampler not called without a thumbnail, got %d calls", sampler.calls)
	}
}

func TestDeleteUnsetsChallengeReferences(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, nil)

	photo := models.Photo{ID: "p1"}
	db.Create(&photo)
	photoID := photo.ID
	ch := models.Challenge{Title: "Fractions", PhotoID: &photoID}
	db.Create(&ch)

	if err := svc.Delete(&photo); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var reloaded models.Challenge
	db.First(&reloaded, ch.ID)
	if reloaded.PhotoID != nil {
		t.Error("Expected challenge photo reference unset")
	}
	var count int64
	db.Model(&models.Photo{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected photo gone, got %d", count)
	}
}
