package guides

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classlab/classlab/pkg/classlab/meta"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/tags"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func newTestService(db *gorm.DB, keywords ...string) *Service {
	var extractor tags.KeywordExtractor
	if len(keywords) > 0 {
		extractor = tags.ExtractorFunc(func(ctx context.Context, text string) ([]string, error) {
			return keywords, nil
		})
	}
	return NewService(db, tags.NewRegistry(db, extractor), nil)
}

func createGuide(t *testing.T, svc *Service, title string) *models.Guide {
	g := &models.Guide{Kind: models.KindQuestion, Title: title}
	if err := svc.Create(context.Background(), g, nil); err != nil {
		t.Fatalf("Failed to create guide: %v", err)
	}
	return g
}

func linkCount(db *gorm.DB) int64 {
	var count int64
	db.Model(&models.GuideLink{}).Count(&count)
	return count
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	g := &models.Guide{Kind: "lecture", Title: "Nope"}
	if err := svc.Create(context.Background(), g, nil); err == nil {
		t.Error("Expected unknown kind to be rejected")
	}
}

func TestCreateLinksAreSymmetric(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	a := createGuide(t, svc, "Guide A")
	b := &models.Guide{Kind: models.KindActivity, Title: "Guide B"}
	if err := svc.Create(context.Background(), b, []uint{a.ID}); err != nil {
		t.Fatalf("Failed to create guide: %v", err)
	}

	var reverse int64
	db.Model(&models.GuideLink{}).
		Where("guide_id = ? AND peer_id = ?", a.ID, b.ID).Count(&reverse)
	if reverse != 1 {
		t.Errorf("Expected reverse link from %d to %d, found %d", a.ID, b.ID, reverse)
	}
	if got := linkCount(db); got != 2 {
		t.Errorf("Expected 2 link rows, got %d", got)
	}
}

func TestCreateIgnoresSelfLink(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	a := createGuide(t, svc, "Guide A")
	b := &models.Guide{Kind: models.KindQuestion, Title: "Guide B"}
	// the next free id will be b's own; include a real peer too
	if err := svc.Create(context.Background(), b, []uint{a.ID, a.ID + 1}); err != nil {
		t.Fatalf("Failed to create guide: %v", err)
	}

	var self int64
	db.Model(&models.GuideLink{}).Where("guide_id = peer_id").Count(&self)
	if self != 0 {
		t.Errorf("Expected no self links, found %d", self)
	}
}

func TestSyncPeersReconciles(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	a := createGuide(t, svc, "Guide A")
	b := createGuide(t, svc, "Guide B")
	c := createGuide(t, svc, "Guide C")

	want := []uint{b.ID}
	if err := svc.Update(context.Background(), a, false, &want); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	want = []uint{c.ID}
	if err := svc.Update(context.Background(), a, false, &want); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var toB, toC int64
	db.Model(&models.GuideLink{}).
		Where("(guide_id = ? AND peer_id = ?) OR (guide_id = ? AND peer_id = ?)", a.ID, b.ID, b.ID, a.ID).
		Count(&toB)
	db.Model(&models.GuideLink{}).
		Where("(guide_id = ? AND peer_id = ?) OR (guide_id = ? AND peer_id = ?)", a.ID, c.ID, c.ID, a.ID).
		Count(&toC)

	if toB != 0 {
		t.Errorf("Expected links to b removed in both orientations, found %d", toB)
	}
	if toC != 2 {
		t.Errorf("Expected links to c in both orientations, found %d", toC)
	}
}

func TestDeleteRemovesBothOrientations(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)

	a := createGuide(t, svc, "Guide A")
	b := &models.Guide{Kind: models.KindQuestion, Title: "Guide B"}
	if err := svc.Create(context.Background(), b, []uint{a.ID}); err != nil {
		t.Fatalf("Failed to create guide: %v", err)
	}

	if err := svc.Delete(b); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if got := linkCount(db); got != 0 {
		t.Errorf("Expected all link rows gone, got %d", got)
	}
	var guideCount int64
	db.Model(&models.Guide{}).Count(&guideCount)
	if guideCount != 1 {
		t.Errorf("Expected only guide a to remain, got %d guides", guideCount)
	}
}

func TestCreateTagsGuide(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db, "fractions", "math")

	g := createGuide(t, svc, "What is a half?")

	if len(g.Tags) != 2 {
		t.Fatalf("Expected 2 tags assigned, got %d", len(g.Tags))
	}
	var math models.Tag
	if err := db.First(&math, "name = ?", "math").Error; err != nil {
		t.Fatalf("Expected math tag created: %v", err)
	}
	if math.Count != 1 {
		t.Errorf("Expected math count 1, got %d", math.Count)
	}

	var joins int64
	db.Model(&models.GuideTag{}).Where("guide_id = ?", g.ID).Count(&joins)
	if joins != 2 {
		t.Errorf("Expected 2 guide_tags rows, got %d", joins)
	}
}

func TestRetagReplacesSet(t *testing.T) {
	db := setupTestDB(t)

	first := newTestService(db, "math")
	g := createGuide(t, first, "What is a half?")

	second := NewService(db, tags.NewRegistry(db, tags.ExtractorFunc(
		func(ctx context.Context, text string) ([]string, error) {
			return []string{"science"}, nil
		})), nil)

	g.Title = "What is an atom?"
	if err := second.Update(context.Background(), g, true, nil); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	counts := map[string]int{}
	var all []models.Tag
	db.Find(&all)
	for _, tag := range all {
		counts[tag.Name] = tag.Count
	}
	if counts["math"] != 0 {
		t.Errorf("Expected math released to 0, got %d", counts["math"])
	}
	if counts["science"] != 1 {
		t.Errorf("Expected science count 1, got %d", counts["science"])
	}
}

func TestUpdateWithoutRetagSkipsExtraction(t *testing.T) {
	db := setupTestDB(t)

	calls := 0
	svc := NewService(db, tags.NewRegistry(db, tags.ExtractorFunc(
		func(ctx context.Context, text string) ([]string, error) {
			calls++
			return []string{"math"}, nil
		})), nil)

	g := createGuide(t, svc, "What is a half?")
	if calls != 1 {
		t.Fatalf("Expected 1 extraction on create, got %d", calls)
	}

	g.URL = "https://example.com"
	if err := svc.Update(context.Background(), g, false, nil); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no extraction for non-taggable change, got %d calls", calls)
	}
}

type fakeMeta struct {
	page *meta.Page
	err  error
}

func (f *fakeMeta) Fetch(ctx context.Context, url string) (*meta.Page, error) {
	return f.page, f.err
}

func TestCreateResourceEnrichesFromMetadata(t *testing.T) {
	db := setupTestDB(t)
	fetcher := &fakeMeta{page: &meta.Page{
		Title:       "Khan Academy",
		Description: "Free lessons",
		Image:       "https://example.com/og.png",
		MediaType:   "video",
	}}
	svc := NewService(db, tags.NewRegistry(db, nil), fetcher)

	g := &models.Guide{
		Kind:  models.KindResource,
		Title: "Intro to fractions",
		URL:   "https://example.com/fractions",
	}
	if err := svc.Create(context.Background(), g, nil); err != nil {
		t.Fatalf("Failed to create resource: %v", err)
	}

	if g.MediaType != "video" {
		t.Errorf("Expected media type filled from page, got %q", g.MediaType)
	}
	if g.Image != "https://example.com/og.png" {
		t.Errorf("Expected image filled from page, got %q", g.Image)
	}
	if g.Description != "Free lessons" {
		t.Errorf("Expected description filled from page, got %q", g.Description)
	}
}

func TestCreateResourceSurvivesMetadataFailure(t *testing.T) {
	db := setupTestDB(t)
	fetcher := &fakeMeta{err: errTest}
	svc := NewService(db, tags.NewRegistry(db, nil), fetcher)

	g := &models.Guide{
		Kind:        models.KindResource,
		Title:       "Intro to fractions",
		Description: "hand written",
		URL:         "https://example.com/fractions",
	}
	if err := svc.Create(context.Background(), g, nil); err != nil {
		t.Fatalf("Expected scrape failure to be non-fatal, got %v", err)
	}
	if g.Description != "hand written" {
		t.Errorf("Expected description untouched, got %q", g.Description)
	}
}

var errTest = errors.New("scrape failed")
