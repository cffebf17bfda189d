package tags

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classlab/classlab/pkg/classlab/models"
)

// KeywordExtractor derives keywords from free text. Implementations
// call out to an external analysis service; a failure must propagate
// so the triggering save fails instead of silently skipping tagging.
type KeywordExtractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

// ExtractorFunc adapts a function to the KeywordExtractor interface
type ExtractorFunc func(ctx context.Context, text string) ([]string, error)

func (f ExtractorFunc) Extract(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

// Registry manages the deduplicated, reference-counted tag store.
// All mutations are expressed as atomic filtered statements so
// concurrent requests cannot lose updates.
type Registry struct {
	db        *gorm.DB
	extractor KeywordExtractor
}

// NewRegistry creates a tag registry backed by db. The extractor may
// be nil when auto-tagging is disabled.
func NewRegistry(db *gorm.DB, extractor KeywordExtractor) *Registry {
	return &Registry{db: db, extractor: extractor}
}

// Normalize trims, lowercases and dedupes tag names, preserving the
// first occurrence order and dropping empties.
func Normalize(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// GetOrCreate resolves each normalized name to a tag, creating missing
// ones with count 0. Creation is an upsert on the unique name column,
// so two concurrent first uses of a name converge on one row.
func (r *Registry) GetOrCreate(tx *gorm.DB, names []string) ([]models.Tag, error) {
	names = Normalize(names)
	if len(names) == 0 {
		return nil, nil
	}

	rows := make([]models.Tag, len(names))
	for i, name := range names {
		rows[i] = models.Tag{Name: name}
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := tx.Where("name IN ?", names).Find(&tags).Error; err != nil {
		return nil, err
	}

	// restore request order
	byName := make(map[string]models.Tag, len(tags))
	for _, tag := range tags {
		byName[tag.Name] = tag
	}
	ordered := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if tag, ok := byName[name]; ok {
			ordered = append(ordered, tag)
		}
	}
	return ordered, nil
}

// AdjustCount applies count += delta to every given tag in one bulk
// statement. The empty set short-circuits: no statement is issued.
func (r *Registry) AdjustCount(tx *gorm.DB, tags []models.Tag, delta int) error {
	if len(tags) == 0 {
		return nil
	}
	ids := make([]uint, len(tags))
	for i, tag := range tags {
		ids[i] = tag.ID
	}
	return tx.Model(&models.Tag{}).
		Where("id IN ?", ids).
		UpdateColumn("count", gorm.Expr("count + ?", delta)).Error
}

// Assign runs the decrement-recompute-increment cycle for one taggable
// entity: detach the current set, extract fresh keywords from text,
// resolve them to tags and attach the new set. It must run inside the
// caller's save transaction so an extraction failure rolls the whole
// save back with the old counts intact.
//
// The cycle always runs when a taggable path changed, even if the
// extractor returns an unchanged set; the net count change is then
// zero but the extraction call still happens.
func (r *Registry) Assign(ctx context.Context, tx *gorm.DB, current []models.Tag, text string) ([]models.Tag, error) {
	if r.extractor == nil {
		return current, nil
	}

	if err := r.AdjustCount(tx, current, -1); err != nil {
		return nil, err
	}

	names, err := r.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	fresh, err := r.GetOrCreate(tx, names)
	if err != nil {
		return nil, err
	}

	if err := r.AdjustCount(tx, fresh, 1); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Remove deletes a tag and pulls its reference from every challenge
// and guide adjacency set, all inside one transaction.
func (r *Registry) Remove(tx *gorm.DB, tag *models.Tag) error {
	if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.ChallengeTag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("tag_id = ?", tag.ID).Delete(&models.GuideTag{}).Error; err != nil {
		return err
	}
	return tx.Delete(tag).Error
}
