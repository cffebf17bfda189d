package guides

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classlab/classlab/pkg/classlab/meta"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/tags"
)

// MetadataFetcher scrapes page metadata for resource guides
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) (*meta.Page, error)
}

// Service owns the guide graph: creation, the symmetric related-guide
// relation, auto-tagging and reference cleanup. Every mutation that
// touches more than one row runs in a single transaction so no
// dangling edge survives a partial failure.
type Service struct {
	db       *gorm.DB
	registry *tags.Registry
	meta     MetadataFetcher
}

// NewService creates a guide service. meta may be nil to disable
// resource metadata enrichment.
func NewService(db *gorm.DB, registry *tags.Registry, metaFetcher MetadataFetcher) *Service {
	return &Service{db: db, registry: registry, meta: metaFetcher}
}

// Create persists a new guide. Peer links are written symmetrically,
// and tags are extracted from the taggable paths before the
// transaction commits; an extraction failure aborts the create.
func (s *Service) Create(ctx context.Context, g *models.Guide, peerIDs []uint) error {
	if !g.Kind.Valid() {
		return fmt.Errorf("unknown guide kind %q", g.Kind)
	}
	if g.Kind == models.KindResource {
		s.enrichResource(ctx, g)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(g).Error; err != nil {
			return err
		}
		if err := s.retag(ctx, tx, g); err != nil {
			return err
		}
		return s.syncPeers(tx, g.ID, peerIDs)
	})
}

// Update persists scalar changes on a loaded guide. retagNeeded must
// be true when a taggable path (title, description) actually changed;
// peerIDs, when non-nil, becomes the new related-guide set.
func (s *Service) Update(ctx context.Context, g *models.Guide, retagNeeded bool, peerIDs *[]uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(g).Error; err != nil {
			return err
		}
		if retagNeeded {
			if err := s.retag(ctx, tx, g); err != nil {
				return err
			}
		}
		if peerIDs != nil {
			if err := s.syncPeers(tx, g.ID, *peerIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a guide and every reference to it: both orientations
// of its peer links and its tag adjacency rows. The challenge side is
// the guide's own foreign key and disappears with the row.
func (s *Service) Delete(g *models.Guide) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("guide_id = ? OR peer_id = ?", g.ID, g.ID).Delete(&models.GuideLink{}).Error
		if err != nil {
			return err
		}
		if err := tx.Where("guide_id = ?", g.ID).Delete(&models.GuideTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(g).Error
	})
}

// retag runs the decrement-recompute-increment cycle for the guide and
// replaces its tag adjacency rows with the freshly extracted set.
func (s *Service) retag(ctx context.Context, tx *gorm.DB, g *models.Guide) error {
	var current []models.Tag
	err := tx.Model(&models.Tag{}).
		Joins("JOIN guide_tags ON guide_tags.tag_id = tags.id AND guide_tags.guide_id = ?", g.ID).
		Find(&current).Error
	if err != nil {
		return err
	}

	fresh, err := s.registry.Assign(ctx, tx, current, g.TaggableText())
	if err != nil {
		return err
	}

	if err := tx.Where("guide_id = ?", g.ID).Delete(&models.GuideTag{}).Error; err != nil {
		return err
	}
	if len(fresh) > 0 {
		rows := make([]models.GuideTag, len(fresh))
		for i, tag := range fresh {
			rows[i] = models.GuideTag{GuideID: g.ID, TagID: tag.ID}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	g.Tags = fresh
	return nil
}

// syncPeers reconciles the symmetric related-guide set of guide id
// with want: removed pairs are deleted in both orientations, added
// pairs inserted in both, all within the caller's transaction.
func (s *Service) syncPeers(tx *gorm.DB, id uint, want []uint) error {
	var current []uint
	err := tx.Model(&models.GuideLink{}).
		Where("guide_id = ?", id).
		Pluck("peer_id", &current).Error
	if err != nil {
		return err
	}

	wanted := make(map[uint]bool, len(want))
	for _, peer := range want {
		if peer == id {
			continue // no self links
		}
		wanted[peer] = true
	}
	have := make(map[uint]bool, len(current))
	for _, peer := range current {
		have[peer] = true
	}

	var removed []uint
	for _, peer := range current {
		if !wanted[peer] {
			removed = append(removed, peer)
		}
	}
	if len(removed) > 0 {
		err := tx.Where("guide_id = ? AND peer_id IN ?", id, removed).
			Or("peer_id = ? AND guide_id IN ?", id, removed).
			Delete(&models.GuideLink{}).Error
		if err != nil {
			return err
		}
	}

	var links []models.GuideLink
	for peer := range wanted {
		if have[peer] {
			continue
		}
		links = append(links, models.GuideLink{GuideID: id, PeerID: peer})
		links = append(links, models.GuideLink{GuideID: peer, PeerID: id})
	}
	if len(links) > 0 {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// enrichResource fills blank resource fields from the page metadata.
// Best effort: a scraper failure is logged, not fatal.
func (s *Service) enrichResource(ctx context.Context, g *models.Guide) {
	if s.meta == nil || g.URL == "" {
		return
	}
	if g.MediaType != "" && g.Image != "" && g.Description != "" {
		return
	}

	page, err := s.meta.Fetch(ctx, g.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", g.URL).Msg("resource metadata fetch failed")
		return
	}
	if g.MediaType == "" {
		g.MediaType = page.MediaType
	}
	if g.Image == "" {
		g.Image = page.Image
	}
	if g.Description == "" {
		g.Description = page.Description
	}
}
