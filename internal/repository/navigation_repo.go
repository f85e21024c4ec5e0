package repository

import (
	"context"
	"time"

	"github.com/user/catalog-service/internal/entity"
)

// NavigationRepository manages top-level taxonomy sections.
type NavigationRepository interface {
	// Upsert creates or updates a section by slug, stamping last_scraped_at.
	Upsert(ctx context.Context, title, slug string, scrapedAt time.Time) (*entity.Navigation, error)
	// First returns an arbitrary existing section, or ErrNotFound. Used as
	// the fallback owner for categories discovered standalone.
	First(ctx context.Context) (*entity.Navigation, error)
	// Latest returns the most recently scraped section, or ErrNotFound.
	Latest(ctx context.Context) (*entity.Navigation, error)
	// TouchAll stamps last_scraped_at on every section.
	TouchAll(ctx context.Context, scrapedAt time.Time) error
	// List returns all sections ordered by title, each with up to
	// previewSize of its categories.
	List(ctx context.Context, previewSize int) ([]*entity.NavigationWithCategories, error)
}
