package repository

import (
	"context"
	"time"

	"github.com/user/catalog-service/internal/entity"
)

// CategoryRepository manages browsable category collections.
type CategoryRepository interface {
	// Upsert creates or updates a category by slug.
	Upsert(ctx context.Context, c *entity.Category) (*entity.Category, error)
	// Create inserts a new category.
	Create(ctx context.Context, c *entity.Category) (*entity.Category, error)
	// FindBySlug retrieves a category by its unique slug, or ErrNotFound.
	FindBySlug(ctx context.Context, slug string) (*entity.Category, error)
	// FindByID retrieves a category by id, or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*entity.Category, error)
	// FindChildren returns the direct children of a category.
	FindChildren(ctx context.Context, id int64) ([]*entity.Category, error)
	// FindBySourceURLMatch returns the category whose source_url is contained
	// in the given URL, or ErrNotFound.
	FindBySourceURLMatch(ctx context.Context, url string) (*entity.Category, error)
	// TouchBySourceURLMatch stamps last_scraped_at on categories whose
	// source_url is contained in the given URL.
	TouchBySourceURLMatch(ctx context.Context, url string, scrapedAt time.Time) error
	// SyncProductCount recomputes the denormalized product counter.
	SyncProductCount(ctx context.Context, id int64) error
}
