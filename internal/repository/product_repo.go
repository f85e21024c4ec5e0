package repository

import (
	"context"
	"time"

	"github.com/user/catalog-service/internal/entity"
)

// ProductRepository manages products, their one-to-one detail records and
// their review sets.
type ProductRepository interface {
	// UpsertBySourceURL creates or updates a product keyed by its canonical
	// source URL. On update, title/author/price/image are overwritten
	// unconditionally and last_scraped_at is stamped.
	UpsertBySourceURL(ctx context.Context, p *entity.Product) (*entity.Product, error)
	// FindBySourceURL retrieves a product by canonical URL, or ErrNotFound.
	FindBySourceURL(ctx context.Context, url string) (*entity.Product, error)
	// FindByID retrieves a product by id, or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*entity.Product, error)
	// ListByCategory returns one page of a category's products ordered by
	// title, plus the total count.
	ListByCategory(ctx context.Context, categoryID int64, offset, limit int) ([]*entity.Product, int, error)
	// TouchBySourceURL stamps last_scraped_at on the product with that URL.
	TouchBySourceURL(ctx context.Context, url string, scrapedAt time.Time) error
	// UpsertDetail overwrites the product's detail record wholesale.
	UpsertDetail(ctx context.Context, d *entity.ProductDetail) error
	// GetDetail retrieves the detail record, or ErrNotFound.
	GetDetail(ctx context.Context, productID int64) (*entity.ProductDetail, error)
	// ReplaceReviews deletes the product's existing reviews and inserts the
	// given set in a single transaction.
	ReplaceReviews(ctx context.Context, productID int64, reviews []entity.Review) error
	// ListReviews returns all reviews for a product.
	ListReviews(ctx context.Context, productID int64) ([]*entity.Review, error)
}
