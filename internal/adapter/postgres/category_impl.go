package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

// CategoryRepoImpl provides a concrete implementation for the
// CategoryRepository interface using PostgreSQL.
type CategoryRepoImpl struct {
	db *pgxpool.Pool
}

// NewCategoryRepo creates a new instance of CategoryRepoImpl.
func NewCategoryRepo(db *pgxpool.Pool) *CategoryRepoImpl {
	return &CategoryRepoImpl{db: db}
}

const categoryColumns = `id, title, slug, COALESCE(source_url, ''), navigation_id, parent_id, product_count, last_scraped_at`

// Upsert creates or updates a category by slug. On update, the title,
// source URL and owning section follow the latest scrape.
func (r *CategoryRepoImpl) Upsert(ctx context.Context, c *entity.Category) (*entity.Category, error) {
	query := `
		INSERT INTO categories (title, slug, source_url, navigation_id, parent_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			source_url = EXCLUDED.source_url,
			navigation_id = EXCLUDED.navigation_id
		RETURNING ` + categoryColumns + `;
	`
	return scanCategory(r.db.QueryRow(ctx, query, c.Title, c.Slug, c.SourceURL, c.NavigationID, c.ParentID))
}

// Create inserts a new category.
func (r *CategoryRepoImpl) Create(ctx context.Context, c *entity.Category) (*entity.Category, error) {
	query := `
		INSERT INTO categories (title, slug, source_url, navigation_id, parent_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING ` + categoryColumns + `;
	`
	return scanCategory(r.db.QueryRow(ctx, query, c.Title, c.Slug, c.SourceURL, c.NavigationID, c.ParentID))
}

// FindBySlug retrieves a category by its unique slug.
func (r *CategoryRepoImpl) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1;`
	c, err := scanCategory(r.db.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return c, err
}

// FindByID retrieves a category by id.
func (r *CategoryRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1;`
	c, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return c, err
}

// FindChildren returns the direct children of a category.
func (r *CategoryRepoImpl) FindChildren(ctx context.Context, id int64) ([]*entity.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = $1 ORDER BY title;`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []*entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

// FindBySourceURLMatch returns the category whose source_url appears within
// the given URL. The navigation scrape stores relative links, so a category
// listing URL contains its own source_url as a suffix.
func (r *CategoryRepoImpl) FindBySourceURLMatch(ctx context.Context, url string) (*entity.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE source_url IS NOT NULL AND position(source_url IN $1) > 0
		LIMIT 1;
	`
	c, err := scanCategory(r.db.QueryRow(ctx, query, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return c, err
}

// TouchBySourceURLMatch stamps last_scraped_at on matching categories.
func (r *CategoryRepoImpl) TouchBySourceURLMatch(ctx context.Context, url string, scrapedAt time.Time) error {
	query := `
		UPDATE categories
		SET last_scraped_at = $2
		WHERE source_url IS NOT NULL AND position(source_url IN $1) > 0;
	`
	_, err := r.db.Exec(ctx, query, url, scrapedAt)
	return err
}

// SyncProductCount recomputes the denormalized product counter.
func (r *CategoryRepoImpl) SyncProductCount(ctx context.Context, id int64) error {
	query := `
		UPDATE categories
		SET product_count = (SELECT COUNT(*) FROM products WHERE category_id = $1)
		WHERE id = $1;
	`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func scanCategory(row rowScanner) (*entity.Category, error) {
	var c entity.Category
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Slug,
		&c.SourceURL,
		&c.NavigationID,
		&c.ParentID,
		&c.ProductCount,
		&c.LastScrapedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
