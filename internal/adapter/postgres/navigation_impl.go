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

// NavigationRepoImpl provides a concrete implementation for the
// NavigationRepository interface using PostgreSQL.
type NavigationRepoImpl struct {
	db *pgxpool.Pool
}

// NewNavigationRepo creates a new instance of NavigationRepoImpl.
func NewNavigationRepo(db *pgxpool.Pool) *NavigationRepoImpl {
	return &NavigationRepoImpl{db: db}
}

// Upsert creates or updates a navigation section by slug.
func (r *NavigationRepoImpl) Upsert(ctx context.Context, title, slug string, scrapedAt time.Time) (*entity.Navigation, error) {
	query := `
		INSERT INTO navigations (title, slug, last_scraped_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET
			last_scraped_at = EXCLUDED.last_scraped_at
		RETURNING id, title, slug, last_scraped_at;
	`
	return scanNavigation(r.db.QueryRow(ctx, query, title, slug, scrapedAt))
}

// First returns an arbitrary existing section.
func (r *NavigationRepoImpl) First(ctx context.Context) (*entity.Navigation, error) {
	query := `SELECT id, title, slug, last_scraped_at FROM navigations ORDER BY id LIMIT 1;`
	nav, err := scanNavigation(r.db.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return nav, err
}

// Latest returns the most recently scraped section.
func (r *NavigationRepoImpl) Latest(ctx context.Context) (*entity.Navigation, error) {
	query := `
		SELECT id, title, slug, last_scraped_at
		FROM navigations
		ORDER BY last_scraped_at DESC NULLS LAST
		LIMIT 1;
	`
	nav, err := scanNavigation(r.db.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return nav, err
}

// TouchAll stamps last_scraped_at on every section.
func (r *NavigationRepoImpl) TouchAll(ctx context.Context, scrapedAt time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE navigations SET last_scraped_at = $1;`, scrapedAt)
	return err
}

// List returns all sections ordered by title with a category preview each.
func (r *NavigationRepoImpl) List(ctx context.Context, previewSize int) ([]*entity.NavigationWithCategories, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, slug, last_scraped_at FROM navigations ORDER BY title;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []*entity.NavigationWithCategories
	for rows.Next() {
		nav, err := scanNavigation(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, &entity.NavigationWithCategories{Navigation: *nav})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, section := range sections {
		categories, err := r.previewCategories(ctx, section.Navigation.ID, previewSize)
		if err != nil {
			return nil, err
		}
		section.Categories = categories
	}
	return sections, nil
}

func (r *NavigationRepoImpl) previewCategories(ctx context.Context, navID int64, limit int) ([]*entity.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE navigation_id = $1
		ORDER BY title
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, navID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*entity.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func scanNavigation(row rowScanner) (*entity.Navigation, error) {
	var nav entity.Navigation
	if err := row.Scan(&nav.ID, &nav.Title, &nav.Slug, &nav.LastScrapedAt); err != nil {
		return nil, err
	}
	return &nav, nil
}
