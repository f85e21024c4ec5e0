package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

// ProductRepoImpl provides a concrete implementation for the
// ProductRepository interface using PostgreSQL.
type ProductRepoImpl struct {
	db *pgxpool.Pool
}

// NewProductRepo creates a new instance of ProductRepoImpl.
func NewProductRepo(db *pgxpool.Pool) *ProductRepoImpl {
	return &ProductRepoImpl{db: db}
}

const productColumns = `id, source_id, title, COALESCE(author, ''), price, COALESCE(image_url, ''), source_url, slug, category_id, last_scraped_at`

// UpsertBySourceURL creates or updates a product keyed by canonical URL.
// On update the listing fields are overwritten unconditionally: the freshest
// fetch wins at the persistence layer.
func (r *ProductRepoImpl) UpsertBySourceURL(ctx context.Context, p *entity.Product) (*entity.Product, error) {
	query := `
		INSERT INTO products (source_id, title, author, price, image_url, source_url, slug, category_id, last_scraped_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, $8, $9)
		ON CONFLICT (source_url) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			price = EXCLUDED.price,
			image_url = EXCLUDED.image_url,
			last_scraped_at = EXCLUDED.last_scraped_at
		RETURNING ` + productColumns + `;
	`
	return scanProduct(r.db.QueryRow(ctx, query,
		p.SourceID, p.Title, p.Author, p.Price, p.ImageURL, p.SourceURL, p.Slug, p.CategoryID, p.LastScrapedAt))
}

// FindBySourceURL retrieves a product by canonical URL.
func (r *ProductRepoImpl) FindBySourceURL(ctx context.Context, url string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE source_url = $1;`
	p, err := scanProduct(r.db.QueryRow(ctx, query, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return p, err
}

// FindByID retrieves a product by id.
func (r *ProductRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1;`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return p, err
}

// ListByCategory returns one page of a category's products plus the total.
func (r *ProductRepoImpl) ListByCategory(ctx context.Context, categoryID int64, offset, limit int) ([]*entity.Product, int, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category_id = $1
		ORDER BY title
		OFFSET $2 LIMIT $3;
	`
	rows, err := r.db.Query(ctx, query, categoryID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1;`, categoryID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// TouchBySourceURL stamps last_scraped_at on the product with that URL.
func (r *ProductRepoImpl) TouchBySourceURL(ctx context.Context, url string, scrapedAt time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE products SET last_scraped_at = $2 WHERE source_url = $1;`, url, scrapedAt)
	return err
}

// UpsertDetail overwrites the product's detail record wholesale.
func (r *ProductRepoImpl) UpsertDetail(ctx context.Context, d *entity.ProductDetail) error {
	specsJSON, err := json.Marshal(d.Specs)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO product_details (product_id, description, specs, ratings_avg, reviews_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO UPDATE SET
			description = EXCLUDED.description,
			specs = EXCLUDED.specs,
			ratings_avg = EXCLUDED.ratings_avg,
			reviews_count = EXCLUDED.reviews_count;
	`
	_, err = r.db.Exec(ctx, query, d.ProductID, d.Description, specsJSON, d.RatingsAvg, d.ReviewsCount)
	return err
}

// GetDetail retrieves the detail record for a product.
func (r *ProductRepoImpl) GetDetail(ctx context.Context, productID int64) (*entity.ProductDetail, error) {
	query := `
		SELECT product_id, COALESCE(description, ''), specs, ratings_avg, reviews_count
		FROM product_details
		WHERE product_id = $1;
	`
	var d entity.ProductDetail
	var specsJSON []byte
	err := r.db.QueryRow(ctx, query, productID).Scan(
		&d.ProductID, &d.Description, &specsJSON, &d.RatingsAvg, &d.ReviewsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(specsJSON) > 0 {
		if err := json.Unmarshal(specsJSON, &d.Specs); err != nil {
			return nil, err
		}
	}
	return &d, nil
}

// ReplaceReviews deletes the product's review set and inserts the new one in
// a single transaction, so concurrent readers never observe a partial set.
func (r *ProductRepoImpl) ReplaceReviews(ctx context.Context, productID int64, reviews []entity.Review) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE product_id = $1;`, productID); err != nil {
		return err
	}

	if len(reviews) > 0 {
		batch := &pgx.Batch{}
		for _, rev := range reviews {
			batch.Queue(`INSERT INTO reviews (product_id, author, rating, text) VALUES ($1, $2, $3, $4);`,
				productID, rev.Author, rev.Rating, rev.Text)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListReviews returns all reviews for a product.
func (r *ProductRepoImpl) ListReviews(ctx context.Context, productID int64) ([]*entity.Review, error) {
	query := `SELECT id, product_id, author, rating, text FROM reviews WHERE product_id = $1 ORDER BY id;`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*entity.Review
	for rows.Next() {
		var rev entity.Review
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.Author, &rev.Rating, &rev.Text); err != nil {
			return nil, err
		}
		reviews = append(reviews, &rev)
	}
	return reviews, rows.Err()
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID,
		&p.SourceID,
		&p.Title,
		&p.Author,
		&p.Price,
		&p.ImageURL,
		&p.SourceURL,
		&p.Slug,
		&p.CategoryID,
		&p.LastScrapedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
