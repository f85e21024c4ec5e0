package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
	"github.com/user/catalog-service/pkg/utils"
)

// Reconciler merges raw extracted page records into canonical catalog
// entities: dedup by canonical URL, sentinel-aware field merge, and
// upsert-by-unique-key against the persistent store.
type Reconciler struct {
	navRepo  repository.NavigationRepository
	catRepo  repository.CategoryRepository
	prodRepo repository.ProductRepository
	baseURL  *url.URL
}

// NewReconciler creates a Reconciler. baseURL is the source site root used to
// absolify relative product links.
func NewReconciler(
	navRepo repository.NavigationRepository,
	catRepo repository.CategoryRepository,
	prodRepo repository.ProductRepository,
	baseURL string,
) (*Reconciler, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid scrape base URL %q: %w", baseURL, err)
	}
	return &Reconciler{
		navRepo:  navRepo,
		catRepo:  catRepo,
		prodRepo: prodRepo,
		baseURL:  base,
	}, nil
}

// ReconcileNavigation upserts a NavigationSection and a linked Category for
// every usable menu item. Items with an empty title or a non-relative link
// are discarded.
func (r *Reconciler) ReconcileNavigation(ctx context.Context, items []entity.RawNavItem) error {
	now := time.Now()
	kept := 0
	for _, item := range items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		if !strings.HasPrefix(item.Link, "/") {
			// External or malformed link, not part of the site taxonomy.
			continue
		}
		slug := utils.TrailingSegment(item.Link)
		if slug == "" {
			continue
		}

		nav, err := r.navRepo.Upsert(ctx, item.Title, slug, now)
		if err != nil {
			return fmt.Errorf("failed to upsert navigation %q: %w", slug, err)
		}

		navID := nav.ID
		if _, err := r.catRepo.Upsert(ctx, &entity.Category{
			Title:        item.Title,
			Slug:         slug,
			SourceURL:    item.Link,
			NavigationID: &navID,
		}); err != nil {
			return fmt.Errorf("failed to upsert category %q: %w", slug, err)
		}
		kept++
	}
	slog.Info("Reconciled navigation items", "raw", len(items), "upserted", kept)
	return nil
}

// ReconcileCategory reconciles candidate products scraped from a listing
// page: canonicalize links, collapse in-batch duplicates, then upsert each
// survivor by canonical URL.
func (r *Reconciler) ReconcileCategory(ctx context.Context, listingURL string, items []entity.RawProductSummary) error {
	category, err := r.resolveCategory(ctx, listingURL)
	if err != nil {
		return err
	}
	if category == nil {
		// No navigation section exists yet to attach a new category to.
		return nil
	}

	deduped := dedupeByCanonicalURL(r.baseURL, items)
	slog.Info("Deduplicated category products",
		"category", category.Slug, "raw", len(items), "unique", len(deduped))

	now := time.Now()
	for canonicalURL, item := range deduped {
		sourceID := utils.TrailingSegment(canonicalURL)
		if sourceID == "" {
			sourceID = item.Title
		}
		_, err := r.prodRepo.UpsertBySourceURL(ctx, &entity.Product{
			SourceID:      sourceID,
			Title:         item.Title,
			Author:        item.Author,
			Price:         utils.ParsePrice(item.PriceText),
			ImageURL:      item.ImageURL,
			SourceURL:     canonicalURL,
			Slug:          sourceID,
			CategoryID:    category.ID,
			LastScrapedAt: &now,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert product %q: %w", canonicalURL, err)
		}
	}

	if err := r.catRepo.SyncProductCount(ctx, category.ID); err != nil {
		slog.Warn("Failed to sync category product count", "category", category.Slug, "error", err)
	}
	return nil
}

// ReconcileProduct overwrites the detail record of an existing product and
// replaces its review set. A detail arriving for an unknown product is a
// stale or out-of-order fetch and is discarded silently.
func (r *Reconciler) ReconcileProduct(ctx context.Context, productURL string, detail *entity.RawProductDetail) error {
	if detail == nil {
		return nil
	}

	product, err := r.prodRepo.FindBySourceURL(ctx, productURL)
	if err != nil {
		if err == repository.ErrNotFound {
			slog.Warn("Discarding detail for unknown product", "url", productURL)
			return nil
		}
		return fmt.Errorf("failed to look up product %q: %w", productURL, err)
	}

	ratingsAvg := 0.0
	if len(detail.Reviews) > 0 {
		var sum float64
		for _, rev := range detail.Reviews {
			sum += rev.Rating
		}
		ratingsAvg = sum / float64(len(detail.Reviews))
	}

	if err := r.prodRepo.UpsertDetail(ctx, &entity.ProductDetail{
		ProductID:    product.ID,
		Description:  detail.DescriptionHTML,
		Specs:        detail.Specs,
		RatingsAvg:   ratingsAvg,
		ReviewsCount: len(detail.Reviews),
	}); err != nil {
		return fmt.Errorf("failed to upsert product detail for %q: %w", productURL, err)
	}

	// Replace the whole review set; merging incrementally would accumulate
	// duplicates across repeated fetches.
	if len(detail.Reviews) > 0 {
		reviews := make([]entity.Review, 0, len(detail.Reviews))
		for _, rev := range detail.Reviews {
			reviews = append(reviews, entity.Review{
				ProductID: product.ID,
				Author:    rev.Author,
				Rating:    rev.Rating,
				Text:      rev.Text,
			})
		}
		if err := r.prodRepo.ReplaceReviews(ctx, product.ID, reviews); err != nil {
			return fmt.Errorf("failed to replace reviews for %q: %w", productURL, err)
		}
		slog.Info("Replaced reviews", "product", product.Title, "count", len(reviews))
	}
	return nil
}

// resolveCategory looks up the category a listing URL belongs to, lazily
// creating it under an arbitrary existing navigation section when the slug is
// new. Returns (nil, nil) when no section exists to attach to.
func (r *Reconciler) resolveCategory(ctx context.Context, listingURL string) (*entity.Category, error) {
	slug := utils.TrailingSegment(listingURL)
	if slug == "" {
		slug = "unknown"
	}

	category, err := r.catRepo.FindBySlug(ctx, slug)
	if err == nil {
		return category, nil
	}
	if err != repository.ErrNotFound {
		return nil, fmt.Errorf("failed to look up category %q: %w", slug, err)
	}

	nav, err := r.navRepo.First(ctx)
	if err != nil {
		if err == repository.ErrNotFound {
			slog.Warn("No navigation section found to attach category to", "slug", slug)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up fallback navigation: %w", err)
	}

	navID := nav.ID
	return r.catRepo.Create(ctx, &entity.Category{
		Title:        slug,
		Slug:         slug,
		SourceURL:    listingURL,
		NavigationID: &navID,
	})
}

// dedupeByCanonicalURL collapses raw records resolving to the same canonical
// URL. A record titled with the UnknownTitle sentinel is replaced by any
// competitor holding a real title; a real title is never overwritten by the
// sentinel within the same batch.
func dedupeByCanonicalURL(base *url.URL, items []entity.RawProductSummary) map[string]entity.RawProductSummary {
	unique := make(map[string]entity.RawProductSummary)
	for _, item := range items {
		if item.Link == "" {
			continue
		}
		canonicalURL, err := utils.Canonicalize(base, item.Link)
		if err != nil {
			slog.Warn("Skipping product with unparsable link", "link", item.Link, "error", err)
			continue
		}
		existing, ok := unique[canonicalURL]
		if !ok {
			unique[canonicalURL] = item
			continue
		}
		if existing.Title == entity.UnknownTitle && item.Title != entity.UnknownTitle {
			unique[canonicalURL] = item
		}
	}
	return unique
}
