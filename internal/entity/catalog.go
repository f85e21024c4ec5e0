package entity

import "time"

// Navigation is a top-level taxonomy section of the source site.
type Navigation struct {
	ID            int64
	Title         string
	Slug          string
	LastScrapedAt *time.Time
}

// Category mirrors the `categories` PostgreSQL table schema. Categories form
// a tree via ParentID; NavigationID is nullable for standalone discoveries.
type Category struct {
	ID            int64
	Title         string
	Slug          string
	SourceURL     string
	NavigationID  *int64
	ParentID      *int64
	ProductCount  int
	LastScrapedAt *time.Time
}

// Product mirrors the `products` PostgreSQL table schema.
// SourceURL is the canonical absolute URL and the dedup key.
type Product struct {
	ID            int64
	SourceID      string
	Title         string
	Author        string
	Price         float64
	ImageURL      string
	SourceURL     string
	Slug          string
	CategoryID    int64
	LastScrapedAt *time.Time
}

// ProductDetail is the one-to-one long-form extension of a Product.
// It is overwritten wholesale on every successful product-page scrape.
type ProductDetail struct {
	ProductID    int64
	Description  string
	Specs        map[string]string
	RatingsAvg   float64
	ReviewsCount int
}

// Review belongs to exactly one Product. The full review set is replaced on
// every successful product-page scrape.
type Review struct {
	ID        int64
	ProductID int64
	Author    string
	Rating    float64
	Text      string
}

// NavigationWithCategories is the read-side shape for the navigation listing:
// a section plus a short preview of its categories.
type NavigationWithCategories struct {
	Navigation Navigation
	Categories []*Category
}

// CategoryDetail is the read-side shape for a single category with its
// immediate tree neighbours.
type CategoryDetail struct {
	Category Category
	Parent   *Category
	Children []*Category
}

// ProductPage is one page of products within a category.
type ProductPage struct {
	Products   []*Product
	Category   *Category
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// ProductView is the read-side shape for a single product with its detail,
// reviews and owning category.
type ProductView struct {
	Product  Product
	Detail   *ProductDetail
	Reviews  []*Review
	Category *Category
}
