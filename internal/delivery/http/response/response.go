package response

import (
	"time"

	"github.com/user/catalog-service/internal/entity"
)

// JobResponse is the API shape of a scrape job.
type JobResponse struct {
	ID         string     `json:"id"`
	TargetURL  string     `json:"target_url"`
	TargetKind string     `json:"target_kind"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// FromJob maps a job entity to its API shape.
func FromJob(job *entity.ScrapeJob) JobResponse {
	return JobResponse{
		ID:         job.ID,
		TargetURL:  job.TargetURL,
		TargetKind: string(job.TargetKind),
		Status:     string(job.Status),
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
}

// NavigationResponse is one taxonomy section with a category preview.
type NavigationResponse struct {
	ID            int64              `json:"id"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	LastScrapedAt *time.Time         `json:"last_scraped_at,omitempty"`
	Categories    []CategoryResponse `json:"categories"`
}

// CategoryResponse is the API shape of a category.
type CategoryResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	SourceURL     string     `json:"source_url,omitempty"`
	ProductCount  int        `json:"product_count"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// FromCategory maps a category entity to its API shape.
func FromCategory(c *entity.Category) CategoryResponse {
	return CategoryResponse{
		ID:            c.ID,
		Title:         c.Title,
		Slug:          c.Slug,
		SourceURL:     c.SourceURL,
		ProductCount:  c.ProductCount,
		LastScrapedAt: c.LastScrapedAt,
	}
}

// FromNavigation maps a section plus its preview categories.
func FromNavigation(n *entity.NavigationWithCategories) NavigationResponse {
	categories := make([]CategoryResponse, 0, len(n.Categories))
	for _, c := range n.Categories {
		categories = append(categories, FromCategory(c))
	}
	return NavigationResponse{
		ID:            n.Navigation.ID,
		Title:         n.Navigation.Title,
		Slug:          n.Navigation.Slug,
		LastScrapedAt: n.Navigation.LastScrapedAt,
		Categories:    categories,
	}
}

// CategoryDetailResponse is a category with its tree neighbours.
type CategoryDetailResponse struct {
	CategoryResponse
	Parent   *CategoryResponse  `json:"parent,omitempty"`
	Children []CategoryResponse `json:"children"`
}

// FromCategoryDetail maps a category detail to its API shape.
func FromCategoryDetail(d *entity.CategoryDetail) CategoryDetailResponse {
	resp := CategoryDetailResponse{
		CategoryResponse: FromCategory(&d.Category),
		Children:         make([]CategoryResponse, 0, len(d.Children)),
	}
	if d.Parent != nil {
		parent := FromCategory(d.Parent)
		resp.Parent = &parent
	}
	for _, child := range d.Children {
		resp.Children = append(resp.Children, FromCategory(child))
	}
	return resp
}

// ProductResponse is the API shape of a product listing entry.
type ProductResponse struct {
	ID            int64      `json:"id"`
	SourceID      string     `json:"source_id"`
	Title         string     `json:"title"`
	Author        string     `json:"author,omitempty"`
	Price         float64    `json:"price"`
	ImageURL      string     `json:"image_url,omitempty"`
	SourceURL     string     `json:"source_url"`
	Slug          string     `json:"slug"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// FromProduct maps a product entity to its API shape.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		SourceID:      p.SourceID,
		Title:         p.Title,
		Author:        p.Author,
		Price:         p.Price,
		ImageURL:      p.ImageURL,
		SourceURL:     p.SourceURL,
		Slug:          p.Slug,
		LastScrapedAt: p.LastScrapedAt,
	}
}

// ProductPageResponse is one page of products within a category.
type ProductPageResponse struct {
	Data     []ProductResponse `json:"data"`
	Category CategoryResponse  `json:"category"`
	Meta     PageMeta          `json:"meta"`
}

// PageMeta carries pagination bookkeeping.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// FromProductPage maps a product page to its API shape.
func FromProductPage(page *entity.ProductPage) ProductPageResponse {
	data := make([]ProductResponse, 0, len(page.Products))
	for _, p := range page.Products {
		data = append(data, FromProduct(p))
	}
	return ProductPageResponse{
		Data:     data,
		Category: FromCategory(page.Category),
		Meta: PageMeta{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
	}
}

// ReviewResponse is the API shape of a review.
type ReviewResponse struct {
	ID     int64   `json:"id"`
	Author string  `json:"author"`
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
}

// ProductDetailResponse is the long-form product extension.
type ProductDetailResponse struct {
	Description  string            `json:"description,omitempty"`
	Specs        map[string]string `json:"specs"`
	RatingsAvg   float64           `json:"ratings_avg"`
	ReviewsCount int               `json:"reviews_count"`
}

// ProductViewResponse is a product with its detail, reviews and category.
type ProductViewResponse struct {
	ProductResponse
	Detail   *ProductDetailResponse `json:"detail,omitempty"`
	Reviews  []ReviewResponse       `json:"reviews"`
	Category *CategoryResponse      `json:"category,omitempty"`
}

// FromProductView maps a product view to its API shape.
func FromProductView(view *entity.ProductView) ProductViewResponse {
	resp := ProductViewResponse{
		ProductResponse: FromProduct(&view.Product),
		Reviews:         make([]ReviewResponse, 0, len(view.Reviews)),
	}
	if view.Detail != nil {
		resp.Detail = &ProductDetailResponse{
			Description:  view.Detail.Description,
			Specs:        view.Detail.Specs,
			RatingsAvg:   view.Detail.RatingsAvg,
			ReviewsCount: view.Detail.ReviewsCount,
		}
	}
	for _, rev := range view.Reviews {
		resp.Reviews = append(resp.Reviews, ReviewResponse{
			ID:     rev.ID,
			Author: rev.Author,
			Rating: rev.Rating,
			Text:   rev.Text,
		})
	}
	if view.Category != nil {
		category := FromCategory(view.Category)
		resp.Category = &category
	}
	return resp
}
