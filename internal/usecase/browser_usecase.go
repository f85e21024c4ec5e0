package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

const categoryPreviewSize = 5

// CatalogBrowser is the read side of the canonical store, serving the thin
// API layer.
type CatalogBrowser interface {
	ListNavigation(ctx context.Context) ([]*entity.NavigationWithCategories, error)
	GetCategory(ctx context.Context, slug string) (*entity.CategoryDetail, error)
	ListCategoryProducts(ctx context.Context, slug string, page, limit int) (*entity.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*entity.ProductView, error)
	RecordView(ctx context.Context, sessionID string, path json.RawMessage) (*entity.ViewHistory, error)
}

type catalogBrowserUseCase struct {
	navRepo     repository.NavigationRepository
	catRepo     repository.CategoryRepository
	prodRepo    repository.ProductRepository
	historyRepo repository.HistoryRepository
}

// NewCatalogBrowser creates the read-side use case.
func NewCatalogBrowser(
	navRepo repository.NavigationRepository,
	catRepo repository.CategoryRepository,
	prodRepo repository.ProductRepository,
	historyRepo repository.HistoryRepository,
) CatalogBrowser {
	return &catalogBrowserUseCase{
		navRepo:     navRepo,
		catRepo:     catRepo,
		prodRepo:    prodRepo,
		historyRepo: historyRepo,
	}
}

func (uc *catalogBrowserUseCase) ListNavigation(ctx context.Context) ([]*entity.NavigationWithCategories, error) {
	return uc.navRepo.List(ctx, categoryPreviewSize)
}

func (uc *catalogBrowserUseCase) GetCategory(ctx context.Context, slug string) (*entity.CategoryDetail, error) {
	category, err := uc.catRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	detail := &entity.CategoryDetail{Category: *category}
	if category.ParentID != nil {
		parent, err := uc.catRepo.FindByID(ctx, *category.ParentID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load parent category: %w", err)
		}
		detail.Parent = parent
	}

	children, err := uc.catRepo.FindChildren(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load child categories: %w", err)
	}
	detail.Children = children
	return detail, nil
}

func (uc *catalogBrowserUseCase) ListCategoryProducts(ctx context.Context, slug string, page, limit int) (*entity.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	category, err := uc.catRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	products, total, err := uc.prodRepo.ListByCategory(ctx, category.ID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for %q: %w", slug, err)
	}

	totalPages := (total + limit - 1) / limit
	return &entity.ProductPage{
		Products:   products,
		Category:   category,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (uc *catalogBrowserUseCase) GetProduct(ctx context.Context, id int64) (*entity.ProductView, error) {
	product, err := uc.prodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &entity.ProductView{Product: *product}

	detail, err := uc.prodRepo.GetDetail(ctx, product.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load product detail: %w", err)
	}
	view.Detail = detail

	reviews, err := uc.prodRepo.ListReviews(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	view.Reviews = reviews

	category, err := uc.catRepo.FindByID(ctx, product.CategoryID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	view.Category = category
	return view, nil
}

func (uc *catalogBrowserUseCase) RecordView(ctx context.Context, sessionID string, path json.RawMessage) (*entity.ViewHistory, error) {
	return uc.historyRepo.Save(ctx, &entity.ViewHistory{
		SessionID: sessionID,
		Path:      path,
	})
}
