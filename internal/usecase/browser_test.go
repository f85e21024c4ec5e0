package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

type fakeHistoryRepo struct {
	mu     sync.Mutex
	nextID int64
	saved  []*entity.ViewHistory
}

func (f *fakeHistoryRepo) Save(_ context.Context, h *entity.ViewHistory) (*entity.ViewHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	saved := *h
	saved.ID = f.nextID
	saved.CreatedAt = time.Now()
	f.saved = append(f.saved, &saved)
	copied := saved
	return &copied, nil
}

func newBrowserFixture(t *testing.T) (CatalogBrowser, *fakeNavigationRepo, *fakeCategoryRepo, *fakeProductRepo, *fakeHistoryRepo) {
	t.Helper()
	navRepo := newFakeNavigationRepo()
	catRepo := newFakeCategoryRepo()
	prodRepo := newFakeProductRepo()
	historyRepo := &fakeHistoryRepo{}
	catRepo.products = prodRepo
	return NewCatalogBrowser(navRepo, catRepo, prodRepo, historyRepo), navRepo, catRepo, prodRepo, historyRepo
}

func TestListCategoryProductsPaginates(t *testing.T) {
	browser, _, catRepo, prodRepo, _ := newBrowserFixture(t)
	ctx := context.Background()

	category, err := catRepo.Create(ctx, &entity.Category{Title: "Fiction", Slug: "fiction-books"})
	require.NoError(t, err)

	for _, title := range []string{"Anna Karenina", "Dune", "Emma", "Hamlet", "Ulysses"} {
		_, err := prodRepo.UpsertBySourceURL(ctx, &entity.Product{
			SourceID: title, Title: title, SourceURL: "https://example.com/products/" + title,
			Slug: title, CategoryID: category.ID,
		})
		require.NoError(t, err)
	}

	page, err := browser.ListCategoryProducts(ctx, "fiction-books", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Emma", page.Products[0].Title)
}

func TestListCategoryProductsClampsPageAndLimit(t *testing.T) {
	browser, _, catRepo, _, _ := newBrowserFixture(t)
	ctx := context.Background()

	_, err := catRepo.Create(ctx, &entity.Category{Title: "Fiction", Slug: "fiction-books"})
	require.NoError(t, err)

	page, err := browser.ListCategoryProducts(ctx, "fiction-books", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
}

func TestListCategoryProductsUnknownSlug(t *testing.T) {
	browser, _, _, _, _ := newBrowserFixture(t)

	_, err := browser.ListCategoryProducts(context.Background(), "no-such-category", 1, 20)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetCategoryIncludesParentAndChildren(t *testing.T) {
	browser, _, catRepo, _, _ := newBrowserFixture(t)
	ctx := context.Background()

	parent, err := catRepo.Create(ctx, &entity.Category{Title: "Books", Slug: "books"})
	require.NoError(t, err)
	parentID := parent.ID
	child, err := catRepo.Create(ctx, &entity.Category{Title: "Fiction", Slug: "fiction-books", ParentID: &parentID})
	require.NoError(t, err)
	childID := child.ID
	_, err = catRepo.Create(ctx, &entity.Category{Title: "Sci-Fi", Slug: "sci-fi", ParentID: &childID})
	require.NoError(t, err)

	detail, err := browser.GetCategory(ctx, "fiction-books")
	require.NoError(t, err)
	require.NotNil(t, detail.Parent)
	assert.Equal(t, "books", detail.Parent.Slug)
	require.Len(t, detail.Children, 1)
	assert.Equal(t, "sci-fi", detail.Children[0].Slug)
}

func TestGetProductToleratesMissingDetail(t *testing.T) {
	browser, _, catRepo, prodRepo, _ := newBrowserFixture(t)
	ctx := context.Background()

	category, err := catRepo.Create(ctx, &entity.Category{Title: "Fiction", Slug: "fiction-books"})
	require.NoError(t, err)
	product, err := prodRepo.UpsertBySourceURL(ctx, &entity.Product{
		SourceID: "dune", Title: "Dune", SourceURL: "https://example.com/products/dune",
		Slug: "dune", CategoryID: category.ID,
	})
	require.NoError(t, err)

	view, err := browser.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", view.Product.Title)
	assert.Nil(t, view.Detail, "summary-only products have no detail yet")
	assert.Empty(t, view.Reviews)
	require.NotNil(t, view.Category)
	assert.Equal(t, "fiction-books", view.Category.Slug)
}

func TestRecordView(t *testing.T) {
	browser, _, _, _, historyRepo := newBrowserFixture(t)

	path := json.RawMessage(`["home","fiction-books","dune"]`)
	saved, err := browser.RecordView(context.Background(), "session-1", path)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "session-1", saved.SessionID)
	require.Len(t, historyRepo.saved, 1)
	assert.JSONEq(t, `["home","fiction-books","dune"]`, string(historyRepo.saved[0].Path))
}
