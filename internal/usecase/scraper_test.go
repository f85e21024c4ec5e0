package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

type scraperFixture struct {
	scraper  Scraper
	jobRepo  *fakeJobRepo
	navRepo  *fakeNavigationRepo
	catRepo  *fakeCategoryRepo
	prodRepo *fakeProductRepo
	fetcher  *fakeFetcher
}

func newScraperFixture(t *testing.T, fetcher *fakeFetcher) *scraperFixture {
	t.Helper()
	jobRepo := newFakeJobRepo()
	navRepo := newFakeNavigationRepo()
	catRepo := newFakeCategoryRepo()
	prodRepo := newFakeProductRepo()
	catRepo.products = prodRepo

	rec, err := NewReconciler(navRepo, catRepo, prodRepo, testBaseURL)
	require.NoError(t, err)

	return &scraperFixture{
		scraper:  NewScraper(jobRepo, navRepo, catRepo, prodRepo, fetcher, rec, time.Minute),
		jobRepo:  jobRepo,
		navRepo:  navRepo,
		catRepo:  catRepo,
		prodRepo: prodRepo,
		fetcher:  fetcher,
	}
}

func TestProcessJobSkipsFreshEntity(t *testing.T) {
	fetcher := &fakeFetcher{records: &entity.RawRecords{Kind: entity.KindProduct}}
	fx := newScraperFixture(t, fetcher)
	ctx := context.Background()

	productURL := testBaseURL + "/products/dune"
	recent := time.Now().Add(-time.Hour)
	_, err := fx.prodRepo.UpsertBySourceURL(ctx, &entity.Product{
		SourceID: "dune", Title: "Dune", SourceURL: productURL, Slug: "dune",
		CategoryID: 1, LastScrapedAt: &recent,
	})
	require.NoError(t, err)

	job, _, err := fx.jobRepo.CreateOrGetActive(ctx, productURL, entity.KindProduct)
	require.NoError(t, err)

	require.NoError(t, fx.scraper.ProcessJob(ctx, job.ID))

	got, err := fx.jobRepo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobSkipped, got.Status)
	assert.Equal(t, "Skipped: TTL fresh", got.Error)
	assert.Zero(t, fetcher.callCount(), "fresh data must not trigger a fetch")
}

func TestProcessJobFetchesStaleEntity(t *testing.T) {
	fetcher := &fakeFetcher{records: &entity.RawRecords{
		Kind: entity.KindProduct,
		ProductDetail: &entity.RawProductDetail{
			Title:           "Dune",
			DescriptionHTML: "<p>A desert planet.</p>",
			Reviews:         []entity.RawReview{{Author: "Paul", Rating: 5}},
		},
	}}
	fx := newScraperFixture(t, fetcher)
	ctx := context.Background()

	productURL := testBaseURL + "/products/dune"
	stale := time.Now().Add(-48 * time.Hour)
	product, err := fx.prodRepo.UpsertBySourceURL(ctx, &entity.Product{
		SourceID: "dune", Title: "Dune", SourceURL: productURL, Slug: "dune",
		CategoryID: 1, LastScrapedAt: &stale,
	})
	require.NoError(t, err)

	job, _, err := fx.jobRepo.CreateOrGetActive(ctx, productURL, entity.KindProduct)
	require.NoError(t, err)

	require.NoError(t, fx.scraper.ProcessJob(ctx, job.ID))

	got, err := fx.jobRepo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobDone, got.Status)
	assert.Equal(t, 1, fetcher.callCount())

	detail, err := fx.prodRepo.GetDetail(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.ReviewsCount)

	refreshed, err := fx.prodRepo.FindBySourceURL(ctx, productURL)
	require.NoError(t, err)
	require.NotNil(t, refreshed.LastScrapedAt)
	assert.True(t, refreshed.LastScrapedAt.After(stale))
}

func TestProcessJobFailsOnFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: repository.ErrNavigationFailed}
	fx := newScraperFixture(t, fetcher)
	ctx := context.Background()

	job, _, err := fx.jobRepo.CreateOrGetActive(ctx, testBaseURL+"/products/dune", entity.KindProduct)
	require.NoError(t, err)

	err = fx.scraper.ProcessJob(ctx, job.ID)
	assert.ErrorIs(t, err, repository.ErrNavigationFailed)

	got, err := fx.jobRepo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobFailed, got.Status)
	assert.Equal(t, repository.ErrNavigationFailed.Error(), got.Error)
}

func TestProcessJobIgnoresFinishedJobRedelivery(t *testing.T) {
	fetcher := &fakeFetcher{}
	fx := newScraperFixture(t, fetcher)
	ctx := context.Background()

	job, _, err := fx.jobRepo.CreateOrGetActive(ctx, testBaseURL+"/products/dune", entity.KindProduct)
	require.NoError(t, err)
	require.NoError(t, fx.jobRepo.Begin(ctx, job.ID))
	require.NoError(t, fx.jobRepo.Complete(ctx, job.ID))

	require.NoError(t, fx.scraper.ProcessJob(ctx, job.ID))
	assert.Zero(t, fetcher.callCount())
}

func TestProcessJobDropsUnknownJob(t *testing.T) {
	fetcher := &fakeFetcher{}
	fx := newScraperFixture(t, fetcher)

	require.NoError(t, fx.scraper.ProcessJob(context.Background(), "no-such-job"))
	assert.Zero(t, fetcher.callCount())
}

func TestProcessJobCategoryEndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{records: &entity.RawRecords{
		Kind: entity.KindCategory,
		ProductSummaries: []entity.RawProductSummary{
			{Title: entity.UnknownTitle, Link: "/products/war-and-peace"},
			{Title: "War and Peace", Author: "Leo Tolstoy", PriceText: "£3.99", Link: "/products/war-and-peace"},
		},
	}}
	fx := newScraperFixture(t, fetcher)
	ctx := context.Background()

	_, err := fx.navRepo.Upsert(ctx, "Books", "books", time.Now())
	require.NoError(t, err)

	listingURL := testBaseURL + "/collections/fiction-books"
	job, _, err := fx.jobRepo.CreateOrGetActive(ctx, listingURL, entity.KindCategory)
	require.NoError(t, err)

	require.NoError(t, fx.scraper.ProcessJob(ctx, job.ID))

	got, err := fx.jobRepo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobDone, got.Status)

	assert.Len(t, fx.prodRepo.products, 1)
	product, err := fx.prodRepo.FindBySourceURL(ctx, testBaseURL+"/products/war-and-peace")
	require.NoError(t, err)
	assert.Equal(t, "War and Peace", product.Title)

	category, err := fx.catRepo.FindBySlug(ctx, "fiction-books")
	require.NoError(t, err)
	require.NotNil(t, category.LastScrapedAt)
}
