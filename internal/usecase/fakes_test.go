package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

// In-memory fakes for the persistence and fetch collaborators. They mirror
// the upsert-by-unique-key semantics of the Postgres adapters closely enough
// for the pipeline logic to be exercised without a database.

type fakeNavigationRepo struct {
	mu       sync.Mutex
	nextID   int64
	sections map[string]*entity.Navigation
}

func newFakeNavigationRepo() *fakeNavigationRepo {
	return &fakeNavigationRepo{sections: make(map[string]*entity.Navigation)}
}

func (f *fakeNavigationRepo) Upsert(_ context.Context, title, slug string, scrapedAt time.Time) (*entity.Navigation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if nav, ok := f.sections[slug]; ok {
		at := scrapedAt
		nav.LastScrapedAt = &at
		copied := *nav
		return &copied, nil
	}
	f.nextID++
	at := scrapedAt
	nav := &entity.Navigation{ID: f.nextID, Title: title, Slug: slug, LastScrapedAt: &at}
	f.sections[slug] = nav
	copied := *nav
	return &copied, nil
}

func (f *fakeNavigationRepo) First(context.Context) (*entity.Navigation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var first *entity.Navigation
	for _, nav := range f.sections {
		if first == nil || nav.ID < first.ID {
			first = nav
		}
	}
	if first == nil {
		return nil, repository.ErrNotFound
	}
	copied := *first
	return &copied, nil
}

func (f *fakeNavigationRepo) Latest(context.Context) (*entity.Navigation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *entity.Navigation
	for _, nav := range f.sections {
		if nav.LastScrapedAt == nil {
			continue
		}
		if latest == nil || latest.LastScrapedAt == nil || nav.LastScrapedAt.After(*latest.LastScrapedAt) {
			latest = nav
		}
	}
	if latest == nil {
		// Fall back to any section so callers can still see "never scraped".
		for _, nav := range f.sections {
			latest = nav
			break
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeNavigationRepo) TouchAll(_ context.Context, scrapedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, nav := range f.sections {
		at := scrapedAt
		nav.LastScrapedAt = &at
	}
	return nil
}

func (f *fakeNavigationRepo) List(context.Context, int) ([]*entity.NavigationWithCategories, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.NavigationWithCategories
	for _, nav := range f.sections {
		out = append(out, &entity.NavigationWithCategories{Navigation: *nav})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Navigation.Title < out[j].Navigation.Title })
	return out, nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	nextID     int64
	categories map[string]*entity.Category
	products   *fakeProductRepo
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]*entity.Category)}
}

func (f *fakeCategoryRepo) Upsert(_ context.Context, c *entity.Category) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.categories[c.Slug]; ok {
		existing.Title = c.Title
		existing.SourceURL = c.SourceURL
		existing.NavigationID = c.NavigationID
		copied := *existing
		return &copied, nil
	}
	return f.createLocked(c)
}

func (f *fakeCategoryRepo) Create(_ context.Context, c *entity.Category) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createLocked(c)
}

func (f *fakeCategoryRepo) createLocked(c *entity.Category) (*entity.Category, error) {
	f.nextID++
	created := *c
	created.ID = f.nextID
	f.categories[c.Slug] = &created
	copied := created
	return &copied, nil
}

func (f *fakeCategoryRepo) FindBySlug(_ context.Context, slug string) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.categories[slug]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCategoryRepo) FindByID(_ context.Context, id int64) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCategoryRepo) FindChildren(_ context.Context, id int64) ([]*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var children []*entity.Category
	for _, c := range f.categories {
		if c.ParentID != nil && *c.ParentID == id {
			copied := *c
			children = append(children, &copied)
		}
	}
	return children, nil
}

func (f *fakeCategoryRepo) FindBySourceURLMatch(_ context.Context, url string) (*entity.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.SourceURL != "" && strings.Contains(url, c.SourceURL) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCategoryRepo) TouchBySourceURLMatch(_ context.Context, url string, scrapedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.SourceURL != "" && strings.Contains(url, c.SourceURL) {
			at := scrapedAt
			c.LastScrapedAt = &at
		}
	}
	return nil
}

func (f *fakeCategoryRepo) SyncProductCount(_ context.Context, id int64) error {
	if f.products == nil {
		return nil
	}
	count := 0
	f.products.mu.Lock()
	for _, p := range f.products.products {
		if p.CategoryID == id {
			count++
		}
	}
	f.products.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.ID == id {
			c.ProductCount = count
		}
	}
	return nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[string]*entity.Product
	details  map[int64]*entity.ProductDetail
	reviews  map[int64][]entity.Review
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[string]*entity.Product),
		details:  make(map[int64]*entity.ProductDetail),
		reviews:  make(map[int64][]entity.Review),
	}
}

func (f *fakeProductRepo) UpsertBySourceURL(_ context.Context, p *entity.Product) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.products[p.SourceURL]; ok {
		existing.Title = p.Title
		existing.Author = p.Author
		existing.Price = p.Price
		existing.ImageURL = p.ImageURL
		existing.LastScrapedAt = p.LastScrapedAt
		copied := *existing
		return &copied, nil
	}
	f.nextID++
	created := *p
	created.ID = f.nextID
	f.products[p.SourceURL] = &created
	copied := created
	return &copied, nil
}

func (f *fakeProductRepo) FindBySourceURL(_ context.Context, url string) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[url]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProductRepo) FindByID(_ context.Context, id int64) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProductRepo) ListByCategory(_ context.Context, categoryID int64, offset, limit int) ([]*entity.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*entity.Product
	for _, p := range f.products {
		if p.CategoryID == categoryID {
			copied := *p
			all = append(all, &copied)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeProductRepo) TouchBySourceURL(_ context.Context, url string, scrapedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[url]; ok {
		at := scrapedAt
		p.LastScrapedAt = &at
	}
	return nil
}

func (f *fakeProductRepo) UpsertDetail(_ context.Context, d *entity.ProductDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *d
	f.details[d.ProductID] = &copied
	return nil
}

func (f *fakeProductRepo) GetDetail(_ context.Context, productID int64) (*entity.ProductDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.details[productID]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProductRepo) ReplaceReviews(_ context.Context, productID int64, reviews []entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[productID] = append([]entity.Review(nil), reviews...)
	return nil
}

func (f *fakeProductRepo) ListReviews(_ context.Context, productID int64) ([]*entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Review
	for i := range f.reviews[productID] {
		copied := f.reviews[productID][i]
		out = append(out, &copied)
	}
	return out, nil
}

type fakeJobRepo struct {
	mu     sync.Mutex
	nextID int
	jobs   map[string]*entity.ScrapeJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*entity.ScrapeJob)}
}

func (f *fakeJobRepo) CreateOrGetActive(_ context.Context, targetURL string, kind entity.TargetKind) (*entity.ScrapeJob, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.TargetURL == targetURL && !job.Status.Terminal() {
			copied := *job
			return &copied, false, nil
		}
	}
	f.nextID++
	job := &entity.ScrapeJob{
		ID:         fmt.Sprintf("job-%d", f.nextID),
		TargetURL:  targetURL,
		TargetKind: kind,
		Status:     entity.JobPending,
		CreatedAt:  time.Now(),
	}
	f.jobs[job.ID] = job
	copied := *job
	return &copied, true, nil
}

func (f *fakeJobRepo) FindByID(_ context.Context, id string) (*entity.ScrapeJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeJobRepo) FindByStatus(_ context.Context, statuses []entity.JobStatus) ([]*entity.ScrapeJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.ScrapeJob
	for _, job := range f.jobs {
		for _, s := range statuses {
			if job.Status == s {
				copied := *job
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeJobRepo) Begin(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if job.Status == entity.JobDone || job.Status == entity.JobSkipped {
		return repository.ErrInvalidTransition
	}
	now := time.Now()
	job.Status = entity.JobRunning
	job.StartedAt = &now
	return nil
}

func (f *fakeJobRepo) Skip(_ context.Context, id, reason string) error {
	return f.finish(id, entity.JobSkipped, reason)
}

func (f *fakeJobRepo) Complete(_ context.Context, id string) error {
	return f.finish(id, entity.JobDone, "")
}

func (f *fakeJobRepo) Fail(_ context.Context, id, errText string) error {
	return f.finish(id, entity.JobFailed, errText)
}

func (f *fakeJobRepo) finish(id string, status entity.JobStatus, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if job.Status != entity.JobRunning {
		return repository.ErrInvalidTransition
	}
	now := time.Now()
	job.Status = status
	job.Error = errText
	job.FinishedAt = &now
	return nil
}

type fakeQueueRepo struct {
	mu       sync.Mutex
	enqueued []repository.QueueMessage
}

func (f *fakeQueueRepo) Enqueue(_ context.Context, msg repository.QueueMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, msg)
	return nil
}

func (f *fakeQueueRepo) Pop(context.Context) (*repository.QueueMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.enqueued) == 0 {
		return nil, repository.ErrQueueEmpty
	}
	msg := f.enqueued[0]
	f.enqueued = f.enqueued[1:]
	return &msg, nil
}

func (f *fakeQueueRepo) RetryLater(context.Context, repository.QueueMessage, time.Duration) error {
	return nil
}

func (f *fakeQueueRepo) Bury(context.Context, repository.QueueMessage, string) error {
	return nil
}

func (f *fakeQueueRepo) PromoteDue(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (f *fakeQueueRepo) Depth(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.enqueued)), nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	records *entity.RawRecords
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, _ entity.TargetKind) (*entity.RawRecords, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
