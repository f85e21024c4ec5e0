package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
	"github.com/user/catalog-service/pkg/metrics"
)

// Scraper executes one scrape job end to end: state transitions, freshness
// gate, page fetch, reconciliation and entity-timestamp refresh.
type Scraper interface {
	// ProcessJob runs one execution attempt for the job. A non-nil error
	// means the attempt failed and is subject to the queue's retry policy.
	ProcessJob(ctx context.Context, jobID string) error
}

type scraperUseCase struct {
	jobRepo      repository.JobRepository
	navRepo      repository.NavigationRepository
	catRepo      repository.CategoryRepository
	prodRepo     repository.ProductRepository
	fetcher      repository.PageFetcher
	reconciler   *Reconciler
	fetchTimeout time.Duration
}

// NewScraper creates the scrape-execution use case.
func NewScraper(
	jobRepo repository.JobRepository,
	navRepo repository.NavigationRepository,
	catRepo repository.CategoryRepository,
	prodRepo repository.ProductRepository,
	fetcher repository.PageFetcher,
	reconciler *Reconciler,
	fetchTimeout time.Duration,
) Scraper {
	return &scraperUseCase{
		jobRepo:      jobRepo,
		navRepo:      navRepo,
		catRepo:      catRepo,
		prodRepo:     prodRepo,
		fetcher:      fetcher,
		reconciler:   reconciler,
		fetchTimeout: fetchTimeout,
	}
}

func (uc *scraperUseCase) ProcessJob(ctx context.Context, jobID string) error {
	job, err := uc.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The job row was purged between enqueue and delivery.
			slog.Warn("Dropping queue message for unknown job", "job_id", jobID)
			return nil
		}
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	// A re-delivered message for an already finished job is a no-op.
	if job.Status == entity.JobDone || job.Status == entity.JobSkipped {
		slog.Info("Job already finished, ignoring delivery", "job_id", jobID, "status", job.Status)
		return nil
	}

	if err := uc.jobRepo.Begin(ctx, jobID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			// Contract violation: only the single-consumer dispatch path may
			// start jobs. Surface loudly instead of guessing.
			slog.Error("Refusing to begin job in terminal state", "job_id", jobID, "status", job.Status)
			return fmt.Errorf("begin job %s: %w", jobID, err)
		}
		return fmt.Errorf("failed to begin job %s: %w", jobID, err)
	}

	lastScraped, err := uc.lastScrapedFor(ctx, job)
	if err != nil {
		return uc.fail(ctx, job, fmt.Errorf("freshness lookup failed: %w", err))
	}
	if IsFresh(job.TargetKind, lastScraped, time.Now()) {
		slog.Info("Skipping scrape, data is fresh",
			"job_id", jobID, "url", job.TargetURL, "kind", job.TargetKind)
		if err := uc.jobRepo.Skip(ctx, jobID, "Skipped: TTL fresh"); err != nil {
			return fmt.Errorf("failed to mark job %s skipped: %w", jobID, err)
		}
		metrics.JobsProcessedTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, uc.fetchTimeout)
	records, fetchErr := uc.fetcher.Fetch(fetchCtx, job.TargetURL, job.TargetKind)
	cancel()
	metrics.ScrapeDuration.WithLabelValues(string(job.TargetKind)).Observe(time.Since(start).Seconds())

	if fetchErr != nil {
		slog.Error("Fetch failed", "job_id", jobID, "url", job.TargetURL, "error", fetchErr)
		return uc.fail(ctx, job, fetchErr)
	}

	if err := uc.reconcile(ctx, job, records); err != nil {
		slog.Error("Reconciliation failed", "job_id", jobID, "url", job.TargetURL, "error", err)
		return uc.fail(ctx, job, err)
	}

	if err := uc.jobRepo.Complete(ctx, jobID); err != nil {
		return fmt.Errorf("failed to mark job %s done: %w", jobID, err)
	}
	uc.refreshEntityTimestamp(ctx, job)
	metrics.JobsProcessedTotal.WithLabelValues("done").Inc()
	slog.Info("Job completed", "job_id", jobID, "url", job.TargetURL, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (uc *scraperUseCase) reconcile(ctx context.Context, job *entity.ScrapeJob, records *entity.RawRecords) error {
	switch job.TargetKind {
	case entity.KindNavigation:
		return uc.reconciler.ReconcileNavigation(ctx, records.NavItems)
	case entity.KindCategory:
		return uc.reconciler.ReconcileCategory(ctx, job.TargetURL, records.ProductSummaries)
	case entity.KindProduct:
		return uc.reconciler.ReconcileProduct(ctx, job.TargetURL, records.ProductDetail)
	default:
		return fmt.Errorf("unsupported target kind %q", job.TargetKind)
	}
}

// fail records the attempt's error on the job and propagates it so the queue
// layer can apply its retry policy. The job reflects only the last attempt.
func (uc *scraperUseCase) fail(ctx context.Context, job *entity.ScrapeJob, cause error) error {
	if err := uc.jobRepo.Fail(ctx, job.ID, cause.Error()); err != nil {
		slog.Error("Failed to mark job failed", "job_id", job.ID, "error", err)
	}
	metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()
	return cause
}

// lastScrapedFor resolves the target entity's last-refreshed timestamp. The
// TTL is keyed on the entity, not the job, so repeated enqueues inside the
// window always short-circuit. An unknown entity is always stale.
func (uc *scraperUseCase) lastScrapedFor(ctx context.Context, job *entity.ScrapeJob) (*time.Time, error) {
	switch job.TargetKind {
	case entity.KindNavigation:
		nav, err := uc.navRepo.Latest(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return nav.LastScrapedAt, nil
	case entity.KindCategory:
		cat, err := uc.catRepo.FindBySourceURLMatch(ctx, job.TargetURL)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return cat.LastScrapedAt, nil
	case entity.KindProduct:
		product, err := uc.prodRepo.FindBySourceURL(ctx, job.TargetURL)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return product.LastScrapedAt, nil
	}
	return nil, nil
}

// refreshEntityTimestamp stamps last_scraped_at on the scraped target after a
// successful run. Failures here are logged, not fatal; the next freshness
// check simply sees older data.
func (uc *scraperUseCase) refreshEntityTimestamp(ctx context.Context, job *entity.ScrapeJob) {
	now := time.Now()
	var err error
	switch job.TargetKind {
	case entity.KindNavigation:
		err = uc.navRepo.TouchAll(ctx, now)
	case entity.KindCategory:
		err = uc.catRepo.TouchBySourceURLMatch(ctx, job.TargetURL, now)
	case entity.KindProduct:
		err = uc.prodRepo.TouchBySourceURL(ctx, job.TargetURL, now)
	}
	if err != nil {
		slog.Warn("Failed to refresh entity timestamp",
			"job_id", job.ID, "kind", job.TargetKind, "error", err)
	}
}
