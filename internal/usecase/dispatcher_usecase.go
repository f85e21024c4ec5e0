package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
	"github.com/user/catalog-service/pkg/metrics"
)

// Dispatcher accepts scrape requests and turns them into queued jobs.
type Dispatcher interface {
	// Submit returns the existing in-flight job for the URL if one exists
	// (idempotent enqueue), otherwise creates a PENDING job and places a
	// message on the execution queue.
	Submit(ctx context.Context, targetURL string, kind entity.TargetKind) (*entity.ScrapeJob, error)
	// GetStatus retrieves a job by id.
	GetStatus(ctx context.Context, jobID string) (*entity.ScrapeJob, error)
	// ResumePending re-enqueues all PENDING and RUNNING jobs found at
	// process start. Partial work is not assumed to have survived a crash;
	// jobs re-enter the pipeline from the top.
	ResumePending(ctx context.Context) (int, error)
}

type dispatcherUseCase struct {
	jobRepo   repository.JobRepository
	queueRepo repository.QueueRepository
}

// NewDispatcher creates the job dispatch use case.
func NewDispatcher(jobRepo repository.JobRepository, queueRepo repository.QueueRepository) Dispatcher {
	return &dispatcherUseCase{jobRepo: jobRepo, queueRepo: queueRepo}
}

func (uc *dispatcherUseCase) Submit(ctx context.Context, targetURL string, kind entity.TargetKind) (*entity.ScrapeJob, error) {
	job, created, err := uc.jobRepo.CreateOrGetActive(ctx, targetURL, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to create job for %s: %w", targetURL, err)
	}
	if !created {
		slog.Info("Job already in flight", "job_id", job.ID, "url", targetURL)
		return job, nil
	}

	if err := uc.queueRepo.Enqueue(ctx, repository.QueueMessage{JobID: job.ID, Attempt: 1}); err != nil {
		return nil, fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}
	metrics.JobsEnqueuedTotal.Inc()
	slog.Info("Enqueued scrape job", "job_id", job.ID, "url", targetURL, "kind", kind)
	return job, nil
}

func (uc *dispatcherUseCase) GetStatus(ctx context.Context, jobID string) (*entity.ScrapeJob, error) {
	return uc.jobRepo.FindByID(ctx, jobID)
}

func (uc *dispatcherUseCase) ResumePending(ctx context.Context) (int, error) {
	jobs, err := uc.jobRepo.FindByStatus(ctx, []entity.JobStatus{entity.JobPending, entity.JobRunning})
	if err != nil {
		return 0, fmt.Errorf("failed to find resumable jobs: %w", err)
	}
	for _, job := range jobs {
		if err := uc.queueRepo.Enqueue(ctx, repository.QueueMessage{JobID: job.ID, Attempt: 1}); err != nil {
			return 0, fmt.Errorf("failed to re-enqueue job %s: %w", job.ID, err)
		}
	}
	if len(jobs) > 0 {
		slog.Info("Resumed unfinished jobs", "count", len(jobs))
	}
	return len(jobs), nil
}
