package repository

import (
	"context"

	"github.com/user/catalog-service/internal/entity"
)

// JobRepository manages scrape job records and enforces the lifecycle
// state machine at the storage layer.
type JobRepository interface {
	// CreateOrGetActive creates a new PENDING job for the URL, or returns the
	// existing PENDING/RUNNING job if one is already in flight. The boolean
	// reports whether a new job was created. At-most-one in-flight job per
	// URL is guaranteed by a partial unique index, not by a read-then-write
	// check.
	CreateOrGetActive(ctx context.Context, targetURL string, kind entity.TargetKind) (*entity.ScrapeJob, bool, error)
	// FindByID retrieves a job by its id.
	FindByID(ctx context.Context, id string) (*entity.ScrapeJob, error)
	// FindByStatus retrieves all jobs whose status is in the given set.
	FindByStatus(ctx context.Context, statuses []entity.JobStatus) ([]*entity.ScrapeJob, error)
	// Begin transitions a job to RUNNING and stamps its start time. Jobs
	// already in DONE or SKIPPED are rejected with ErrInvalidTransition.
	Begin(ctx context.Context, id string) error
	// Skip transitions a RUNNING job to SKIPPED, recording the reason.
	Skip(ctx context.Context, id, reason string) error
	// Complete transitions a RUNNING job to DONE.
	Complete(ctx context.Context, id string) error
	// Fail transitions a RUNNING job to FAILED, retaining the error text.
	Fail(ctx context.Context, id, errText string) error
}
