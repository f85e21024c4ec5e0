package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/catalog-service/internal/entity"
	"github.com/user/catalog-service/internal/repository"
)

// JobRepoImpl provides a concrete implementation for the JobRepository
// interface using PostgreSQL.
type JobRepoImpl struct {
	db *pgxpool.Pool
}

// NewJobRepo creates a new instance of JobRepoImpl.
func NewJobRepo(db *pgxpool.Pool) *JobRepoImpl {
	return &JobRepoImpl{db: db}
}

const jobColumns = `id, target_url, target_kind, status, COALESCE(error, ''), created_at, started_at, finished_at`

// CreateOrGetActive inserts a PENDING job unless an in-flight job already
// exists for the URL. The partial unique index on (target_url) WHERE status
// IN ('PENDING','RUNNING') makes the check-then-act race safe: concurrent
// submits for the same URL resolve to a single row.
func (r *JobRepoImpl) CreateOrGetActive(ctx context.Context, targetURL string, kind entity.TargetKind) (*entity.ScrapeJob, bool, error) {
	query := `
		INSERT INTO scrape_jobs (id, target_url, target_kind, status, created_at)
		VALUES ($1, $2, $3, 'PENDING', NOW())
		ON CONFLICT (target_url) WHERE status IN ('PENDING', 'RUNNING') DO NOTHING
		RETURNING ` + jobColumns + `;
	`
	row := r.db.QueryRow(ctx, query, uuid.NewString(), targetURL, kind)
	job, err := scanJob(row)
	if err == nil {
		return job, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: another PENDING/RUNNING job holds the URL.
	existing := `
		SELECT ` + jobColumns + `
		FROM scrape_jobs
		WHERE target_url = $1 AND status IN ('PENDING', 'RUNNING')
		LIMIT 1;
	`
	job, err = scanJob(r.db.QueryRow(ctx, existing, targetURL))
	if errors.Is(err, pgx.ErrNoRows) {
		// The in-flight job finished between insert and read; retry once.
		return r.CreateOrGetActive(ctx, targetURL, kind)
	}
	if err != nil {
		return nil, false, err
	}
	return job, false, nil
}

// FindByID retrieves a job by its id.
func (r *JobRepoImpl) FindByID(ctx context.Context, id string) (*entity.ScrapeJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scrape_jobs WHERE id = $1;`
	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return job, err
}

// FindByStatus retrieves all jobs whose status is in the given set.
func (r *JobRepoImpl) FindByStatus(ctx context.Context, statuses []entity.JobStatus) ([]*entity.ScrapeJob, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	query := `SELECT ` + jobColumns + ` FROM scrape_jobs WHERE status = ANY($1) ORDER BY created_at;`
	rows, err := r.db.Query(ctx, query, values)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*entity.ScrapeJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Begin transitions a job to RUNNING. DONE and SKIPPED jobs are rejected;
// PENDING, FAILED and RUNNING are accepted because queue retries and
// crash-recovery resubmission re-enter processing from those states.
func (r *JobRepoImpl) Begin(ctx context.Context, id string) error {
	query := `
		UPDATE scrape_jobs
		SET status = 'RUNNING', started_at = NOW()
		WHERE id = $1 AND status NOT IN ('DONE', 'SKIPPED');
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrInvalidTransition
	}
	return nil
}

// Skip transitions a RUNNING job to SKIPPED, recording the reason.
func (r *JobRepoImpl) Skip(ctx context.Context, id, reason string) error {
	return r.finish(ctx, id, entity.JobSkipped, reason)
}

// Complete transitions a RUNNING job to DONE.
func (r *JobRepoImpl) Complete(ctx context.Context, id string) error {
	return r.finish(ctx, id, entity.JobDone, "")
}

// Fail transitions a RUNNING job to FAILED, retaining the error text.
func (r *JobRepoImpl) Fail(ctx context.Context, id, errText string) error {
	return r.finish(ctx, id, entity.JobFailed, errText)
}

func (r *JobRepoImpl) finish(ctx context.Context, id string, status entity.JobStatus, errText string) error {
	query := `
		UPDATE scrape_jobs
		SET status = $2, error = NULLIF($3, ''), finished_at = NOW()
		WHERE id = $1 AND status = 'RUNNING';
	`
	tag, err := r.db.Exec(ctx, query, id, status, errText)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrInvalidTransition
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.ScrapeJob, error) {
	var job entity.ScrapeJob
	err := row.Scan(
		&job.ID,
		&job.TargetURL,
		&job.TargetKind,
		&job.Status,
		&job.Error,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
