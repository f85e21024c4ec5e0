package entity

import "time"

// JobStatus is the lifecycle state of a scrape job.
// PENDING and RUNNING are the only non-terminal states.
type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobRunning JobStatus = "RUNNING"
	JobDone    JobStatus = "DONE"
	JobFailed  JobStatus = "FAILED"
	JobSkipped JobStatus = "SKIPPED"
)

// Terminal reports whether no further transition is expected from this state.
// FAILED counts as terminal for the state machine even though the queue layer
// may re-deliver the same job id for another attempt.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed || s == JobSkipped
}

// TargetKind identifies which kind of page a job scrapes.
type TargetKind string

const (
	KindNavigation TargetKind = "NAVIGATION"
	KindCategory   TargetKind = "CATEGORY"
	KindProduct    TargetKind = "PRODUCT"
)

// ScrapeJob mirrors the `scrape_jobs` PostgreSQL table schema.
// It references content entities only by target URL, never by foreign key.
type ScrapeJob struct {
	ID         string
	TargetURL  string
	TargetKind TargetKind
	Status     JobStatus
	Error      string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}
