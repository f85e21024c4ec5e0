package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/catalog-service/internal/repository"
	"github.com/user/catalog-service/internal/usecase"
	"github.com/user/catalog-service/pkg/metrics"
)

// Options configure a Pool.
type Options struct {
	// Workers is the number of concurrent consumers (steady-state
	// parallelism cap).
	Workers int
	// RateLimitPerSec caps how many executions may start per rolling second,
	// independent of the concurrency cap.
	RateLimitPerSec int
	// MaxAttempts is the per-message attempt ceiling.
	MaxAttempts int
	// RetryBaseDelay is the first retry delay; it doubles on each attempt.
	RetryBaseDelay time.Duration
	// PollInterval is how long an idle worker sleeps before re-checking the
	// queue, and the cadence of delayed-message promotion.
	PollInterval time.Duration
}

// Pool pulls queue messages and runs them through the scraper use case,
// applying the concurrency cap, the admission rate limit and the
// retry-with-backoff policy.
type Pool struct {
	queue   repository.QueueRepository
	scraper usecase.Scraper
	limiter *rate.Limiter
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a worker pool. It does not start consuming until Start.
func NewPool(queue repository.QueueRepository, scraper usecase.Scraper, opts Options) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:   queue,
		scraper: scraper,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitPerSec),
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers and the delayed-message promoter.
func (p *Pool) Start() {
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.wg.Add(1)
	go p.promoter()
	slog.Info("Worker pool started",
		"workers", p.opts.Workers, "rate_limit_per_sec", p.opts.RateLimitPerSec)
}

// Stop cancels in-progress polling and waits for workers to drain. A fetch
// already in flight is not cancelled mid-way; its job is left RUNNING and
// swept back into the pipeline on the next process start.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	slog.Info("Worker pool stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		msg, err := p.queue.Pop(p.ctx)
		if err != nil {
			if errors.Is(err, repository.ErrQueueEmpty) {
				if !p.sleep(p.opts.PollInterval) {
					return
				}
				continue
			}
			if p.ctx.Err() != nil {
				return
			}
			slog.Error("Failed to pop queue message", "worker", id, "error", err)
			if !p.sleep(p.opts.PollInterval) {
				return
			}
			continue
		}

		// Admission control: bounds burst starts per second on top of the
		// worker-count concurrency cap.
		if err := p.limiter.Wait(p.ctx); err != nil {
			return
		}

		p.process(*msg)
	}
}

func (p *Pool) process(msg repository.QueueMessage) {
	slog.Info("Processing queue message",
		"job_id", msg.JobID, "attempt", msg.Attempt, "max_attempts", p.opts.MaxAttempts)

	err := p.scraper.ProcessJob(p.ctx, msg.JobID)
	if err == nil {
		return
	}

	if msg.Attempt >= p.opts.MaxAttempts {
		slog.Error("Attempts exhausted, burying message",
			"job_id", msg.JobID, "attempt", msg.Attempt, "error", err)
		if buryErr := p.queue.Bury(context.Background(), msg, err.Error()); buryErr != nil {
			slog.Error("Failed to bury message", "job_id", msg.JobID, "error", buryErr)
		}
		metrics.DeadLetterTotal.Inc()
		return
	}

	delay := backoffDelay(p.opts.RetryBaseDelay, msg.Attempt)
	slog.Warn("Attempt failed, scheduling retry",
		"job_id", msg.JobID, "attempt", msg.Attempt, "retry_in", delay, "error", err)
	retry := repository.QueueMessage{JobID: msg.JobID, Attempt: msg.Attempt + 1}
	if retryErr := p.queue.RetryLater(context.Background(), retry, delay); retryErr != nil {
		slog.Error("Failed to schedule retry", "job_id", msg.JobID, "error", retryErr)
	}
	metrics.JobsProcessedTotal.WithLabelValues("retried").Inc()
}

// promoter periodically moves due delayed messages onto the ready queue and
// keeps the queue-depth gauge current.
func (p *Pool) promoter() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.queue.PromoteDue(p.ctx, time.Now()); err != nil && p.ctx.Err() == nil {
				slog.Error("Failed to promote delayed messages", "error", err)
			}
			if depth, err := p.queue.Depth(p.ctx); err == nil {
				metrics.JobsInQueue.Set(float64(depth))
			}
		}
	}
}

func (p *Pool) sleep(d time.Duration) bool {
	select {
	case <-p.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// backoffDelay returns the exponential backoff delay before the next attempt:
// base after the first failure, doubling each attempt thereafter.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}
