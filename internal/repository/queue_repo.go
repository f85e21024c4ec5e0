package repository

import (
	"context"
	"time"
)

// QueueMessage is the unit of work delivered to the worker pool. Attempt
// starts at 1 and is incremented by the pool on each retry.
type QueueMessage struct {
	JobID   string `json:"job_id"`
	Attempt int    `json:"attempt"`
}

// QueueRepository is an at-least-once execution queue with delayed retries
// and a retained dead-letter list for exhausted messages.
type QueueRepository interface {
	// Enqueue places a message on the ready queue.
	Enqueue(ctx context.Context, msg QueueMessage) error
	// Pop removes and returns the next ready message, or ErrQueueEmpty.
	Pop(ctx context.Context) (*QueueMessage, error)
	// RetryLater schedules a message to become ready again after the delay.
	RetryLater(ctx context.Context, msg QueueMessage, delay time.Duration) error
	// Bury moves an exhausted message to the dead-letter list. Buried
	// messages are retained for inspection, never dropped.
	Bury(ctx context.Context, msg QueueMessage, reason string) error
	// PromoteDue moves messages whose retry delay has elapsed back onto the
	// ready queue and returns how many were promoted.
	PromoteDue(ctx context.Context, now time.Time) (int, error)
	// Depth returns the number of ready messages.
	Depth(ctx context.Context) (int64, error)
}
