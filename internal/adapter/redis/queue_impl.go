package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/catalog-service/internal/repository"
)

const (
	readyQueueKey   = "scrape:queue"
	delayedQueueKey = "scrape:queue:delayed"
	deadLetterKey   = "scrape:queue:dead"
)

// QueueRepoImpl implements the execution queue on Redis: a list for ready
// messages, a sorted set (scored by due time) for delayed retries, and a
// retained list for exhausted messages.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Enqueue adds a message to the left side of the ready list.
func (r *QueueRepoImpl) Enqueue(ctx context.Context, msg repository.QueueMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.LPush(ctx, readyQueueKey, payload).Err()
}

// Pop removes and returns a message from the right side of the ready list.
func (r *QueueRepoImpl) Pop(ctx context.Context) (*repository.QueueMessage, error) {
	payload, err := r.client.RPop(ctx, readyQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrQueueEmpty
		}
		return nil, err
	}
	var msg repository.QueueMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return nil, fmt.Errorf("malformed queue message %q: %w", payload, err)
	}
	return &msg, nil
}

// RetryLater schedules a message on the delayed sorted set, scored by the
// time at which it becomes ready again.
func (r *QueueRepoImpl) RetryLater(ctx context.Context, msg repository.QueueMessage, delay time.Duration) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	due := float64(time.Now().Add(delay).UnixMilli())
	return r.client.ZAdd(ctx, delayedQueueKey, redis.Z{Score: due, Member: payload}).Err()
}

type deadLetter struct {
	repository.QueueMessage
	Reason   string    `json:"reason"`
	BuriedAt time.Time `json:"buried_at"`
}

// Bury moves an exhausted message onto the dead-letter list. Dead letters
// are kept for operational inspection and never expire.
func (r *QueueRepoImpl) Bury(ctx context.Context, msg repository.QueueMessage, reason string) error {
	payload, err := json.Marshal(deadLetter{QueueMessage: msg, Reason: reason, BuriedAt: time.Now()})
	if err != nil {
		return err
	}
	return r.client.LPush(ctx, deadLetterKey, payload).Err()
}

// PromoteDue moves every delayed message whose due time has passed back onto
// the ready list.
func (r *QueueRepoImpl) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := r.client.ZRangeByScore(ctx, delayedQueueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.UnixMilli()),
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	pipe := r.client.TxPipeline()
	for _, payload := range due {
		pipe.LPush(ctx, readyQueueKey, payload)
		pipe.ZRem(ctx, delayedQueueKey, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(due), nil
}

// Depth returns the current number of ready messages.
func (r *QueueRepoImpl) Depth(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, readyQueueKey).Result()
}
