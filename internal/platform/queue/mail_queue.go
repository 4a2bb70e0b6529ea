package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"peer_coach/internal/domain/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Dequeue when no job arrived before the timeout.
var ErrEmpty = errors.New("queue: empty")

// ErrMalformedJob is returned by Dequeue when the popped payload is not a
// mail job. The payload is already off the queue.
var ErrMalformedJob = errors.New("queue: malformed mail job")

// MailQueue is a FIFO of mail jobs stored in a Redis list.
// Producers LPUSH, the worker BRPOPs from the other end.
type MailQueue struct {
	rdb  *redis.Client
	name string
}

func NewMailQueue(rdb *redis.Client, name string) *MailQueue {
	return &MailQueue{rdb: rdb, name: name}
}

func (q *MailQueue) Name() string { return q.name }

func (q *MailQueue) Enqueue(ctx context.Context, job model.MailJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("failed to push mail job to Redis queue: %w", err)
	}
	return nil
}

// Requeue appends the job behind everything already waiting.
func (q *MailQueue) Requeue(ctx context.Context, job model.MailJob) error {
	return q.Enqueue(ctx, job)
}

// Dequeue blocks for up to timeout waiting for the next job.
func (q *MailQueue) Dequeue(ctx context.Context, timeout time.Duration) (*model.MailJob, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return nil, ErrEmpty
	}
	var job model.MailJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	return &job, nil
}

func (q *MailQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
