package queue

import (
	"context"
	"testing"
	"time"

	"peer_coach/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) *MailQueue {
	t.Helper()
	s := miniredis.RunT(t)
	rdb, err := ConnectRedis(context.Background(), s.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	return NewMailQueue(rdb, "test_mail")
}

func TestConnectRedisFailsForUnreachableServer(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestMailQueueIsFIFO(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, model.MailJob{To: "a@x.test", Subject: "first"}))
	require.NoError(t, q.Enqueue(ctx, model.MailJob{To: "b@x.test", Subject: "second"}))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Subject)
	assert.NotEmpty(t, first.ID)

	second, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "second", second.Subject)
}

func TestMailQueueRequeueKeepsAttempts(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Requeue(ctx, model.MailJob{ID: "job-1", To: "a@x.test", Attempts: 2}))

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, 2, job.Attempts)
}

func TestMailQueueDequeueEmpty(t *testing.T) {
	q := setupQueue(t)

	_, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestMailQueueDequeueMalformed(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()
	require.NoError(t, q.rdb.LPush(ctx, q.Name(), "{not json").Err())

	_, err := q.Dequeue(ctx, time.Second)
	assert.ErrorIs(t, err, ErrMalformedJob)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
