package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"peer_coach/internal/domain/model"
	"peer_coach/internal/platform/metrics"
	"peer_coach/internal/platform/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyMailer struct {
	mu       sync.Mutex
	failures int
	sent     []string
}

func (m *flakyMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, to)
	return nil
}

func setupWorker(t *testing.T, failures, maxAttempts int) (*MailWorker, *queue.MailQueue, *flakyMailer, *metrics.Metrics) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb, err := queue.ConnectRedis(context.Background(), s.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	q := queue.NewMailQueue(rdb, "mail_test")
	m := &flakyMailer{failures: failures}
	met := metrics.New()
	w := NewMailWorker(q, m, maxAttempts, met.MailJobs, zap.NewNop())
	w.pollTimeout = time.Second
	return w, q, m, met
}

func TestMailWorkerSends(t *testing.T) {
	w, q, m, met := setupWorker(t, 0, 3)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, model.MailJob{To: "a@x.test", Subject: "s", Body: "b"}))

	require.NoError(t, w.RunOnce(ctx))

	assert.Equal(t, []string{"a@x.test"}, m.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.MailJobs.WithLabelValues("sent")))
}

func TestMailWorkerRequeuesUntilAttemptsExhausted(t *testing.T) {
	w, q, m, met := setupWorker(t, 5, 3)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, model.MailJob{To: "a@x.test"}))

	for i := 0; i < 3; i++ {
		require.NoError(t, w.RunOnce(ctx))
	}

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, m.sent)
	assert.Equal(t, 2.0, testutil.ToFloat64(met.MailJobs.WithLabelValues("retried")))
	assert.Equal(t, 1.0, testutil.ToFloat64(met.MailJobs.WithLabelValues("failed")))
}

func TestMailWorkerRecoversAfterTransientFailure(t *testing.T) {
	w, q, m, _ := setupWorker(t, 1, 3)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, model.MailJob{To: "a@x.test"}))

	require.NoError(t, w.RunOnce(ctx))
	require.NoError(t, w.RunOnce(ctx))

	assert.Equal(t, []string{"a@x.test"}, m.sent)
}

func TestMailWorkerDropsMalformedJob(t *testing.T) {
	s := miniredis.RunT(t)
	rdb, err := queue.ConnectRedis(context.Background(), s.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	q := queue.NewMailQueue(rdb, "mail_test")
	m := &flakyMailer{}
	met := metrics.New()
	w := NewMailWorker(q, m, 3, met.MailJobs, zap.NewNop())
	w.pollTimeout = time.Second
	ctx := context.Background()

	s.Lpush("mail_test", "{not json")
	require.NoError(t, q.Enqueue(ctx, model.MailJob{To: "a@x.test"}))

	require.NoError(t, w.RunOnce(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(met.MailJobs.WithLabelValues("failed")))
	assert.Empty(t, m.sent)

	require.NoError(t, w.RunOnce(ctx))
	assert.Equal(t, []string{"a@x.test"}, m.sent)
}

func TestMailWorkerStopsOnCancel(t *testing.T) {
	w, _, _, _ := setupWorker(t, 0, 3)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
