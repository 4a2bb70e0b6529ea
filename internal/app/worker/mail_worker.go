package worker

import (
	"context"
	"errors"
	"time"

	"peer_coach/internal/domain/model"
	"peer_coach/internal/platform/mailer"
	"peer_coach/internal/platform/queue"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// MailSource is the queue the worker drains.
type MailSource interface {
	Name() string
	Dequeue(ctx context.Context, timeout time.Duration) (*model.MailJob, error)
	Requeue(ctx context.Context, job model.MailJob) error
}

type MailWorker struct {
	queue       MailSource
	mailer      mailer.Mailer
	maxAttempts int
	pollTimeout time.Duration
	jobs        *prometheus.CounterVec
	logger      *zap.Logger
}

func NewMailWorker(q MailSource, m mailer.Mailer, maxAttempts int, jobs *prometheus.CounterVec, logger *zap.Logger) *MailWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &MailWorker{
		queue:       q,
		mailer:      m,
		maxAttempts: maxAttempts,
		pollTimeout: 5 * time.Second,
		jobs:        jobs,
		logger:      logger,
	}
}

// Start drains the queue until ctx is cancelled.
func (w *MailWorker) Start(ctx context.Context) {
	w.logger.Info("mail worker started", zap.String("queue", w.queue.Name()))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("mail worker stopping")
			return
		default:
		}

		if err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to read mail queue", zap.String("queue", w.queue.Name()), zap.Error(err))
			// Back off before retrying on Redis errors.
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		}
	}
}

// RunOnce waits up to the poll timeout for one job and handles it.
// An empty queue or an undecodable job is not an error.
func (w *MailWorker) RunOnce(ctx context.Context) error {
	job, err := w.queue.Dequeue(ctx, w.pollTimeout)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrEmpty):
			return nil
		case errors.Is(err, queue.ErrMalformedJob):
			w.jobs.WithLabelValues("failed").Inc()
			w.logger.Warn("dropped malformed mail job", zap.String("queue", w.queue.Name()), zap.Error(err))
			return nil
		}
		return err
	}
	w.process(ctx, *job)
	return nil
}

func (w *MailWorker) process(ctx context.Context, job model.MailJob) {
	log := w.logger.With(zap.String("job_id", job.ID), zap.Int("attempt", job.Attempts+1))

	err := w.mailer.Send(ctx, job.To, job.Subject, job.Body)
	if err == nil {
		w.jobs.WithLabelValues("sent").Inc()
		log.Info("mail sent")
		return
	}

	job.Attempts++
	if job.Attempts >= w.maxAttempts {
		w.jobs.WithLabelValues("failed").Inc()
		log.Error("mail dropped after final attempt", zap.Error(err))
		return
	}
	if rqErr := w.queue.Requeue(ctx, job); rqErr != nil {
		w.jobs.WithLabelValues("failed").Inc()
		log.Error("failed to requeue mail", zap.Error(rqErr), zap.NamedError("send_error", err))
		return
	}
	w.jobs.WithLabelValues("retried").Inc()
	log.Warn("mail send failed, requeued", zap.Error(err))
}
