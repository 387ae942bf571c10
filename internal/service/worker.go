package service

import (
	"context"
	"time"

	"rescue-coordination/internal/model"

	"github.com/sirupsen/logrus"
)

type AuditSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*model.AuditEvent, error)
	Push(ctx context.Context, event model.AuditEvent) error
}

type AuditPublisher interface {
	Publish(ctx context.Context, event model.AuditEvent) error
}

// AuditWorker forwards queued audit events to the broker. Events that fail to
// publish are pushed back onto the queue.
type AuditWorker struct {
	source    AuditSource
	publisher AuditPublisher
	logger    *logrus.Logger
	wait      time.Duration
	backoff   time.Duration
}

func NewAuditWorker(source AuditSource, publisher AuditPublisher, logger *logrus.Logger) *AuditWorker {
	return &AuditWorker{
		source:    source,
		publisher: publisher,
		logger:    logger,
		wait:      5 * time.Second,
		backoff:   time.Second,
	}
}

func (w *AuditWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !w.step(ctx) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.backoff):
			}
		}
	}
}

// step handles at most one event. It returns false when the caller should
// back off before trying again.
func (w *AuditWorker) step(ctx context.Context) bool {
	event, err := w.source.Pop(ctx, w.wait)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		w.logger.WithError(err).Error("BLPop audit queue error")
		return false
	}
	if event == nil {
		return true
	}

	if err := w.publisher.Publish(ctx, *event); err != nil {
		auditPublishedTotal.WithLabelValues("error").Inc()
		w.logger.WithError(err).WithField("report_id", event.ReportID).Error("publish audit event")
		// ctx may already be cancelled; requeue on a fresh one so the event survives shutdown
		requeueCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := w.source.Push(requeueCtx, *event); err != nil {
			w.logger.WithError(err).WithField("report_id", event.ReportID).Error("requeue audit event")
		}
		return false
	}
	auditPublishedTotal.WithLabelValues("ok").Inc()
	return true
}
