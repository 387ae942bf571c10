package service

import (
	"context"

	"rescue-coordination/internal/model"

	"github.com/sirupsen/logrus"
)

// LogRecorder writes audit events to the log. It is used when no Redis queue
// is configured.
type LogRecorder struct {
	logger *logrus.Logger
}

func NewLogRecorder(logger *logrus.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Push(ctx context.Context, event model.AuditEvent) error {
	r.logger.WithFields(logrus.Fields{
		"report_id":  event.ReportID,
		"actor_id":   event.ActorID,
		"actor_role": event.ActorRole,
		"from":       event.From,
		"to":         event.To,
		"outcome":    event.Outcome,
		"trace_id":   event.TraceID,
	}).Info("audit")
	return nil
}
