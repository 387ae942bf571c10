package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"rescue-coordination/internal/config"
	"rescue-coordination/internal/events"
	"rescue-coordination/internal/model"

	"github.com/sirupsen/logrus"
)

func main() {
	queue := flag.String("queue", "", "queue name; empty declares an exclusive queue")
	pattern := flag.String("pattern", "report.#", "routing key pattern")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, _ := config.Load()
	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub, err := events.Subscribe(cfg.RabbitMQURL, cfg.AuditExchange, *queue, *pattern)
	if err != nil {
		logger.WithError(err).Fatal("failed to subscribe to audit exchange")
	}
	defer sub.Close()

	logger.WithFields(logrus.Fields{
		"exchange": cfg.AuditExchange,
		"queue":    sub.Queue(),
		"pattern":  *pattern,
	}).Info("Waiting for audit events")

	err = sub.Run(ctx, func(ctx context.Context, e model.AuditEvent) error {
		entry := logger.WithFields(logrus.Fields{
			"report_id": e.ReportID,
			"actor_id":  e.ActorID,
			"role":      e.ActorRole,
			"from":      e.From,
			"to":        e.To,
			"urgent":    e.Urgent,
			"trace_id":  e.TraceID,
		})
		switch e.Outcome {
		case model.AuditRefused:
			entry.Warn("transition refused")
		case model.AuditConflict:
			entry.Warn("transition conflict")
		default:
			entry.Info("transition applied")
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Error("audit listener stopped")
	}
}
