package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"rescue-coordination/internal/config"
	"rescue-coordination/internal/events"
	"rescue-coordination/internal/geo"
	"rescue-coordination/internal/handler"
	"rescue-coordination/internal/middleware"
	"rescue-coordination/internal/repository"
	"rescue-coordination/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, envFile := config.Load()
	if err := cfg.CheckSecrets(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
	}
	if envFile {
		logger.Info("Loaded .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := repository.NewStorage(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize storage")
	}

	resolver, err := geo.NewResolverFromConfig(cfg.FallbackPositions)
	if err != nil {
		logger.WithError(err).Fatal("invalid FALLBACK_POSITIONS")
	}

	var recorder service.Recorder
	if q := storage.Audit(); q != nil {
		recorder = q
	}
	reportService := service.NewReportService(storage.Reports(), resolver, recorder, storage, logger)

	reg := prometheus.NewRegistry()
	if err := middleware.RegisterMetrics(reg,
		append(service.Collectors(), collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))...,
	); err != nil {
		logger.WithError(err).Fatal("failed to register metrics")
	}

	if cfg.JWTSecret == "" {
		logger.Warn("ALLOW_DEV_SECRET is set, signing tokens with the public development secret")
	}
	auth := middleware.NewAuthenticator(cfg.JWTSecret)

	h := handler.NewHandler(logger, reportService)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(auth, middleware.MetricsHandler(reg)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server ListenAndServe error")
		}
	}()

	logger.WithField("addr", cfg.HTTPAddr).Info("Server started")

	var (
		publisher  *events.Publisher
		workerDone = make(chan struct{})
	)
	switch {
	case cfg.RabbitMQURL == "":
		logger.Info("RABBITMQ_URL is empty, audit forwarding disabled")
	case storage.Audit() == nil:
		logger.Warn("RABBITMQ_URL is set but REDIS_ADDR is empty, audit forwarding disabled")
	default:
		publisher, err = events.Connect(cfg.RabbitMQURL, cfg.AuditExchange)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to rabbitmq")
		}
		worker := service.NewAuditWorker(storage.Audit(), publisher, logger)
		go func() {
			defer close(workerDone)
			worker.Run(ctx)
		}()
	}
	if publisher == nil {
		close(workerDone)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("server forced to shutdown")
	} else {
		logger.Info("Server stopped gracefully")
	}

	// the worker may still be requeueing its last event
	<-workerDone

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.WithError(err).Warn("publisher close error")
		}
	}

	if err := storage.Close(); err != nil {
		logger.WithError(err).Warn("storage close error")
	} else {
		logger.Info("Storage closed")
	}
}
