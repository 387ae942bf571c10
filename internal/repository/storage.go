package repository

import (
	"context"
	"fmt"

	"rescue-coordination/internal/config"
	"rescue-coordination/internal/lifecycle"

	"github.com/sirupsen/logrus"
)

// Storage bundles the report store and the optional audit queue built from
// configuration.
type Storage struct {
	postgres *PostgresStore
	memory   *MemoryStore
	audit    *AuditQueue
}

// NewStorage connects to Postgres when a database URL is configured and falls
// back to an in-memory store otherwise. Redis is used only when an address is
// configured.
func NewStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Storage, error) {
	s := &Storage{}

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is empty, using in-memory report store")
		s.memory = NewMemoryStore()
	} else {
		pg, err := NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pg.CreateTables(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		s.postgres = pg
	}

	if cfg.Redis.Addr == "" {
		logger.Warn("REDIS_ADDR is empty, audit events are logged only")
		return s, nil
	}
	q, err := NewAuditQueue(ctx, cfg.Redis, cfg.AuditQueue)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.audit = q
	return s, nil
}

func (s *Storage) Reports() lifecycle.Store {
	if s.postgres != nil {
		return s.postgres
	}
	return s.memory
}

// Audit returns the Redis audit queue, or nil when Redis is not configured.
func (s *Storage) Audit() *AuditQueue {
	return s.audit
}

// Ping checks both backends. A nil error means the backend is healthy or not
// configured.
func (s *Storage) Ping(ctx context.Context) (dbErr, redisErr error) {
	if s.postgres != nil {
		dbErr = s.postgres.Ping(ctx)
	}
	if s.audit != nil {
		redisErr = s.audit.Ping(ctx)
	}
	return dbErr, redisErr
}

func (s *Storage) Close() error {
	var errPostgres, errRedis error

	if s.postgres != nil {
		errPostgres = s.postgres.Close()
	}
	if s.audit != nil {
		errRedis = s.audit.Close()
	}

	if errPostgres != nil || errRedis != nil {
		return fmt.Errorf("close errors: postgres=%v, redis=%v", errPostgres, errRedis)
	}
	return nil
}
