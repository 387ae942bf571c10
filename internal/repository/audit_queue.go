package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rescue-coordination/internal/config"
	"rescue-coordination/internal/model"

	"github.com/redis/go-redis/v9"
)

// AuditQueue is a Redis list of pending audit events, drained by the audit
// worker.
type AuditQueue struct {
	client *redis.Client
	key    string
}

func NewAuditQueue(ctx context.Context, cfg config.RedisConfig, key string) (*AuditQueue, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		Username:     cfg.User,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewAuditQueueWithClient(client, key), nil
}

// NewAuditQueueWithClient wraps an existing client.
func NewAuditQueueWithClient(client *redis.Client, key string) *AuditQueue {
	if key == "" {
		key = config.DefaultAuditQueue
	}
	return &AuditQueue{client: client, key: key}
}

func (q *AuditQueue) Push(ctx context.Context, event model.AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, body).Err(); err != nil {
		return fmt.Errorf("push audit event: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next event. It returns nil, nil when the
// wait elapsed with an empty queue.
func (q *AuditQueue) Pop(ctx context.Context, timeout time.Duration) (*model.AuditEvent, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BLPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply of %d elements", len(res))
	}

	var event model.AuditEvent
	if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
		return nil, fmt.Errorf("unmarshal audit event: %w", err)
	}
	return &event, nil
}

func (q *AuditQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *AuditQueue) Close() error {
	return q.client.Close()
}
