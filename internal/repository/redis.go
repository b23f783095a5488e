package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookingdesk/internal/config"
	"bookingdesk/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient creates a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// NewRedisSessionStore keeps the session under prefix. A zero ttl stores keys without expiry.
func NewRedisSessionStore(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisSessionStore) sessionKey() string { return r.prefix + ":session" }
func (r *RedisSessionStore) activeKey() string  { return r.prefix + ":active_booking" }

func (r *RedisSessionStore) GetSession(ctx context.Context) (*models.Session, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, r.sessionKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *RedisSessionStore) SaveSession(ctx context.Context, session *models.Session) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if session == nil {
		return r.Clear(ctx)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.sessionKey(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in redis: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) GetActiveBooking(ctx context.Context) (models.ID, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, r.activeKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get active booking from redis: %w", err)
	}
	return models.ID(val), nil
}

func (r *RedisSessionStore) SetActiveBooking(ctx context.Context, id models.ID) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if id == "" {
		return r.ClearActiveBooking(ctx)
	}
	if err := r.client.Set(ctx, r.activeKey(), id.String(), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set active booking in redis: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) ClearActiveBooking(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, r.activeKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete active booking from redis: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Clear(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, r.sessionKey(), r.activeKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
