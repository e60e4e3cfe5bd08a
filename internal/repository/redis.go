package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quickcourt/internal/config"
)

// RedisHoldRepository keeps short-lived slot holds in Redis. A hold marks
// a slot as claimed while the booking insert is in flight, damping
// thundering-herd races before they reach the database.
type RedisHoldRepository struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisHoldRepository(client *redis.Client) *RedisHoldRepository {
	return &RedisHoldRepository{client: client}
}

func holdKey(key string) string {
	return "slot_hold:" + key
}

// Acquire claims the hold if nobody else has it. Returns false when the
// slot is already held by another request.
func (r *RedisHoldRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	ok, err := r.client.SetNX(ctx, holdKey(key), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire hold in redis: %w", err)
	}
	return ok, nil
}

func (r *RedisHoldRepository) Release(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, holdKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release hold in redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
