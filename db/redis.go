package db

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"homework-tracker/logger"
)

// RedisStore keeps each collection as one string value in Redis.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore creates a new RedisStore instance
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // absent key is not an error
		}
		return nil, fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}
	return raw, nil
}

// Write stores all entries in one MULTI/EXEC transaction.
func (s *RedisStore) Write(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(ctx, key, value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write collections to Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete collections from Redis: %w", err)
	}
	return nil
}

// Snapshot reads all keys with a single MGET.
func (s *RedisStore) Snapshot(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	values, err := s.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read collections from Redis: %w", err)
	}
	for i, key := range keys {
		switch v := values[i].(type) {
		case nil:
			out[key] = nil
		case string:
			out[key] = []byte(v)
		default:
			return nil, fmt.Errorf("unexpected Redis value type %T for %s", v, key)
		}
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}

	logger.LogInfo("Successfully connected to Redis", "addr", addr, "db", db)
	return rdb, nil
}
