package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vytor/chesstactics/internal/logger"
)

const keyPrefix = "chesstactics:progress:"

// redisKV is the subset of *redis.Client the store needs.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps progress under one key per user.
type RedisStore struct {
	client redisKV
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.FromContext(ctx).WithPrefix("store").Info("connected to redis at %s (db=%d)", opts.Addr, opts.DB)
	return &RedisStore{client: client}, nil
}

func progressKey(userID string) string {
	return keyPrefix + userID
}

func (s *RedisStore) Load(ctx context.Context, userID string) ([]byte, error) {
	data, err := s.client.Get(ctx, progressKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("store").Error("redis get failed: user=%s: %v", userID, err)
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, blob []byte) error {
	if err := s.client.Set(ctx, progressKey(userID), blob, 0).Err(); err != nil {
		logger.FromContext(ctx).WithPrefix("store").Error("redis set failed: user=%s: %v", userID, err)
		return err
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, progressKey(userID)).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
