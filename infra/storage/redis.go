package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fraudops/fieldkit/core/faults"
)

// RedisConfig defines the connection parameters for the Redis store.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// TimeoutSeconds bounds each command. Zero defaults to 5 seconds.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// RedisStore backs the durable contract with a Redis instance, for hosts
// that share queue state with a companion backend.
type RedisStore struct {
	cli     *redis.Client
	timeout time.Duration
}

// NewRedisStore connects and pings the instance.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cli := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, faults.Transient("redis connect", fmt.Errorf("ping %s: %w", cfg.Addr, err))
	}
	return &RedisStore{cli: cli, timeout: timeout}, nil
}

func (s *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *RedisStore) Load(key string) ([]byte, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	data, err := s.cli.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, faults.Storage("redis load", err)
	}
	return data, nil
}

func (s *RedisStore) Save(key string, data []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.cli.Set(ctx, key, data, 0).Err(); err != nil {
		return faults.Storage("redis save", err)
	}
	return nil
}

func (s *RedisStore) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.cli.Del(ctx, key).Err(); err != nil {
		return faults.Storage("redis delete", err)
	}
	return nil
}

func (s *RedisStore) Keys(prefix string) ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	keys, err := s.cli.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return nil, faults.Storage("redis keys", err)
	}
	return keys, nil
}

// Close releases the client connection pool.
func (s *RedisStore) Close() error { return s.cli.Close() }
