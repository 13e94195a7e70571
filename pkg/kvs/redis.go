package kvs

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/metrics"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// KeyPrefix namespaces every key written through the store
	KeyPrefix string
}

// RedisStore is a Store backed by Redis
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	logger ectologger.Logger
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg RedisConfig, logger ectologger.Logger) (*RedisStore, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Infof("Connected to Redis at %s", addr)

	return NewRedisStoreWithClient(rdb, cfg.KeyPrefix, logger), nil
}

// NewRedisStoreWithClient reuses an existing client
func NewRedisStoreWithClient(rdb *redis.Client, keyPrefix string, logger ectologger.Logger) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		prefix: keyPrefix,
		logger: logger,
	}
}

// Redis returns the underlying Redis client
func (s *RedisStore) Redis() *redis.Client {
	return s.rdb
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	defer metrics.ObserveKVS("get", time.Now())

	v, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("key", key).Error("failed to read key from redis")
		return "", errors.Wrapf(err, "kvs: failed to get %s", key)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	defer metrics.ObserveKVS("set", time.Now())

	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("key", key).Error("failed to write key to redis")
		return errors.Wrapf(err, "kvs: failed to set %s", key)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	defer metrics.ObserveKVS("remove", time.Now())

	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "kvs: failed to remove %s", key)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, errors.Wrapf(err, "kvs: failed to check %s", key)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
