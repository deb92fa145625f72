package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV on a Redis server, for deployments that already
// run one and prefer shared state over an embedded directory. Selected
// with KV_BACKEND=redis.
type RedisKV struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisKV(options *redis.Options, log *slog.Logger) *RedisKV {
	return &RedisKV{client: redis.NewClient(options), log: log}
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisKV) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisKV) ScanPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	values := make([][]byte, 0, len(raw))
	for _, v := range raw {
		// A key deleted between SCAN and MGET comes back nil; skip it.
		str, ok := v.(string)
		if !ok {
			continue
		}
		values = append(values, []byte(str))
	}
	return values, nil
}

func (s *RedisKV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisKV) Close() error {
	s.log.Info("Closing Redis client...")
	return s.client.Close()
}
