package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps each collection document as a plain Redis string value.
// Documents never expire; the record collection is the system of record, not
// a cache.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage wraps an existing Redis client. The optional prefix
// namespaces the keys when several deployments share one Redis instance.
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Get returns the document stored under key, or ErrNotFound.
func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.fullKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Put stores the document under key with no expiration.
func (s *RedisStorage) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.fullKey(key), value, 0).Err()
}

// Delete removes the document under key.
func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.fullKey(key)).Err()
}
