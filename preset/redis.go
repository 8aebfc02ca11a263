package preset

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash used when no key is configured.
const DefaultRedisKey = "wavfx:presets"

// RedisStore keeps all records as fields of one Redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKey sets the hash key. Default is "wavfx:presets".
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		s.key = key
	}
}

// WithTTL expires the hash after ttl without writes. Default is 0, no
// expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed preset store.
//
// Example:
//
//	store := NewRedisStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithKey("studio:presets"),
//	)
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		key:    DefaultRedisKey,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, name string) (Record, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	orderKey, paramKey, mixKey := Keys(name)
	fields := []string{orderKey, paramKey, mixKey}

	values, err := s.client.HMGet(ctx, s.key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget failed: %w", err)
	}

	r := Record{}

	for i, v := range values {
		if str, ok := v.(string); ok {
			r[fields[i]] = str
		}
	}

	if len(r) == 0 {
		return nil, ErrNotFound
	}

	return r, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, name string, r Record) error {
	if name == "" {
		return ErrInvalidName
	}

	fields := r.Select(name)
	if len(fields) == 0 {
		return fmt.Errorf("%w: no keys for %s", ErrInvalidPreset, name)
	}

	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, values)

	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}

	return nil
}
