package webstorage

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "webstorage:"
	scanBatchSize  = 100
)

// Redis is a Storage scope backed by a Redis keyspace prefix.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Storage = (*Redis)(nil)

// NewRedis creates a Redis-backed scope. A zero ttl keeps keys until
// they are removed or the scope is cleared.
func NewRedis(client redis.UniversalClient, namespace string, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: redisKeyPrefix + namespace + ":",
		ttl:    ttl,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.ErrEmptyKey
	}

	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("webstorage: redis get %q: %w", key, err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("webstorage: redis set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("webstorage: redis del %q: %w", key, err)
	}
	return nil
}

// Clear scans the scope's prefix and deletes every match.
func (r *Redis) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("webstorage: redis scan %q: %w", r.prefix, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("webstorage: redis clear %q: %w", r.prefix, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// RedisFactory opens Redis scopes that share one client and TTL.
type RedisFactory struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ Factory = (*RedisFactory)(nil)

func NewRedisFactory(client redis.UniversalClient, ttl time.Duration) *RedisFactory {
	return &RedisFactory{client: client, ttl: ttl}
}

func (f *RedisFactory) Open(namespace string) Storage {
	return NewRedis(f.client, namespace, f.ttl)
}
