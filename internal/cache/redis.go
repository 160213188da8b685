package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const redisKeyPrefix = "parcel-finder"

// RedisOption tunes the Redis client.
type RedisOption func(*redis.Options)

// WithDialTimeout sets the connect timeout.
func WithDialTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) { o.DialTimeout = d }
}

// WithReadTimeout sets the read timeout.
func WithReadTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) { o.ReadTimeout = d }
}

// RedisStore implements Store on Redis. Each namespace owns the key prefix
// "parcel-finder:<namespace>:".
type RedisStore struct {
	rdb       *redis.Client
	namespace string
}

// NewRedis connects to addr and pings it.
func NewRedis(ctx context.Context, addr, namespace string, opts ...RedisOption) (*RedisStore, error) {
	if addr == "" {
		return nil, eris.New("redis: address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     4,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrapf(err, "redis: ping %s", addr)
	}
	return &RedisStore{rdb: rdb, namespace: namespace}, nil
}

func (s *RedisStore) key(k string) string {
	return redisKeyPrefix + ":" + s.namespace + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "redis: GET %s", s.key(key))
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	// Negative durations mean KEEPTTL to go-redis; an already expired entry
	// is simply removed.
	if ttl < 0 {
		return eris.Wrapf(s.rdb.Del(ctx, s.key(key)).Err(), "redis: DEL %s", s.key(key))
	}
	return eris.Wrapf(s.rdb.Set(ctx, s.key(key), val, ttl).Err(), "redis: SET %s", s.key(key))
}

func (s *RedisStore) Close() error {
	return eris.Wrap(s.rdb.Close(), "redis: close")
}
