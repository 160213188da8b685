package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultMemorySize = 256

// Cache is one namespace of cached values: an in-process LRU in front of an
// optional persistent Store. Values are checksummed on the way to the store;
// a corrupt or expired entry reads as a miss.
type Cache struct {
	namespace string
	store     Store
	mem       *expirable.LRU[string, []byte]
	ttl       time.Duration
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl        time.Duration
	memorySize int
}

// WithTTL sets how long entries live. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithMemorySize bounds the in-process tier.
func WithMemorySize(n int) Option {
	return func(o *options) {
		o.memorySize = n
	}
}

// New builds a cache for namespace. A nil store keeps entries in memory only.
func New(namespace string, store Store, opts ...Option) *Cache {
	o := options{memorySize: defaultMemorySize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.memorySize <= 0 {
		o.memorySize = defaultMemorySize
	}
	return &Cache{
		namespace: namespace,
		store:     store,
		mem:       expirable.NewLRU[string, []byte](o.memorySize, nil, o.ttl),
		ttl:       o.ttl,
	}
}

// Namespace returns the name the cache was opened with.
func (c *Cache) Namespace() string { return c.namespace }

// Get returns the value for key and whether it was found.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	log := zap.L().With(zap.String("namespace", c.namespace), zap.String("key", key))

	if v, ok := c.mem.Get(key); ok {
		log.Debug("cache hit", zap.String("tier", "memory"))
		return v, true, nil
	}
	if c.store == nil {
		log.Debug("cache miss")
		return nil, false, nil
	}

	sealed, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: get %s/%s", c.namespace, key)
	}
	if sealed == nil {
		log.Debug("cache miss")
		return nil, false, nil
	}

	v, err := unseal(sealed)
	if err != nil {
		log.Warn("cache entry discarded", zap.Error(err))
		return nil, false, nil
	}

	c.mem.Add(key, v)
	log.Debug("cache hit", zap.String("tier", "store"))
	return v, true, nil
}

// Put stores val under key in every tier.
func (c *Cache) Put(ctx context.Context, key string, val []byte) error {
	if c.store != nil {
		if err := c.store.Set(ctx, key, seal(val), c.ttl); err != nil {
			return eris.Wrapf(err, "cache: put %s/%s", c.namespace, key)
		}
	}
	c.mem.Add(key, val)
	return nil
}

// Close releases the persistent store.
func (c *Cache) Close() error {
	c.mem.Purge()
	if c.store == nil {
		return nil
	}
	return eris.Wrapf(c.store.Close(), "cache: close %s", c.namespace)
}

// GetJSON reads a JSON-encoded value.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		zap.L().Warn("cache entry not decodable",
			zap.String("namespace", c.namespace),
			zap.String("key", key),
			zap.Error(err),
		)
		return out, false, nil
	}
	return out, true, nil
}

// PutJSON stores v JSON-encoded.
func PutJSON[T any](ctx context.Context, c *Cache, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "cache: marshal %s/%s", c.namespace, key)
	}
	return c.Put(ctx, key, raw)
}
