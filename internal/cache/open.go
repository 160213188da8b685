package cache

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-finder/internal/config"
)

// Namespaces of the two caches.
const (
	NamespaceTown     = "town"
	NamespaceParcelle = "parcelles"
)

// Open builds the cache for namespace on the configured backend. The caller
// owns the returned cache and must Close it.
func Open(ctx context.Context, cfg config.CacheConfig, namespace string) (*Cache, error) {
	store, err := openStore(ctx, cfg, namespace)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("cache opened",
		zap.String("namespace", namespace),
		zap.String("driver", cfg.Driver),
		zap.Duration("ttl", cfg.TTL),
	)
	return New(namespace, store, WithTTL(cfg.TTL), WithMemorySize(cfg.MemorySize)), nil
}

func openStore(ctx context.Context, cfg config.CacheConfig, namespace string) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return nil, nil

	case "sqlite", "":
		dir := cfg.Dir
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "cache: create dir %s", dir)
		}
		st, err := NewSQLite(filepath.Join(dir, namespace+".cache.db"))
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		purged, err := st.DeleteExpired(ctx)
		if err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		zap.L().Debug("expired cache entries purged", zap.String("namespace", namespace), zap.Int("purged", purged))
		return st, nil

	case "redis":
		st, err := NewRedis(ctx, cfg.RedisAddr, namespace)
		if err != nil {
			return nil, err
		}
		return st, nil

	case "postgres":
		st, err := NewPostgres(ctx, cfg.DatabaseURL, namespace)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil

	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}
