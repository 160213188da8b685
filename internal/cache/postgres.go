package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// pool defines the minimal database pool interface used by PostgresStore.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store on a shared parcel_cache table, one
// namespace column value per cache.
type PostgresStore struct {
	pool      pool
	namespace string
}

// NewPostgres connects to the database and pings it.
func NewPostgres(ctx context.Context, connString, namespace string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: p, namespace: namespace}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS parcel_cache (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BYTEA NOT NULL,
	stored_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ,
	PRIMARY KEY (namespace, key)
)`

// Migrate creates the cache table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM parcel_cache
		 WHERE namespace = $1 AND key = $2 AND (expires_at IS NULL OR expires_at > now())`,
		s.namespace, key,
	).Scan(&val)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get entry")
	}
	return val, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	var expiresAt *time.Time
	if ttl != 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO parcel_cache (namespace, key, value, stored_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = $3, stored_at = $4, expires_at = $5`,
		s.namespace, key, val, now, expiresAt,
	)
	return eris.Wrap(err, "postgres: set entry")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
