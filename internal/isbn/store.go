package isbn

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StoreOptions selects and addresses a Repository backend.
type StoreOptions struct {
	Kind       string // postgres, sqlite, redis or memory
	DSN        string
	Pool       *pgxpool.Pool // reused by the postgres backend when set
	RedisAddr  string
	SQLitePath string
	Timeout    time.Duration
}

// OpenRepository builds the configured backend. The returned close function
// releases only what OpenRepository itself opened.
func OpenRepository(ctx context.Context, opts StoreOptions) (Repository, func() error, error) {
	noop := func() error { return nil }
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	switch opts.Kind {
	case "postgres":
		if opts.Pool != nil {
			return NewPostgresRepo(opts.Pool, opts.Timeout), noop, nil
		}
		pool, err := pgxpool.New(ctx, opts.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("create db pool: %w", err)
		}
		return NewPostgresRepo(pool, opts.Timeout), func() error { pool.Close(); return nil }, nil
	case "sqlite":
		repo, err := OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "redis":
		repo := NewRedisRepo(opts.RedisAddr, "", 0)
		return repo, repo.Close, nil
	case "memory", "":
		return NewMemoryRepo(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown isbn store %q", opts.Kind)
	}
}
