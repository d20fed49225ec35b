package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tinyfeed/internal/store"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv_counters (
		name TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS kv_hashes (
		key_name TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (key_name, field)
	)`,
	`CREATE TABLE IF NOT EXISTS kv_sets (
		id BIGSERIAL PRIMARY KEY,
		key_name TEXT NOT NULL,
		member TEXT NOT NULL,
		UNIQUE (key_name, member)
	)`,
	`CREATE TABLE IF NOT EXISTS kv_lists (
		id BIGSERIAL PRIMARY KEY,
		key_name TEXT NOT NULL,
		value TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kv_lists_key_id ON kv_lists (key_name, id)`,
}

// Store keeps the key-value primitives in four Postgres tables behind a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New connects a pool to dsn.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 20
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.ConnConfig.StatementCacheCapacity = 64

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create kv tables: %w", err)
		}
	}
	return nil
}

func (s *Store) Incr(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO kv_counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = kv_counters.value + 1
		RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", name, err)
	}
	return value, nil
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM kv_hashes WHERE key_name = $1 AND field = $2`, key, field).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("hget %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT field, value FROM kv_hashes WHERE key_name = $1`, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan hash field: %w", err)
		}
		out[field] = value
	}
	return out, rows.Err()
}

func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for field, value := range fields {
		if _, err := tx.Exec(ctx, `
			INSERT INTO kv_hashes (key_name, field, value) VALUES ($1, $2, $3)
			ON CONFLICT (key_name, field) DO UPDATE SET value = EXCLUDED.value`,
			key, field, value,
		); err != nil {
			return fmt.Errorf("hset %s.%s: %w", key, field, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) HSetNX(ctx context.Context, key, field, value string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO kv_hashes (key_name, field, value) VALUES ($1, $2, $3)
		ON CONFLICT (key_name, field) DO NOTHING`, key, field, value)
	if err != nil {
		return false, fmt.Errorf("hsetnx %s.%s: %w", key, field, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SAdd(ctx context.Context, key, member string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO kv_sets (key_name, member) VALUES ($1, $2)
		ON CONFLICT (key_name, member) DO NOTHING`, key, member)
	if err != nil {
		return false, fmt.Errorf("sadd %s: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT member FROM kv_sets WHERE key_name = $1 ORDER BY id ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	return collect(rows)
}

func (s *Store) LPush(ctx context.Context, key, value string) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO kv_lists (key_name, value) VALUES ($1, $2)`, key, value); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	return nil
}

// LRange reads the length and the page in one snapshot so a concurrent
// LPush cannot shift the window between them.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var n int64
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM kv_lists WHERE key_name = $1`, key).Scan(&n); err != nil {
		return nil, fmt.Errorf("llen %s: %w", key, err)
	}

	from, to, ok := store.NormalizeRange(start, stop, n)
	if !ok {
		return []string{}, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT value FROM kv_lists
		WHERE key_name = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, key, to-from+1, from)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	out, err := collect(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func collect(rows pgx.Rows) ([]string, error) {
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
