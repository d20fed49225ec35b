package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tinyfeed/internal/store"
)

const createTables = `
CREATE TABLE IF NOT EXISTS kv_counters (
	name TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS kv_hashes (
	key_name TEXT NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (key_name, field)
);
CREATE TABLE IF NOT EXISTS kv_sets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key_name TEXT NOT NULL,
	member TEXT NOT NULL,
	UNIQUE (key_name, member)
);
CREATE TABLE IF NOT EXISTS kv_lists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key_name TEXT NOT NULL,
	value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_kv_lists_key_id ON kv_lists(key_name, id);
`

// Store maps the key-value primitives onto four sqlite tables.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTables); err != nil {
		return fmt.Errorf("create kv tables: %w", err)
	}
	return nil
}

func (s *Store) Incr(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO kv_counters (name, value) VALUES (?, 1)
ON CONFLICT(name) DO UPDATE SET value = value + 1
RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", name, err)
	}
	return value, nil
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
SELECT value FROM kv_hashes WHERE key_name = ? AND field = ?`, key, field).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("hget %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT field, value FROM kv_hashes WHERE key_name = ?`, key)
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	for field, value := range fields {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO kv_hashes (key_name, field, value) VALUES (?, ?, ?)
ON CONFLICT(key_name, field) DO UPDATE SET value = excluded.value`,
			key, field, value,
		); err != nil {
			return fmt.Errorf("hset %s.%s: %w", key, field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) HSetNX(ctx context.Context, key, field, value string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO kv_hashes (key_name, field, value) VALUES (?, ?, ?)
ON CONFLICT(key_name, field) DO NOTHING`, key, field, value)
	if err != nil {
		return false, fmt.Errorf("hsetnx %s.%s: %w", key, field, err)
	}
	return inserted(res)
}

func (s *Store) SAdd(ctx context.Context, key, member string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO kv_sets (key_name, member) VALUES (?, ?)
ON CONFLICT(key_name, member) DO NOTHING`, key, member)
	if err != nil {
		return false, fmt.Errorf("sadd %s: %w", key, err)
	}
	return inserted(res)
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT member FROM kv_sets WHERE key_name = ? ORDER BY id ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	return collect(rows)
}

func (s *Store) LPush(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO kv_lists (key_name, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	return nil
}

func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	var n int64
	if err := tx.QueryRowContext(ctx, `
SELECT COUNT(*) FROM kv_lists WHERE key_name = ?`, key).Scan(&n); err != nil {
		return nil, fmt.Errorf("llen %s: %w", key, err)
	}

	from, to, ok := store.NormalizeRange(start, stop, n)
	if !ok {
		return []string{}, nil
	}

	rows, err := tx.QueryContext(ctx, `
SELECT value FROM kv_lists
WHERE key_name = ?
ORDER BY id DESC
LIMIT ? OFFSET ?`, key, to-from+1, from)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	out, err := collect(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func inserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func collect(rows *sql.Rows) ([]string, error) {
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
