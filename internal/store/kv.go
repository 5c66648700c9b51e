package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Well-known keys.
const (
	KeyLabs  = "labs"
	KeyTheme = "theme"
)

// KV is the string-keyed persistence contract used by the lab store and the
// preferences. Get reports found=false for absent keys.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Ping(ctx context.Context) error
}

// KVStore persists values in the SQLite kv table.
type KVStore struct {
	db *DB
}

func NewKVStore(db *DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *KVStore) Set(key string, value []byte) error {
	now := time.Now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), now)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpdatedAt returns the unix time of the last write to key, or 0 if absent.
func (s *KVStore) UpdatedAt(key string) (int64, error) {
	var ts int64
	err := s.db.QueryRow(`SELECT updated_at FROM kv WHERE key = ?`, key).Scan(&ts)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("updated_at %s: %w", key, err)
	}
	return ts, nil
}
