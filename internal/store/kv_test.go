package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "companion.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKVStoreGetSet(t *testing.T) {
	kv := NewKVStore(openTestDB(t))

	if _, found, err := kv.Get(KeyLabs); err != nil || found {
		t.Fatalf("expected absent key, got found=%v err=%v", found, err)
	}

	if err := kv.Set(KeyTheme, []byte("dark")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(KeyTheme, []byte("light")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	got, found, err := kv.Get(KeyTheme)
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if string(got) != "light" {
		t.Errorf("expected light, got %q", got)
	}

	ts, err := kv.UpdatedAt(KeyTheme)
	if err != nil {
		t.Fatalf("UpdatedAt: %v", err)
	}
	if ts == 0 {
		t.Error("expected non-zero updated_at")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "companion.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := NewKVStore(db).Set(KeyLabs, []byte("[]")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()

	count, err := db.KeyCount()
	if err != nil {
		t.Fatalf("KeyCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 key after reopen, got %d", count)
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}
	if err := NewKVStore(db).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestRedisKV(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	kv, err := OpenRedis(addr, "companion-test:"+t.Name()+":")
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer kv.Close()

	if _, found, err := kv.Get("missing"); err != nil || found {
		t.Fatalf("expected absent key, got found=%v err=%v", found, err)
	}
	if err := kv.Set(KeyTheme, []byte("dark")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := kv.Get(KeyTheme)
	if err != nil || !found || string(got) != "dark" {
		t.Fatalf("Get: got=%q found=%v err=%v", got, found, err)
	}
}
