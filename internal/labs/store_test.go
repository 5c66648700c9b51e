package labs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
	"github.com/prasanna12art/skill-boost-automator/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openKV(t *testing.T) *store.KVStore {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "labs.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewKVStore(db)
}

func newTestStore(t *testing.T) (*Store, *store.KVStore) {
	t.Helper()
	kv := openKV(t)
	s, err := NewStore(kv, DefaultSeed(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, kv
}

type failingKV struct {
	data []byte
}

func (f *failingKV) Get(string) ([]byte, bool, error) { return f.data, f.data != nil, nil }
func (f *failingKV) Set(string, []byte) error { return errors.New("disk full") }
func (f *failingKV) Ping(context.Context) error { return nil }

func TestNewStoreSeedsAndPersists(t *testing.T) {
	s, kv := newTestStore(t)

	if s.Len() != 4 {
		t.Fatalf("expected 4 seeded labs, got %d", s.Len())
	}

	raw, found, err := kv.Get(store.KeyLabs)
	if err != nil || !found {
		t.Fatalf("expected seed to be written back, found=%v err=%v", found, err)
	}
	var persisted []models.Lab
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("decode persisted labs: %v", err)
	}
	if len(persisted) != 4 || persisted[2].ID != "3" {
		t.Errorf("unexpected persisted snapshot: %+v", persisted)
	}
}

func TestNewStoreLoadsPersistedSnapshot(t *testing.T) {
	kv := openKV(t)
	snapshot := []models.Lab{{ID: "only", Title: "Persisted", Difficulty: models.DifficultyExpert, Status: models.StatusMastered}}
	raw, _ := json.Marshal(snapshot)
	if err := kv.Set(store.KeyLabs, raw); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s, err := NewStore(kv, DefaultSeed(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	all := s.All()
	if len(all) != 1 || all[0].Title != "Persisted" {
		t.Fatalf("expected persisted snapshot, got %+v", all)
	}
	if all[0].CopilotSession.Status != models.CopilotIdle {
		t.Errorf("expected missing session to normalize to Idle, got %q", all[0].CopilotSession.Status)
	}
}

func TestNewStoreReseedsUndecodableValue(t *testing.T) {
	kv := openKV(t)
	if err := kv.Set(store.KeyLabs, []byte("{not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s, err := NewStore(kv, DefaultSeed(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Len() != 4 {
		t.Errorf("expected reseed to 4 labs, got %d", s.Len())
	}
}

func TestReplace(t *testing.T) {
	s, kv := newTestStore(t)

	t.Run("absent id is a no-op", func(t *testing.T) {
		before := s.All()
		ok, err := s.Replace("missing", models.Lab{ID: "missing", Title: "ghost"})
		if err != nil {
			t.Fatalf("Replace: %v", err)
		}
		if ok {
			t.Fatal("expected Replace on absent id to report false")
		}
		if !reflect.DeepEqual(before, s.All()) {
			t.Error("snapshot changed after replacing an absent id")
		}
	})

	t.Run("replaces in place and persists", func(t *testing.T) {
		lab, _ := s.Get("2")
		lab.Notes = "updated"
		lab.ID = "tampered"

		ok, err := s.Replace("2", lab)
		if err != nil || !ok {
			t.Fatalf("Replace: ok=%v err=%v", ok, err)
		}

		all := s.All()
		if all[1].ID != "2" || all[1].Notes != "updated" {
			t.Errorf("expected lab 2 updated in position 1 with id kept, got %+v", all[1])
		}

		raw, _, _ := kv.Get(store.KeyLabs)
		var persisted []models.Lab
		json.Unmarshal(raw, &persisted)
		if persisted[1].Notes != "updated" {
			t.Errorf("expected persisted notes updated, got %q", persisted[1].Notes)
		}
	})

	t.Run("returned values are copies", func(t *testing.T) {
		lab, _ := s.Get("1")
		lab.Steps[0].Title = "mutated"
		again, _ := s.Get("1")
		if again.Steps[0].Title == "mutated" {
			t.Error("Get leaked internal slice")
		}
	})
}

func TestReplacePersistFailureKeepsMemoryUpdate(t *testing.T) {
	seed := DefaultSeed()
	raw, _ := json.Marshal(seed)
	s, err := NewStore(&failingKV{data: raw}, nil, testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	lab, _ := s.Get("3")
	lab.Notes = "kept"
	ok, err := s.Replace("3", lab)
	if !ok || err == nil {
		t.Fatalf("expected ok with persistence error, got ok=%v err=%v", ok, err)
	}
	got, _ := s.Get("3")
	if got.Notes != "kept" {
		t.Errorf("expected in-memory update to stand, got %q", got.Notes)
	}
}

func TestModify(t *testing.T) {
	s, _ := newTestStore(t)

	got, found, err := s.Modify("4", func(l models.Lab) (models.Lab, bool) {
		l.Status = models.StatusInProgress
		return l, true
	})
	if err != nil || !found {
		t.Fatalf("Modify: found=%v err=%v", found, err)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("expected returned lab updated, got %q", got.Status)
	}

	_, found, _ = s.Modify("missing", func(l models.Lab) (models.Lab, bool) {
		t.Fatal("fn called for absent id")
		return l, false
	})
	if found {
		t.Error("expected found=false for absent id")
	}

	unchanged, _, _ := s.Modify("4", func(l models.Lab) (models.Lab, bool) {
		l.Title = "discarded"
		return l, false
	})
	if unchanged.Title == "discarded" {
		t.Error("expected unchanged record when fn reports no change")
	}
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	lab, _ := s.Get("1")
	lab.Notes = "streamed"
	s.Replace("1", lab)

	select {
	case got := <-ch:
		if got.ID != "1" || got.Notes != "streamed" {
			t.Errorf("unexpected update %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}

	s.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Error("expected channel closed after Unsubscribe")
	}
}
