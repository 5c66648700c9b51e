package labs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
	"github.com/prasanna12art/skill-boost-automator/internal/store"
)

const subscriberBuffer = 64

// Store is the authoritative ordered collection of labs. Reads return clones;
// writes replace one whole record and persist the full snapshot under the
// "labs" key.
type Store struct {
	mu    sync.RWMutex
	labs  []models.Lab
	index map[string]int

	kv     store.KV
	logger *slog.Logger

	subMu sync.Mutex
	subs  map[chan models.Lab]struct{}
}

// NewStore loads the persisted snapshot from kv. An absent or undecodable
// value is replaced by seed, which is written back immediately.
func NewStore(kv store.KV, seed []models.Lab, logger *slog.Logger) (*Store, error) {
	s := &Store{
		kv:     kv,
		logger: logger,
		subs:   make(map[chan models.Lab]struct{}),
	}

	raw, found, err := kv.Get(store.KeyLabs)
	if err != nil {
		return nil, fmt.Errorf("load labs: %w", err)
	}

	var loaded []models.Lab
	if found {
		if err := json.Unmarshal(raw, &loaded); err != nil {
			logger.Warn("persisted labs undecodable, reseeding", "error", err)
			found = false
		}
	}

	if !found {
		loaded = make([]models.Lab, len(seed))
		for i, l := range seed {
			loaded[i] = l.Clone()
		}
	}

	s.labs = make([]models.Lab, 0, len(loaded))
	s.index = make(map[string]int, len(loaded))
	for _, l := range loaded {
		if _, dup := s.index[l.ID]; dup || l.ID == "" {
			logger.Warn("skipping lab with empty or duplicate id", "lab_id", l.ID)
			continue
		}
		l.Normalize()
		s.index[l.ID] = len(s.labs)
		s.labs = append(s.labs, l)
	}

	if !found {
		if err := s.persistLocked(); err != nil {
			return nil, fmt.Errorf("seed labs: %w", err)
		}
		logger.Info("seeded lab catalog", "count", len(s.labs))
	}

	return s, nil
}

// All returns an ordered snapshot of every lab.
func (s *Store) All() []models.Lab {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Lab, len(s.labs))
	for i, l := range s.labs {
		out[i] = l.Clone()
	}
	return out
}

// Get returns the lab with the given id.
func (s *Store) Get(id string) (models.Lab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Lab{}, false
	}
	return s.labs[i].Clone(), true
}

// Len returns the number of labs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.labs)
}

// Replace swaps the record for id with lab, keeping its position. It reports
// false and changes nothing when id is absent. A persistence failure leaves the
// in-memory update in place and is returned.
func (s *Store) Replace(id string, lab models.Lab) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false, nil
	}
	return true, s.replaceLocked(i, id, lab)
}

// Modify applies fn to the current record for id and stores the result when
// fn reports a change. The read and the write happen under one lock, so a
// concurrent Replace cannot land in between. It returns the record as stored
// afterwards and whether id exists.
func (s *Store) Modify(id string, fn func(models.Lab) (models.Lab, bool)) (models.Lab, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return models.Lab{}, false, nil
	}

	next, changed := fn(s.labs[i].Clone())
	if !changed {
		return s.labs[i].Clone(), true, nil
	}
	err := s.replaceLocked(i, id, next)
	return s.labs[i].Clone(), true, err
}

func (s *Store) replaceLocked(i int, id string, lab models.Lab) error {
	lab = lab.Clone()
	lab.ID = id
	lab.Normalize()
	s.labs[i] = lab

	s.notify(lab.Clone())

	if err := s.persistLocked(); err != nil {
		s.logger.Error("persist labs failed", "lab_id", id, "error", err)
		return err
	}
	return nil
}

func (s *Store) persistLocked() error {
	raw, err := json.Marshal(s.labs)
	if err != nil {
		return fmt.Errorf("encode labs: %w", err)
	}
	if err := s.kv.Set(store.KeyLabs, raw); err != nil {
		return fmt.Errorf("persist labs: %w", err)
	}
	return nil
}

// Subscribe returns a channel receiving every replaced record. Delivery is
// best effort: a full channel drops the update.
func (s *Store) Subscribe() chan models.Lab {
	ch := make(chan models.Lab, subscriberBuffer)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (s *Store) Unsubscribe(ch chan models.Lab) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *Store) notify(lab models.Lab) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- lab.Clone():
		default:
			s.logger.Debug("subscriber full, dropping lab update", "lab_id", lab.ID)
		}
	}
}
