package selection

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/smart-worklog/internal/models"
)

// MemoryStore is a single-process Store. Expired entries are dropped lazily
// on read and in bulk by Prune.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*models.PendingSelection
	now     func() time.Time
}

// NewMemoryStore creates an empty store. A nil clock defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*models.PendingSelection),
		now:     now,
	}
}

func (s *MemoryStore) Put(_ context.Context, sel *models.PendingSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[sel.ID]; ok && !existing.Expired(s.now()) {
		return ErrSelectionExists
	}
	s.entries[sel.ID] = clone(sel)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.PendingSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, err := s.liveLocked(id)
	if err != nil {
		return nil, err
	}
	return clone(sel), nil
}

func (s *MemoryStore) Take(_ context.Context, id string) (*models.PendingSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, err := s.liveLocked(id)
	if err != nil {
		return nil, err
	}
	delete(s.entries, id)
	return sel, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Prune(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sel := range s.entries {
		if sel.Expired(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// liveLocked returns the entry for id, deleting it when expired
func (s *MemoryStore) liveLocked(id string) (*models.PendingSelection, error) {
	sel, ok := s.entries[id]
	if !ok {
		return nil, ErrSelectionMissing
	}
	if sel.Expired(s.now()) {
		delete(s.entries, id)
		return nil, ErrSelectionMissing
	}
	return sel, nil
}

func clone(sel *models.PendingSelection) *models.PendingSelection {
	c := *sel
	c.Candidates = append([]models.RankedCandidate(nil), sel.Candidates...)
	return &c
}
