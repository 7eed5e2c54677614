package intel

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("intel: session not found")

// Store persists session intelligence. Implementations must be safe for
// concurrent use.
type Store interface {
	Put(ctx context.Context, rec *SessionIntel) error
	Get(ctx context.Context, sessionID string) (*SessionIntel, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryStore keeps records in a map behind one mutex. Contention is not
// a concern at honeypot traffic rates; a single coarse lock keeps the
// invariants easy to reason about.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*SessionIntel
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*SessionIntel)}
}

// Put stores a copy of rec keyed by its session id.
func (s *MemoryStore) Put(_ context.Context, rec *SessionIntel) error {
	cp := *rec
	cp.Artifacts = *rec.Artifacts.Clone()
	cp.Keywords = append([]string(nil), rec.Keywords...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SessionID] = &cp
	return nil
}

// Get returns a copy of the record for sessionID.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*SessionIntel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	cp.Artifacts = *rec.Artifacts.Clone()
	cp.Keywords = append([]string(nil), rec.Keywords...)
	return &cp, nil
}

// Delete removes the record for sessionID, if present.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionID)
	return nil
}

// List returns all stored session ids, sorted.
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
