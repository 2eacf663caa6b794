package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"fuel-reconcile/internal/model"
	"fuel-reconcile/internal/reconcile"
)

// StoredResult is a reconciliation kept for later retrieval and export.
type StoredResult struct {
	ID        string
	CreatedAt time.Time
	Start     time.Time
	End       time.Time
	Assets    []model.Asset
	Result    *reconcile.Result
	Policy    reconcile.Policy

	expiresAt time.Time
}

// ResultStore keeps results in memory under a random id for a TTL.
type ResultStore struct {
	mu    sync.Mutex
	items map[string]*StoredResult
	ttl   time.Duration
	now   func() time.Time
}

// NewResultStore creates a store; a non-positive ttl means one hour.
func NewResultStore(ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultStore{
		items: make(map[string]*StoredResult),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores r under a fresh id and returns it.
func (s *ResultStore) Put(r StoredResult) *StoredResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	now := s.now()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.expiresAt = now.Add(s.ttl)
	s.items[r.ID] = &r
	return &r
}

// Get returns a live result.
func (s *ResultStore) Get(id string) (*StoredResult, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.items[id]
	if !ok {
		return nil, false
	}
	if s.now().After(r.expiresAt) {
		delete(s.items, id)
		return nil, false
	}
	return r, true
}

func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *ResultStore) pruneLocked() {
	now := s.now()
	for id, r := range s.items {
		if now.After(r.expiresAt) {
			delete(s.items, id)
		}
	}
}
