package preset

import (
	"context"
	"sync"

	"github.com/cwbudde/wavfx/effectchain"
)

// Store loads and saves preset records by name.
type Store interface {
	// Load returns the record of name or ErrNotFound.
	Load(ctx context.Context, name string) (Record, error)
	// Save replaces the record of name.
	Save(ctx context.Context, name string, r Record) error
}

// LoadChain reads name from s and decodes it.
func LoadChain(ctx context.Context, s Store, name string) (effectchain.Chain, error) {
	r, err := s.Load(ctx, name)
	if err != nil {
		return effectchain.Chain{}, err
	}

	return Decode(name, r)
}

// SaveChain encodes c and stores it under name.
func SaveChain(ctx context.Context, s Store, name string, c effectchain.Chain) error {
	return s.Save(ctx, name, Encode(name, c))
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]string)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string) (Record, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r := Record(s.records).Select(name)
	if len(r) == 0 {
		return nil, ErrNotFound
	}

	return r, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, name string, r Record) error {
	if name == "" {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range r.Select(name) {
		s.records[k] = v
	}

	return nil
}
