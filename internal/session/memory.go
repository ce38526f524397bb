package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tgchan/tgchan/internal/entities"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	data *expirable.LRU[entities.Pseudonym, entities.PostID]
}

var _ Store = MemoryStore{}

// NewMemoryStore creates MemoryStore. Zero ttl means sessions never expire.
func NewMemoryStore(capacity int, ttl time.Duration) MemoryStore {
	return MemoryStore{
		data: expirable.NewLRU[entities.Pseudonym, entities.PostID](capacity, nil, ttl),
	}
}

// Get ...
func (s MemoryStore) Get(_ context.Context, p entities.Pseudonym) (entities.PostID, bool, error) {
	id, ok := s.data.Get(p)
	return id, ok, nil
}

// Set ...
func (s MemoryStore) Set(_ context.Context, p entities.Pseudonym, id entities.PostID) error {
	s.data.Add(p, id)
	return nil
}

// Delete ...
func (s MemoryStore) Delete(_ context.Context, p entities.Pseudonym) (bool, error) {
	return s.data.Remove(p), nil
}
