package store

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/verisci/internal/model"
)

// MemoryStore is a process-local store. Records never expire but do not
// survive a restart.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves a record
func (s *MemoryStore) Get(ctx context.Context, id model.ClaimID) (*model.EvaluationResult, error) {
	if val, found := s.cache.Get(string(id)); found {
		return fromRecord(id, val.(*model.EvaluationResult)), nil
	}
	return nil, &StorageError{Op: "get", ID: id, Err: ErrNotFound}
}

// Put stores a record
func (s *MemoryStore) Put(ctx context.Context, id model.ClaimID, result *model.EvaluationResult) error {
	if err := checkPut(id, result); err != nil {
		return err
	}
	s.cache.Set(string(id), toRecord(result), gocache.NoExpiration)
	return nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}

// Close drops all records
func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
