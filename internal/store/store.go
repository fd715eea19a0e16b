// Package store persists evaluation results keyed by claim identifier.
// Writes are last-write-wins per key; the core never deletes records.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/verisci/internal/model"
)

// Backend names
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// ErrNotFound is returned by Get when no record exists for an identifier
var ErrNotFound = errors.New("evaluation not found")

// StorageError wraps a backend failure
type StorageError struct {
	Op  string // "open", "get", "put", "close"
	ID  model.ClaimID
	Err error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.ID.Short(), e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store defines the interface for evaluation persistence.
// Implementations are safe for concurrent use.
type Store interface {
	// Put stores result under id, replacing any previous record
	Put(ctx context.Context, id model.ClaimID, result *model.EvaluationResult) error

	// Get returns the record for id, or an error wrapping ErrNotFound
	Get(ctx context.Context, id model.ClaimID) (*model.EvaluationResult, error)

	// Close releases the backend
	Close() error
}

// Open creates the backend selected by cfg
func Open(cfg model.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(cfg.Backend) {
	case BackendFile, "":
		return OpenFileStore(cfg.Path)

	case BackendBadger:
		return OpenBadgerStore(BadgerConfig{
			Path:       cfg.Path,
			SyncWrites: true,
			Logger:     logger,
		})

	case BackendMemory:
		return NewMemoryStore(), nil

	default:
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("unknown backend %q (supported: file, badger, memory)", cfg.Backend)}
	}
}

// checkPut validates arguments shared by every backend
func checkPut(id model.ClaimID, result *model.EvaluationResult) error {
	if err := id.Validate(); err != nil {
		return &StorageError{Op: "put", ID: id, Err: err}
	}
	if result == nil {
		return &StorageError{Op: "put", ID: id, Err: errors.New("nil result")}
	}
	return nil
}

// toRecord strips the key from the stored value; the key already holds it
func toRecord(result *model.EvaluationResult) *model.EvaluationResult {
	rec := result.Clone()
	rec.ClaimID = ""
	return rec
}

func fromRecord(id model.ClaimID, rec *model.EvaluationResult) *model.EvaluationResult {
	result := rec.Clone()
	result.ClaimID = id
	return result
}
