package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ppiankov/verisci/internal/model"
)

type document map[model.ClaimID]*model.EvaluationResult

// FileStore keeps every record in a single JSON document mapping claim
// identifier to result. Nothing is held in memory: Get reads the document
// and Put runs a load-update-write cycle under an exclusive lock on a
// sidecar lock file, so several processes may share one document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// OpenFileStore checks the document at path, creating it on first Put
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = model.DefaultStorePath()
	}

	s := &FileStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	return s, nil
}

// Get retrieves a record from the current document
func (s *FileStore) Get(ctx context.Context, id model.ClaimID) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}

	// Writers replace the document by rename, so an unlocked read sees a complete version
	doc, err := s.load()
	if err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}

	rec, ok := doc[id]
	if !ok {
		return nil, &StorageError{Op: "get", ID: id, Err: ErrNotFound}
	}
	return fromRecord(id, rec), nil
}

// Put re-reads the document, sets the record and writes it back. A failed
// write leaves the previous document untouched.
func (s *FileStore) Put(ctx context.Context, id model.ClaimID, result *model.EvaluationResult) error {
	if err := checkPut(id, result); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "put", ID: id, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &StorageError{Op: "put", ID: id, Err: fmt.Errorf("create store dir: %w", err)}
	}

	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return &StorageError{Op: "put", ID: id, Err: err}
	}
	defer unlock()

	doc, err := s.load()
	if err != nil {
		return &StorageError{Op: "put", ID: id, Err: err}
	}
	doc[id] = toRecord(result)

	if err := s.flush(doc); err != nil {
		return &StorageError{Op: "put", ID: id, Err: err}
	}
	return nil
}

// Len returns the number of records in the document, or 0 if it cannot be read
func (s *FileStore) Len() int {
	doc, err := s.load()
	if err != nil {
		return 0
	}
	return len(doc)
}

// Close is a no-op; every Put is already durable
func (s *FileStore) Close() error {
	return nil
}

// load reads the document. A missing or empty file is an empty document.
func (s *FileStore) load() (document, error) {
	doc := make(document)

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return doc, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return doc, nil
}

// flush writes the document via temp file and rename. Caller holds the lock.
func (s *FileStore) flush(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}
