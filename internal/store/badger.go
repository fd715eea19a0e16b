package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/ppiankov/verisci/internal/model"
)

const badgerKeyPrefix = "eval:"

// BadgerConfig configures the embedded BadgerDB backend
type BadgerConfig struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory runs without disk persistence (tests)
	InMemory bool

	// SyncWrites fsyncs every commit
	SyncWrites bool

	// Logger receives BadgerDB's internal logs; nil disables them
	Logger *slog.Logger
}

// badgerLogger adapts slog to badger.Logger
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Infof is demoted to Debug; badger is chatty at Info
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore keeps records in an embedded BadgerDB, one key per claim
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens or creates the database
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, &StorageError{Op: "open", Err: errors.New("path is required for persistent database")}
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, &StorageError{Op: "open", Err: fmt.Errorf("create database directory %s: %w", cfg.Path, err)}
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("open badger database: %w", err)}
	}

	return &BadgerStore{db: db}, nil
}

// Get retrieves a record
func (s *BadgerStore) Get(ctx context.Context, id model.ClaimID) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}

	var rec model.EvaluationResult
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &StorageError{Op: "get", ID: id, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &StorageError{Op: "get", ID: id, Err: err}
	}

	return fromRecord(id, &rec), nil
}

// Put stores a record
func (s *BadgerStore) Put(ctx context.Context, id model.ClaimID, result *model.EvaluationResult) error {
	if err := checkPut(id, result); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "put", ID: id, Err: err}
	}

	data, err := json.Marshal(toRecord(result))
	if err != nil {
		return &StorageError{Op: "put", ID: id, Err: fmt.Errorf("marshal record: %w", err)}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(id), data)
	})
	if err != nil {
		return &StorageError{Op: "put", ID: id, Err: err}
	}
	return nil
}

// Close closes the database
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	return nil
}

func badgerKey(id model.ClaimID) []byte {
	return []byte(badgerKeyPrefix + string(id))
}
