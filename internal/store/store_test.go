package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verisci/internal/claim"
	"github.com/ppiankov/verisci/internal/model"
)

func testID(t *testing.T, text string) model.ClaimID {
	t.Helper()
	id, err := claim.Identify(text)
	require.NoError(t, err)
	return id
}

func testResult(score int) *model.EvaluationResult {
	return &model.EvaluationResult{
		Score:       score,
		Confidence:  model.ConfidenceMedium,
		Explanation: fmt.Sprintf("verdict %d", score),
		Factors:     []string{"factor a", "factor b"},
		Tier:        model.TierPrimary,
		Claim:       "All apples are green.",
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		EvaluatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// backends returns a fresh instance of every backend
func backends(t *testing.T) map[string]Store {
	t.Helper()

	file, err := OpenFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	bdb, err := OpenBadgerStore(BadgerConfig{InMemory: true})
	require.NoError(t, err)

	stores := map[string]Store{
		BackendFile:   file,
		BackendBadger: bdb,
		BackendMemory: NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	id := testID(t, "All apples are green.")

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, id, testResult(42)))

			got, err := s.Get(ctx, id)
			require.NoError(t, err)

			assert.Equal(t, id, got.ClaimID)
			assert.Equal(t, 42, got.Score)
			assert.Equal(t, model.ConfidenceMedium, got.Confidence)
			assert.Equal(t, []string{"factor a", "factor b"}, got.Factors)
			assert.Equal(t, model.TierPrimary, got.Tier)
			assert.Equal(t, "All apples are green.", got.Claim)
			assert.True(t, got.EvaluatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	id := testID(t, "Never stored.")

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), id)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)

			var storageErr *StorageError
			require.ErrorAs(t, err, &storageErr)
			assert.Equal(t, "get", storageErr.Op)
		})
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	id := testID(t, "All apples are green.")

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, id, testResult(10)))
			require.NoError(t, s.Put(ctx, id, testResult(90)))

			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 90, got.Score)
		})
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	id := testID(t, "All apples are green.")

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			in := testResult(50)
			require.NoError(t, s.Put(ctx, id, in))
			in.Factors[0] = "mutated"

			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "factor a", got.Factors[0])
		})
	}
}

func TestStore_RejectsInvalidPut(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var storageErr *StorageError

			err := s.Put(ctx, model.ClaimID("not-a-digest"), testResult(1))
			require.ErrorAs(t, err, &storageErr)
			assert.Equal(t, "put", storageErr.Op)

			err = s.Put(ctx, testID(t, "x"), nil)
			require.ErrorAs(t, err, &storageErr)
		})
	}
}

func TestStore_ConcurrentPuts(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ids := make([]model.ClaimID, 20)
			for i := range ids {
				ids[i] = testID(t, fmt.Sprintf("claim number %d", i))
			}

			var wg sync.WaitGroup
			for i, id := range ids {
				wg.Add(1)
				go func(i int, id model.ClaimID) {
					defer wg.Done()
					assert.NoError(t, s.Put(ctx, id, testResult(i)))
				}(i, id)
			}
			wg.Wait()

			for i, id := range ids {
				got, err := s.Get(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, i, got.Score)
			}
		})
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "verisci_store.json")
	id := testID(t, "All apples are green.")

	s1, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, id, testResult(77)))
	require.NoError(t, s1.Close())

	s2, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s2.Len())

	got, err := s2.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 77, got.Score)
}

func TestFileStore_DocumentLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	id := testID(t, "All apples are green.")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), id, testResult(5)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	rec, ok := doc[string(id)]
	require.True(t, ok, "document must be keyed by claim id")
	for _, key := range []string{"score", "confidence", "explanation", "factors", "tier"} {
		assert.Contains(t, rec, key)
	}
	assert.NotContains(t, rec, "claim_id")

	// No temp files left behind
	tmps, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, tmps)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := OpenFileStore(path)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "open", storageErr.Op)
}

func TestFileStore_FailedPutKeepsDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	id := testID(t, "All apples are green.")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, id, testResult(77)))

	// A directory in place of the lock file makes the next write fail
	require.NoError(t, os.Remove(path+".lock"))
	require.NoError(t, os.Mkdir(path+".lock", 0755))

	err = s.Put(ctx, id, testResult(1))

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "put", storageErr.Op)

	// Failed write is not visible
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 77, got.Score)
}

func TestFileStore_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "store.json")

	s, err := OpenFileStore(path)
	require.NoError(t, err)

	// Parent becomes a regular file, so the directory cannot be created
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub"), []byte("file, not dir"), 0644))

	err = s.Put(context.Background(), testID(t, "All apples are green."), testResult(1))

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "put", storageErr.Op)
}

func TestFileStore_SharedDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "verisci_store.json")
	a := testID(t, "All apples are green.")
	b := testID(t, "Water boils at 100 C at sea level.")

	// Two handles on one document, as with a CLI run next to a server
	cli, err := OpenFileStore(path)
	require.NoError(t, err)
	server, err := OpenFileStore(path)
	require.NoError(t, err)

	require.NoError(t, cli.Put(ctx, a, testResult(10)))

	got, err := server.Get(ctx, a)
	require.NoError(t, err, "writes from another handle must be visible")
	assert.Equal(t, 10, got.Score)

	require.NoError(t, server.Put(ctx, b, testResult(20)))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())

	got, err = reopened.Get(ctx, a)
	require.NoError(t, err, "a write from one handle must not erase another's")
	assert.Equal(t, 10, got.Score)

	got, err = cli.Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Score)
}

func TestFileStore_ConcurrentHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	handles := make([]*FileStore, 3)
	for i := range handles {
		s, err := OpenFileStore(path)
		require.NoError(t, err)
		handles[i] = s
	}

	const perHandle = 10
	var wg sync.WaitGroup
	for h, s := range handles {
		for i := 0; i < perHandle; i++ {
			wg.Add(1)
			go func(s *FileStore, h, i int) {
				defer wg.Done()
				id := testID(t, fmt.Sprintf("claim %d from handle %d", i, h))
				assert.NoError(t, s.Put(ctx, id, testResult(i)))
			}(s, h, i)
		}
	}
	wg.Wait()

	assert.Equal(t, len(handles)*perHandle, handles[0].Len())
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "badger")
	id := testID(t, "All apples are green.")

	s1, err := OpenBadgerStore(BadgerConfig{Path: path, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, id, testResult(33)))
	require.NoError(t, s1.Close())

	s2, err := OpenBadgerStore(BadgerConfig{Path: path, SyncWrites: true})
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 33, got.Score)
}

func TestBadgerStore_RequiresPath(t *testing.T) {
	_, err := OpenBadgerStore(BadgerConfig{})
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{backend: "file", path: filepath.Join(dir, "a.json")},
		{backend: "", path: filepath.Join(dir, "b.json")},
		{backend: "memory"},
		{backend: "BADGER", path: filepath.Join(dir, "db")},
		{backend: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(model.StoreConfig{Backend: tt.backend, Path: tt.path}, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, s.Close())
		})
	}
}
