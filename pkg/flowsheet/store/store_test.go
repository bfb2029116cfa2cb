package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		{
			ID:     "node-1",
			Label:  "設計",
			Status: models.StatusDone,
			Fields: map[string]models.Value{
				"due":    models.NumberValue(45356),
				"ref_no": models.TextValue("A-01"),
			},
			AnchorRow: 5,
		},
		{ID: "node-2", Label: "Review", Status: models.StatusWaiting, AnchorRow: 6},
		{ID: "node-3", Label: "added later", Status: models.StatusPending, AnchorRow: models.NoAnchor},
	}
}

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "records.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "nodes.json"))
		},
		"sqlite": func(t *testing.T) Store { return openSQLite(t) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			loaded, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, loaded)

			want := sampleRecords()
			require.NoError(t, s.Save(ctx, want))
			loaded, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, loaded)

			// Save replaces the previous list
			require.NoError(t, s.Save(ctx, want[1:2]))
			loaded, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want[1:2], loaded)

			require.NoError(t, s.Save(ctx, nil))
			loaded, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, loaded)
		})
	}
}

func TestScope(t *testing.T) {
	dir := t.TempDir()
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(dir, "nodes.json")),
		"sqlite": openSQLite(t),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sc, ok := s.(Scoper)
			require.True(t, ok)

			a, b := sc.Scope("a"), sc.Scope("b")
			require.NoError(t, a.Save(ctx, sampleRecords()[:1]))
			require.NoError(t, b.Save(ctx, sampleRecords()))

			loaded, err := sc.Scope("a").Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleRecords()[:1], loaded)
			loaded, err = b.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, loaded, 3)
			loaded, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, loaded)
		})
	}

	assert.Equal(t, filepath.Join(dir, "nodes-a.json"), NewFileStore(filepath.Join(dir, "nodes.json")).Scope("a").(*FileStore).Path())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	records := sampleRecords()
	require.NoError(t, s.Save(ctx, records))

	records[0].Status = models.StatusBlocked
	*records[0].Fields["due"].Number = 1

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, loaded[0].Status)
	assert.Equal(t, 45356.0, *loaded[0].Fields["due"].Number)
}

func TestFileStoreDirectory(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	assert.Equal(t, filepath.Join(dir, "flowblock-nodes.json"), s.Path())

	require.NoError(t, s.Save(context.Background(), sampleRecords()))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteKeysAndCounts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := OpenSQLite(path, "a")
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLite(path, "b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Save(ctx, sampleRecords()))
	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	counts, err := a.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[models.Status]int{
		models.StatusDone:    1,
		models.StatusWaiting: 1,
		models.StatusPending: 1,
	}, counts)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, closeFn, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = Open(filepath.Join(dir, "nodes.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = Open(filepath.Join(dir, "nodes.sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, closeFn())
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemoryStore().Save(ctx, nil), context.Canceled)
	_, err := NewFileStore(filepath.Join(t.TempDir(), "x.json")).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
