package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slots(t *testing.T) map[string]Slot {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFile(filepath.Join(dir, "files"))
	require.NoError(t, err)

	repo, err := NewSQLiteRepository(filepath.Join(dir, "db", "slot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return map[string]Slot{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": repo,
	}
}

func TestSlots_MissingKey(t *testing.T) {
	for name, slot := range slots(t) {
		t.Run(name, func(t *testing.T) {
			_, err := slot.Get(context.Background(), "absent")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSlots_PutThenGetOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, slot := range slots(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, slot.Put(ctx, "data", []byte(`[{"id":"1"}]`)))
			require.NoError(t, slot.Put(ctx, "data", []byte(`[{"id":"2"}]`)))

			got, err := slot.Get(ctx, "data")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"2"}]`, string(got))
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", in))
	in[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFile_RejectsPathKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		assert.Error(t, f.Put(context.Background(), key, []byte("x")), key)
	}
}

func TestFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.Put(context.Background(), "data", []byte("[]")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.json", entries[0].Name())
}

func TestSQLiteRepository_ReopenKeepsValue(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slot.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, "data", []byte("[1]")))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Get(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(got))
}
