package files

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazadi/maktaba/core"
	"github.com/kazadi/maktaba/core/note"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conf := &core.Config{
		Uploads: core.UploadConfig{
			Dir:               t.TempDir(),
			MaxSize:           1 << 10, // 1 KiB
			AllowedExtensions: []string{".pdf", ".txt"},
		},
	}
	store, err := NewStore(conf)
	require.NoError(t, err)
	return store
}

func TestStoreSave(t *testing.T) {
	store := newTestStore(t)

	t.Run("rejects disallowed extension", func(t *testing.T) {
		_, err := store.Save("notes.exe", 10, strings.NewReader("boom"))
		assert.Equal(t, note.ErrFileExtension, err)
	})

	t.Run("rejects oversized upload", func(t *testing.T) {
		_, err := store.Save("big.pdf", 1<<20, strings.NewReader("too big"))
		assert.Equal(t, note.ErrFileTooLarge, err)
	})

	t.Run("rejects oversized payload with lying size header", func(t *testing.T) {
		payload := strings.Repeat("a", (1<<10)+1)
		_, err := store.Save("sneaky.pdf", 10, strings.NewReader(payload))
		assert.Equal(t, note.ErrFileTooLarge, err)
	})

	t.Run("stores under a unique sanitized name", func(t *testing.T) {
		stored, err := store.Save("../../../etc/my notes!.pdf", 5, strings.NewReader("hello"))
		require.NoError(t, err)
		assert.NotContains(t, stored, "/")
		assert.NotContains(t, stored, " ")
		assert.True(t, strings.HasSuffix(stored, "my_notes_.pdf"), stored)

		path, err := store.Path(stored)
		require.NoError(t, err)
		assert.Equal(t, stored, filepath.Base(path))
	})
}

func TestStorePath(t *testing.T) {
	store := newTestStore(t)

	t.Run("unknown name", func(t *testing.T) {
		_, err := store.Path("nope.pdf")
		assert.Equal(t, note.ErrNotFound, err)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := store.Path("../store.go")
		assert.Equal(t, note.ErrNotFound, err)
	})
}

func TestStoreRemove(t *testing.T) {
	store := newTestStore(t)

	stored, err := store.Save("gone.txt", 4, strings.NewReader("bye!"))
	require.NoError(t, err)
	require.NoError(t, store.Remove(stored))

	_, err = store.Path(stored)
	assert.Equal(t, note.ErrNotFound, err)
}
