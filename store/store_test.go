package store

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type configStore interface {
	Load(name string) ([]byte, error)
	Save(name string, data []byte) error
	Erase() error
	Names() ([]string, error)
}

func testStores(t *testing.T) map[string]configStore {
	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "config"))
	require.NoError(t, err)
	return map[string]configStore{
		"file":   fileStore,
		"memory": NewMemoryStore(),
	}
}

func TestStores(t *testing.T) {
	for kind, s := range testStores(t) {
		t.Run(kind, func(t *testing.T) {
			_, err := s.Load("led")
			assert.ErrorIs(t, err, fs.ErrNotExist)

			require.NoError(t, s.Save("led", []byte("pin=4;\n")))
			require.NoError(t, s.Save("api", []byte("port=80;\n")))
			require.NoError(t, s.Save("led", []byte("pin=5;\n")))

			data, err := s.Load("led")
			require.NoError(t, err)
			assert.Equal(t, "pin=5;\n", string(data))

			names, err := s.Names()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"api", "led"}, names)

			assert.Error(t, s.Save("../escape", nil))
			assert.Error(t, s.Save("", nil))
			assert.Error(t, s.Save("a/b", nil))

			require.NoError(t, s.Erase())
			_, err = s.Load("led")
			assert.ErrorIs(t, err, fs.ErrNotExist)
		})
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	m := NewMemoryStore()
	data := []byte("a=1;")
	require.NoError(t, m.Save("c", data))
	data[0] = 'b'

	loaded, err := m.Load("c")
	require.NoError(t, err)
	assert.Equal(t, "a=1;", string(loaded))
	loaded[0] = 'z'

	again, _ := m.Load("c")
	assert.Equal(t, "a=1;", string(again))
	assert.Equal(t, 1, m.Saves())
}

func TestFileStore(t *testing.T) {
	t.Run("empty directory rejected", func(t *testing.T) {
		_, err := NewFileStore(" ")
		assert.Error(t, err)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, s.Save("wifi", []byte("ssid=x;")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "wifi", entries[0].Name())
	})

	t.Run("usage", func(t *testing.T) {
		s, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, s.Save("a", []byte("12345")))
		require.NoError(t, s.Save("b", []byte("678")))

		usage, err := s.Usage()
		require.NoError(t, err)
		assert.Equal(t, 2, usage.Files)
		assert.Equal(t, int64(8), usage.Bytes)
		assert.Positive(t, usage.FreeBytes)
	})
}
