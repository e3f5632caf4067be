//go:build unix

package mmfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapReadOnlyUnix(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mmap test in short mode")
	}
	path := filepath.Join(t.TempDir(), "heap.img")
	want := []byte{0xde, 0xad, 0xbe, 0xef, 0x42}
	require.NoError(t, os.WriteFile(path, want, 0o644))

	data, cleanup, err := Map(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, cleanup()) }()

	assert.Equal(t, want, data)
}

func TestMapZeroLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.img")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	data, cleanup, err := Map(path)
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NotNil(t, cleanup)
	assert.NoError(t, cleanup())
}

func TestMapMissingFile(t *testing.T) {
	_, _, err := Map(filepath.Join(t.TempDir(), "missing.img"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnonymous(t *testing.T) {
	data, cleanup, err := Anonymous(8192)
	require.NoError(t, err)
	require.Len(t, data, 8192)
	assert.Equal(t, make([]byte, 8192), data, "fresh mapping is zeroed")

	data[0], data[8191] = 1, 2
	require.NoError(t, cleanup())
	assert.NoError(t, cleanup(), "second unmap is a no-op")

	_, _, err = Anonymous(0)
	assert.Error(t, err)
}

func TestCreatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.img")

	data, cleanup, err := Create(path, 4096)
	require.NoError(t, err)
	require.Len(t, data, 4096)
	copy(data[100:], "persisted")
	require.NoError(t, cleanup())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 4096)
	assert.Equal(t, "persisted", string(got[100:109]))
}
