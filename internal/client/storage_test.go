package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	_, ok := s.Get("k")
	assert.False(t, ok)

	require.NoError(t, s.Set("k", "v"))
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete("k"))
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestFileStorage_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "session.json")

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAccessToken, "abc"))
	require.NoError(t, s.Set(KeyTokenExpired, "true"))
	require.NoError(t, s.Delete(KeyTokenExpired))

	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	v, ok := reopened.Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	_, ok = reopened.Get(KeyTokenExpired)
	assert.False(t, ok)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStorage(path)
	assert.Error(t, err)
}

func TestFileStorage_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Delete("missing"))
}
