package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/domain"
	"parley/internal/store"
)

func testBackend(t *testing.T, s domain.BlobStore) {
	t.Helper()

	_, ok, err := s.Get("state")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("state", []byte("v1")))
	b, ok, err := s.Get("state")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), b)

	// Overwrite replaces, independent names stay independent.
	require.NoError(t, s.Put("state", []byte("v2")))
	require.NoError(t, s.Put("salt", []byte("pepper")))
	b, ok, err = s.Get("state")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), b)
	b, ok, err = s.Get("salt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("pepper"), b)
}

func TestFileStore(t *testing.T) {
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	defer s.Close()
	testBackend(t, s)
}

func TestFileStore_RejectsPathyNames(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Put("", []byte("x")))
	assert.Error(t, s.Put("../escape", []byte("x")))
	_, _, err = s.Get("a/b")
	assert.Error(t, err)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("cursor", []byte{0, 0, 0, 7}))
	require.NoError(t, s.Close())

	s, err = store.NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()
	b, ok, err := s.Get("cursor")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 7}, b)
}

func TestBadgerStore(t *testing.T) {
	s, err := store.OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	testBackend(t, s)
}

func TestBadgerStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := store.OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("state", []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = store.OpenBadger(dir)
	require.NoError(t, err)
	defer s.Close()
	b, ok, err := s.Get("state")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("persisted"), b)
}
