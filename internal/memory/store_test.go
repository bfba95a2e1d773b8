package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrips(t *testing.T) {
	s, err := New(4)
	require.NoError(t, err)

	s.Set("username", "alice", false)
	v, ok := s.Get("username")
	require.True(t, ok)
	assert.Equal(t, "alice", v)
}

func TestSensitiveKeyIsRedactedButGettable(t *testing.T) {
	s, err := New(4)
	require.NoError(t, err)

	s.Set("login_password", "hunter2", false)

	raw, ok := s.Get("login_password")
	require.True(t, ok)
	assert.Equal(t, "hunter2", raw)

	redacted, ok := s.Redacted("login_password")
	require.True(t, ok)
	assert.Equal(t, redactedPlaceholder, redacted)
}

func TestListMasksSensitiveEntries(t *testing.T) {
	s, err := New(4)
	require.NoError(t, err)
	s.Set("note", "hello", false)
	s.Set("api_token", "xyz", false)

	list := s.List()
	assert.Equal(t, "hello", list["note"].Value)
	assert.Equal(t, redactedPlaceholder, list["api_token"].Value)
}

func TestEvictionDropsLeastRecentlyUsed(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	s.Set("a", 1, false)
	s.Set("b", 2, false)
	s.Set("c", 3, false) // evicts "a"

	_, ok := s.Get("a")
	assert.False(t, ok)
	_, ok = s.Get("c")
	assert.True(t, ok)
}

func TestSaveLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.json")

	s, err := NewWithPersistence(4, path)
	require.NoError(t, err)
	s.Set("key", "value", false)
	require.NoError(t, s.Save())

	s2, err := NewWithPersistence(4, path)
	require.NoError(t, err)
	v, ok := s2.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}
