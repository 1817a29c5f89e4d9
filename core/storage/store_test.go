package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()
	data, err := s.Load("nope")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Save("a", []byte("one")))
	data, err := s.Load("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	// Mutating the returned slice must not corrupt the stored value.
	data[0] = 'X'
	again, err := s.Load("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), again)

	require.NoError(t, s.Delete("a"))
	data, err = s.Load("a")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMemoryStoreKeysPrefix(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Save("queue:1", []byte("a")))
	require.NoError(t, s.Save("queue:2", []byte("b")))
	require.NoError(t, s.Save("cache:1", []byte("c")))

	keys, err := s.Keys("queue:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"queue:1", "queue:2"}, keys)
}
