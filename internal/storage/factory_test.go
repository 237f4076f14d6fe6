package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStoreDefaultsToMemory(t *testing.T) {
	store, err := NewStore("", "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("memory", "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)
}

func TestNewStoreRejectsUnknownBackend(t *testing.T) {
	_, err := NewStore("cassandra", "")
	require.Error(t, err)
}
