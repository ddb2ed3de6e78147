package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMap_RejectsDuplicateKeys(t *testing.T) {
	_, err := NewMap([]Entry[int]{
		{Key: "a", Value: 1},
		{Key: "a", Value: 2},
	})
	require.Error(t, err)
}

func TestMap_LookupAndOrdered(t *testing.T) {
	m, err := NewMap([]Entry[string]{
		{Key: "b", Value: "second"},
		{Key: "a", Value: "first"},
	})
	require.NoError(t, err)

	entry, ok := m.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "first", entry.Value)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)

	ordered := m.Ordered()
	require.Len(t, ordered, 2)
	assert.Equal(t, "b", ordered[0].Key, "insertion order must be preserved, not sorted")
	assert.Equal(t, "a", ordered[1].Key)
}

func TestMap_ValidateAgainst_DelegatesToTrackerValid(t *testing.T) {
	m, err := NewMap([]Entry[int]{{Key: "a", Value: 1, Provenance: ComputeProvenance([]byte("1"))}})
	require.NoError(t, err)

	tracker := NewTracker(m)
	_, err = tracker.Get("a")
	require.NoError(t, err)

	assert.True(t, m.ValidateAgainst(tracker.State()))

	changed, err := NewMap([]Entry[int]{{Key: "a", Value: 2, Provenance: ComputeProvenance([]byte("2"))}})
	require.NoError(t, err)
	assert.False(t, changed.ValidateAgainst(tracker.State()))
}

func TestMap_NilReceiverIsSafe(t *testing.T) {
	var m *Map[int]
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Ordered())
	assert.Nil(t, m.Keys())
	_, ok := m.Lookup("a")
	assert.False(t, ok)
}
