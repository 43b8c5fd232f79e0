package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_FirstWriteSnapshotOnly(t *testing.T) {
	data := map[string]any{"age": 30}
	tr := New(data)

	tr.TrackChange("age", 30)
	data["age"] = 31
	tr.TrackChange("age", 31) // no-op: already tracked

	changes := tr.GetChanges(data)
	assert.Equal(t, map[string]any{"age": 31}, changes)
}

func TestTracker_IsModified(t *testing.T) {
	data := map[string]any{"age": 30}
	tr := New(data)
	assert.False(t, tr.IsModified())

	tr.TrackChange("age", 30)
	assert.True(t, tr.IsModified())
}

func TestTracker_UnmodifiedIgnoresDirectMutation(t *testing.T) {
	data := map[string]any{"age": 30}
	tr := New(data)

	data["age"] = 99 // mutated without going through TrackChange
	assert.False(t, tr.IsModified())
	assert.Empty(t, tr.GetChanges(data))
}

func TestTracker_Rollback(t *testing.T) {
	data := map[string]any{"age": 30, "name": "Alice"}
	tr := New(data)

	tr.TrackChange("age", 30)
	data["age"] = 31

	tr.Rollback(data)
	assert.Equal(t, 30, data["age"])
	assert.False(t, tr.IsModified())
}

func TestTracker_ResetClearsBoth(t *testing.T) {
	data := map[string]any{"age": 30}
	tr := New(data)
	tr.TrackChange("age", 30)
	data["age"] = 31

	tr.Reset()
	assert.False(t, tr.IsModified())
	assert.Empty(t, tr.GetChanges(data))

	// Mutating data after Reset still isn't observed without TrackChange.
	data["age"] = 999
	assert.Empty(t, tr.GetChanges(data))
}

func TestTracker_Snapshot(t *testing.T) {
	data := map[string]any{"age": 30}
	tr := New(data)
	tr.TrackChange("age", 30)

	snap := tr.Snapshot()
	require.Equal(t, map[string]any{"age": 30}, snap)

	// Mutating the snapshot must not affect the tracker's own state.
	snap["age"] = -1
	assert.Equal(t, map[string]any{"age": 30}, tr.Snapshot())
}
