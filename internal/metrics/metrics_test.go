package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cholten99/bluesky-network/internal/storage"
)

func TestTracker(t *testing.T) {
	t.Run("counters accumulate", func(t *testing.T) {
		tracker := NewTracker()
		tracker.SetSeedHandle("alice.bsky.social")
		tracker.IncrementProfilesFetched()
		tracker.IncrementProfilesFetched()
		tracker.IncrementProfilesFailed()
		tracker.AddAccountsStored(3)
		tracker.AddEdgesStored(2)

		snapshot := tracker.GetSnapshot()

		assert.Equal(t, "alice.bsky.social", snapshot.SeedHandle)
		assert.Equal(t, 2, snapshot.ProfilesFetched)
		assert.Equal(t, 1, snapshot.ProfilesFailed)
		assert.Equal(t, 3, snapshot.AccountsStored)
		assert.Equal(t, 2, snapshot.EdgesStored)
	})

	t.Run("average fetch time is computed from recorded durations", func(t *testing.T) {
		tracker := NewTracker()
		tracker.RecordFetchTime(100 * time.Millisecond)
		tracker.RecordFetchTime(300 * time.Millisecond)

		snapshot := tracker.GetSnapshot()

		assert.Equal(t, int64(400), snapshot.TotalFetchTimeMs)
		assert.Equal(t, int64(200), snapshot.AvgFetchTimeMs)
	})

	t.Run("no fetches leaves the average at zero", func(t *testing.T) {
		snapshot := NewTracker().GetSnapshot()
		assert.Zero(t, snapshot.AvgFetchTimeMs)
	})

	t.Run("write to file finalizes the run", func(t *testing.T) {
		tracker := NewTracker()
		tracker.IncrementProfilesFetched()
		path := filepath.Join(t.TempDir(), "metrics.json")

		require.NoError(t, tracker.WriteToFile(path, "completed"))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var exported storage.RunMetrics
		require.NoError(t, json.Unmarshal(raw, &exported))
		assert.Equal(t, "completed", exported.Outcome)
		assert.Equal(t, 1, exported.ProfilesFetched)
		assert.False(t, exported.EndTime.IsZero())
	})
}

func TestLogProgress(t *testing.T) {
	tracker := NewTracker()
	tracker.IncrementProfilesFetched()
	tracker.AddAccountsStored(2)
	tracker.AddEdgesStored(1)

	assert.Equal(t, "Profiles: 1 fetched, 0 failed | Stored: 2 accounts, 1 edges", tracker.LogProgress())
}
