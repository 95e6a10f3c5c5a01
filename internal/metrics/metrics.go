package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cholten99/bluesky-network/internal/storage"
)

// Tracker holds and manages crawl run statistics
type Tracker struct {
	mu               sync.Mutex
	data             storage.RunMetrics
	totalFetchTimeMs int64
	fetchCount       int
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: storage.RunMetrics{
			StartTime: time.Now(),
		},
	}
}

// SetSeedHandle records the seed the run was started for
func (t *Tracker) SetSeedHandle(handle string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.SeedHandle = handle
}

// IncrementProfilesFetched increments the successful profile fetch counter
func (t *Tracker) IncrementProfilesFetched() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.ProfilesFetched++
}

// IncrementProfilesFailed increments the failed profile fetch counter
func (t *Tracker) IncrementProfilesFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.ProfilesFailed++
}

// AddAccountsStored adds the affected-row count of an account upsert
func (t *Tracker) AddAccountsStored(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.AccountsStored += n
}

// AddEdgesStored adds the inserted-row count of a connection upsert
func (t *Tracker) AddEdgesStored(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.EdgesStored += n
}

// RecordFetchTime records a single profile fetch duration
func (t *Tracker) RecordFetchTime(duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalFetchTimeMs += duration.Milliseconds()
	t.fetchCount++
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() storage.RunMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.data
	snapshot.TotalFetchTimeMs = t.totalFetchTimeMs

	// Calculate average fetch time
	if t.fetchCount > 0 {
		snapshot.AvgFetchTimeMs = t.totalFetchTimeMs / int64(t.fetchCount)
	}

	return snapshot
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, outcome string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Finalize metrics
	t.data.EndTime = time.Now()
	t.data.Outcome = outcome
	t.data.TotalFetchTimeMs = t.totalFetchTimeMs

	// Calculate average
	if t.fetchCount > 0 {
		t.data.AvgFetchTimeMs = t.totalFetchTimeMs / int64(t.fetchCount)
	}

	// Marshal to JSON
	jsonData, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress prints current metrics to console (for run summaries)
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Profiles: %d fetched, %d failed | Stored: %d accounts, %d edges",
		t.data.ProfilesFetched,
		t.data.ProfilesFailed,
		t.data.AccountsStored,
		t.data.EdgesStored,
	)
}
