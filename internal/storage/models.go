package storage

import "time"

// Account represents one Bluesky identity in the crawl graph.
// NetworkFollowedCount and MinDistanceFromStart are reserved aggregate
// fields: the schema carries them but the crawl never writes them.
type Account struct {
	AccountID            int
	Handle               string
	DisplayName          string
	Description          string
	FollowingCount       int
	NetworkFollowedCount int
	MinDistanceFromStart int
}

// Connection represents a stored directed follow relationship between
// two accounts already resolved to numeric identity.
type Connection struct {
	ConnectionID int
	FollowerID   int
	FollowingID  int
}

// Edge represents a directed follow relationship by handle, before the
// store resolves the endpoints to account ids.
type Edge struct {
	FollowerHandle  string
	FollowingHandle string
}

// RunMetrics tracks crawl statistics for export on exit
type RunMetrics struct {
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	SeedHandle       string    `json:"seed_handle"`
	ProfilesFetched  int       `json:"profiles_fetched"`
	ProfilesFailed   int       `json:"profiles_failed"`
	AccountsStored   int       `json:"accounts_stored"`
	EdgesStored      int       `json:"edges_stored"`
	TotalFetchTimeMs int64     `json:"total_fetch_time_ms"`
	AvgFetchTimeMs   int64     `json:"avg_fetch_time_ms"`
	Outcome          string    `json:"outcome"`
}
