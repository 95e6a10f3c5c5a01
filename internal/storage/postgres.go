package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage handles all database operations
type Storage struct {
	pool *pgxpool.Pool
}

// NewStorage creates a new Storage instance, connecting to PostgreSQL and
// initializing the schema
func NewStorage(ctx context.Context, connString string) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Fail fast when the database is unreachable
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &Storage{pool: pool}

	// Initialize schema
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates tables if they don't exist
func (s *Storage) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		account_id SERIAL PRIMARY KEY,
		handle VARCHAR(255) UNIQUE NOT NULL,
		display_name VARCHAR(255),
		description TEXT,
		following_count INT DEFAULT 0,
		network_followed_count INT DEFAULT 0,
		min_distance_from_start INT DEFAULT 0 NOT NULL
	);

	CREATE TABLE IF NOT EXISTS connections (
		connection_id SERIAL PRIMARY KEY,
		follower_id INT REFERENCES accounts(account_id) ON DELETE CASCADE,
		following_id INT REFERENCES accounts(account_id) ON DELETE CASCADE,
		UNIQUE (follower_id, following_id)
	);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// UpsertAccounts inserts every account whose handle is new and overwrites
// display_name, description and following_count for handles already stored.
// The whole batch runs in one transaction: on any failure nothing is
// written. Returns the number of rows inserted or updated.
func (s *Storage) UpsertAccounts(ctx context.Context, accounts []Account) (int64, error) {
	if len(accounts) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, account := range accounts {
		b.Queue(`
			INSERT INTO accounts (handle, display_name, description, following_count)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (handle) DO UPDATE
			SET display_name = EXCLUDED.display_name,
			    description = EXCLUDED.description,
			    following_count = EXCLUDED.following_count
		`, account.Handle, account.DisplayName, account.Description, account.FollowingCount)
	}

	affected, err := execBatch(tx.SendBatch(ctx, b), b.Len())
	if err != nil {
		return 0, fmt.Errorf("failed to upsert accounts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit accounts: %w", err)
	}

	return affected, nil
}

// UpsertConnections resolves both handles of every edge to account ids and
// inserts the connection rows. An edge referencing a handle not present in
// accounts inserts nothing (skipped, not an error), and an edge that
// already exists is left untouched. One transaction for the whole batch.
// Returns the number of rows actually inserted.
func (s *Storage) UpsertConnections(ctx context.Context, edges []Edge) (int64, error) {
	if len(edges) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, edge := range edges {
		// The SELECT yields no row when either handle is unknown, so the
		// INSERT silently skips that edge.
		b.Queue(`
			INSERT INTO connections (follower_id, following_id)
			SELECT f.account_id, g.account_id
			FROM accounts f, accounts g
			WHERE f.handle = $1 AND g.handle = $2
			ON CONFLICT (follower_id, following_id) DO NOTHING
		`, edge.FollowerHandle, edge.FollowingHandle)
	}

	inserted, err := execBatch(tx.SendBatch(ctx, b), b.Len())
	if err != nil {
		return 0, fmt.Errorf("failed to upsert connections: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit connections: %w", err)
	}

	return inserted, nil
}

// execBatch drains a sent batch and sums affected rows
func execBatch(br pgx.BatchResults, n int) (int64, error) {
	var affected int64
	for i := 0; i < n; i++ {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, err
		}
		affected += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	return affected, nil
}

// Reset deletes all accounts and connections and restarts identity
// numbering from 1
func (s *Storage) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE TABLE connections, accounts RESTART IDENTITY"); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// ReadAll returns every stored account and connection, ordered by id so
// report output is stable across runs.
func (s *Storage) ReadAll(ctx context.Context) ([]Account, []Connection, error) {
	accounts, err := s.readAccounts(ctx)
	if err != nil {
		return nil, nil, err
	}

	connections, err := s.readConnections(ctx)
	if err != nil {
		return nil, nil, err
	}

	return accounts, connections, nil
}

func (s *Storage) readAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT account_id, handle, COALESCE(display_name, ''), COALESCE(description, ''),
		       following_count, network_followed_count, min_distance_from_start
		FROM accounts
		ORDER BY account_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.AccountID, &a.Handle, &a.DisplayName, &a.Description,
			&a.FollowingCount, &a.NetworkFollowedCount, &a.MinDistanceFromStart); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

func (s *Storage) readConnections(ctx context.Context) ([]Connection, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT connection_id, follower_id, following_id
		FROM connections
		ORDER BY connection_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read connections: %w", err)
	}
	defer rows.Close()

	var connections []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.ConnectionID, &c.FollowerID, &c.FollowingID); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return connections, nil
}

// CountAccounts returns the number of stored accounts
func (s *Storage) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

// TotalFollowingCount returns the sum of following_count over all accounts
func (s *Storage) TotalFollowingCount(ctx context.Context) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, "SELECT COALESCE(SUM(following_count), 0) FROM accounts").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum following counts: %w", err)
	}
	return total, nil
}

// Close releases the connection pool
func (s *Storage) Close() {
	s.pool.Close()
}
