package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cholten99/bluesky-network/internal/storage"
)

func TestWriteAccounts(t *testing.T) {
	t.Run("one line per row", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "accounts_data.txt")
		accounts := []storage.Account{
			{AccountID: 1, Handle: "alice.bsky.social", DisplayName: "Alice", Description: "gardener", FollowingCount: 2},
			{AccountID: 2, Handle: "bob.bsky.social", FollowingCount: 5},
		}

		require.NoError(t, WriteAccounts(path, accounts))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t,
			"(1, 'alice.bsky.social', 'Alice', 'gardener', 2, 0, 0)\n"+
				"(2, 'bob.bsky.social', '', '', 5, 0, 0)\n",
			string(raw))
	})

	t.Run("multi-line descriptions stay on one line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "accounts_data.txt")
		accounts := []storage.Account{
			{AccountID: 1, Handle: "alice.bsky.social", Description: "it's a\ntwo-liner"},
		}

		require.NoError(t, WriteAccounts(path, accounts))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, `(1, 'alice.bsky.social', '', 'it\'s a\ntwo-liner', 0, 0, 0)`+"\n", string(raw))
	})

	t.Run("empty table writes an empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "accounts_data.txt")

		require.NoError(t, WriteAccounts(path, nil))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Empty(t, raw)
	})

	t.Run("unwritable path reports an error", func(t *testing.T) {
		err := WriteAccounts(filepath.Join(t.TempDir(), "missing", "accounts_data.txt"), nil)
		assert.ErrorContains(t, err, "failed to write accounts report")
	})
}

func TestWriteConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections_data.txt")
	connections := []storage.Connection{
		{ConnectionID: 1, FollowerID: 1, FollowingID: 2},
		{ConnectionID: 2, FollowerID: 1, FollowingID: 3},
	}

	require.NoError(t, WriteConnections(path, connections))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "(1, 1, 2)\n(2, 1, 3)\n", string(raw))
}
