// Package report writes the plain-text table dumps produced after a run:
// one line per stored row, accounts and connections in separate files.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/cholten99/bluesky-network/internal/storage"
)

// WriteAccounts dumps every account row to path in the order given
func WriteAccounts(path string, accounts []storage.Account) error {
	var b strings.Builder
	for _, a := range accounts {
		fmt.Fprintf(&b, "(%d, %s, %s, %s, %d, %d, %d)\n",
			a.AccountID,
			quote(a.Handle),
			quote(a.DisplayName),
			quote(a.Description),
			a.FollowingCount,
			a.NetworkFollowedCount,
			a.MinDistanceFromStart,
		)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write accounts report: %w", err)
	}
	return nil
}

// WriteConnections dumps every connection row to path in the order given
func WriteConnections(path string, connections []storage.Connection) error {
	var b strings.Builder
	for _, c := range connections {
		fmt.Fprintf(&b, "(%d, %d, %d)\n", c.ConnectionID, c.FollowerID, c.FollowingID)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write connections report: %w", err)
	}
	return nil
}

// quote renders a text column as a single-quoted literal with embedded
// quotes, backslashes and line breaks escaped, so every row stays on one
// line.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return "'" + s + "'"
}
