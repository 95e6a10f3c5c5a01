package crawler

import "strings"

// NormalizeHandle canonicalizes a Bluesky handle: surrounding whitespace
// and a leading @ are dropped and the rest is lowercased, matching how
// the API reports handles.
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.ToLower(handle)
}

// DedupeHandles normalizes a follow-list and drops empty and repeated
// entries, preserving first-seen order
func DedupeHandles(handles []string) []string {
	seen := make(map[string]bool)
	var deduped []string

	for _, handle := range handles {
		normalized := NormalizeHandle(handle)

		// Skip empty handles
		if normalized == "" {
			continue
		}

		// Skip duplicates
		if seen[normalized] {
			continue
		}

		seen[normalized] = true
		deduped = append(deduped, normalized)
	}

	return deduped
}
