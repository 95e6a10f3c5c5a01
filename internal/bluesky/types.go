package bluesky

import "fmt"

// Profile is the subset of an app.bsky.actor.getProfile response consumed
// by the crawl. DisplayName and Description are optional upstream and decode
// to empty strings when absent.
type Profile struct {
	Handle       string `json:"handle"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	FollowsCount int    `json:"followsCount"`
}

// followsResponse is the subset of an app.bsky.graph.getFollows response
// consumed by the crawl. Only the first page is requested; the pagination
// cursor is ignored.
type followsResponse struct {
	Follows []struct {
		Handle string `json:"handle"`
	} `json:"follows"`
}

// FetchError reports a single failed API call, tagged with the handle it
// was issued for and the underlying cause.
type FetchError struct {
	Handle string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("bluesky: %s failed for %q: %v", e.Op, e.Handle, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
