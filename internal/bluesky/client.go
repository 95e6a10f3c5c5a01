package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cholten99/bluesky-network/internal/config"
)

// XRPC operations issued by the client.
const (
	opGetProfile = "app.bsky.actor.getProfile"
	opGetFollows = "app.bsky.graph.getFollows"
)

// Client issues authenticated read-only calls against the Bluesky XRPC API.
// Every failed call returns a *FetchError; the client never retries.
type Client struct {
	baseURL     string
	appPassword string
	httpClient  *http.Client
}

// NewClient creates a client from the loaded configuration. The underlying
// transport keeps one idle connection per fan-out slot so concurrent waves
// reuse sockets instead of redialing.
func NewClient(cfg config.BlueskyConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: cfg.MaxConcurrentFetches,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.APIBaseURL, "/"),
		appPassword: cfg.AppPassword,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout(),
			Transport: transport,
		},
	}
}

// FetchProfile retrieves the profile for a single handle.
func (c *Client) FetchProfile(ctx context.Context, handle string) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, opGetProfile, handle, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchFollows retrieves the handles an account follows. A single page is
// requested; no cursor continuation is performed.
func (c *Client) FetchFollows(ctx context.Context, handle string) ([]string, error) {
	var resp followsResponse
	if err := c.get(ctx, opGetFollows, handle, &resp); err != nil {
		return nil, err
	}

	handles := make([]string, 0, len(resp.Follows))
	for _, follow := range resp.Follows {
		handles = append(handles, follow.Handle)
	}
	return handles, nil
}

// get issues one GET against an XRPC operation and decodes the JSON body
// into out. All failure modes come back as *FetchError.
func (c *Client) get(ctx context.Context, op, handle string, out any) error {
	params := url.Values{"actor": []string{handle}}
	endpoint := c.baseURL + "/xrpc/" + op + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Handle: handle, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.appPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Handle: handle, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &FetchError{
			Handle: handle,
			Op:     op,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Handle: handle, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}
