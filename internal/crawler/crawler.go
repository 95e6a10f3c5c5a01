package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cholten99/bluesky-network/internal/bluesky"
	"github.com/cholten99/bluesky-network/internal/storage"
)

// Fetcher is the slice of the Bluesky client the crawler depends on.
// bluesky.Client satisfies it; tests substitute a stub.
type Fetcher interface {
	FetchProfile(ctx context.Context, handle string) (*bluesky.Profile, error)
	FetchFollows(ctx context.Context, handle string) ([]string, error)
}

// Batch is the result of one crawl: the accounts to store, the follow
// edges observed, and the per-handle fetch failures for the driver to
// judge. Edges are built from the follow-list alone, so an edge may
// reference a handle whose profile fetch failed; the store resolves or
// drops it.
type Batch struct {
	Accounts []storage.Account
	Edges    []storage.Edge
	Failures []error
}

// Crawler orchestrates the one-hop crawl around a single seed account
type Crawler struct {
	fetcher              Fetcher
	maxConcurrentFetches int
	metricsCallback      func(profilesFetched, profilesFailed int, fetchTime time.Duration)
}

// NewCrawler creates a new crawler instance
func NewCrawler(fetcher Fetcher, maxConcurrentFetches int, metricsCallback func(int, int, time.Duration)) *Crawler {
	return &Crawler{
		fetcher:              fetcher,
		maxConcurrentFetches: maxConcurrentFetches,
		metricsCallback:      metricsCallback,
	}
}

// Crawl fetches the seed profile, the seed's follow-list, and the profile
// of every followed account, and assembles the account/edge batch for
// storage. The two seed fetches are mandatory: either failing fails the
// crawl. A failed followed-profile fetch drops that account from the
// batch and is collected into Batch.Failures; its edge is kept.
func (c *Crawler) Crawl(ctx context.Context, seedHandle string) (*Batch, error) {
	seedHandle = NormalizeHandle(seedHandle)
	if seedHandle == "" {
		return nil, fmt.Errorf("seed handle is empty")
	}

	seedProfile, err := c.fetchProfile(ctx, seedHandle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed profile: %w", err)
	}

	follows, err := c.fetcher.FetchFollows(ctx, seedHandle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed follow-list: %w", err)
	}
	follows = DedupeHandles(follows)

	logrus.Infof("Seed %s follows %d accounts, fetching profiles (%d concurrent max)",
		seedHandle, len(follows), c.maxConcurrentFetches)

	// Fork-join fan-out: every worker owns one slot of the results
	// slices, failures are data rather than control flow, and the wave
	// always joins before the batch is assembled.
	profiles := make([]*bluesky.Profile, len(follows))
	failures := make([]error, len(follows))

	g := &errgroup.Group{}
	g.SetLimit(c.maxConcurrentFetches)

	for i, handle := range follows {
		i, handle := i, handle
		g.Go(func() error {
			profile, err := c.fetchProfile(ctx, handle)
			if err != nil {
				failures[i] = err
				return nil
			}
			profiles[i] = profile
			return nil
		})
	}

	// Workers never return errors, so this only joins the wave
	_ = g.Wait()

	batch := &Batch{
		Accounts: make([]storage.Account, 0, len(follows)+1),
		Edges:    make([]storage.Edge, 0, len(follows)),
	}
	batch.Accounts = append(batch.Accounts, accountFromProfile(seedProfile))

	for i, handle := range follows {
		if failures[i] != nil {
			batch.Failures = append(batch.Failures, failures[i])
		} else {
			batch.Accounts = append(batch.Accounts, accountFromProfile(profiles[i]))
		}

		// The edge exists regardless of whether the profile fetch succeeded
		batch.Edges = append(batch.Edges, storage.Edge{
			FollowerHandle:  seedHandle,
			FollowingHandle: handle,
		})
	}

	logrus.Infof("Crawl of %s assembled: %d accounts, %d edges, %d failed fetches",
		seedHandle, len(batch.Accounts), len(batch.Edges), len(batch.Failures))

	return batch, nil
}

// fetchProfile wraps a single profile fetch with timing and metrics
func (c *Crawler) fetchProfile(ctx context.Context, handle string) (*bluesky.Profile, error) {
	start := time.Now()
	profile, err := c.fetcher.FetchProfile(ctx, handle)
	elapsed := time.Since(start)

	if c.metricsCallback != nil {
		if err != nil {
			c.metricsCallback(0, 1, elapsed)
		} else {
			c.metricsCallback(1, 0, elapsed)
		}
	}

	if err == nil {
		logrus.Debugf("Fetched profile %s (%dms)", profile.Handle, elapsed.Milliseconds())
	}

	return profile, err
}

// accountFromProfile maps the consumed profile fields onto a storage
// account. The reserved aggregate fields keep their zero defaults.
func accountFromProfile(p *bluesky.Profile) storage.Account {
	return storage.Account{
		Handle:         p.Handle,
		DisplayName:    p.DisplayName,
		Description:    p.Description,
		FollowingCount: p.FollowsCount,
	}
}
