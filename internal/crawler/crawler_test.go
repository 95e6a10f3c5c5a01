package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cholten99/bluesky-network/internal/bluesky"
	"github.com/cholten99/bluesky-network/internal/storage"
)

// stubFetcher serves canned profiles and follow-lists and tracks how many
// profile fetches run at the same time.
type stubFetcher struct {
	profiles    map[string]*bluesky.Profile
	profileErrs map[string]error
	follows     map[string][]string
	followsErr  error
	fetchDelay  time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *stubFetcher) FetchProfile(ctx context.Context, handle string) (*bluesky.Profile, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	if f.fetchDelay > 0 {
		time.Sleep(f.fetchDelay)
	}

	if err, ok := f.profileErrs[handle]; ok {
		return nil, err
	}
	if profile, ok := f.profiles[handle]; ok {
		return profile, nil
	}
	return nil, &bluesky.FetchError{Handle: handle, Op: "app.bsky.actor.getProfile", Err: context.DeadlineExceeded}
}

func (f *stubFetcher) FetchFollows(ctx context.Context, handle string) ([]string, error) {
	if f.followsErr != nil {
		return nil, f.followsErr
	}
	return f.follows[handle], nil
}

func makeProfile(handle, displayName string, followsCount int) *bluesky.Profile {
	return &bluesky.Profile{Handle: handle, DisplayName: displayName, FollowsCount: followsCount}
}

func accountHandles(batch *Batch) []string {
	handles := make([]string, 0, len(batch.Accounts))
	for _, a := range batch.Accounts {
		handles = append(handles, a.Handle)
	}
	return handles
}

func TestCrawl(t *testing.T) {
	ctx := context.Background()

	t.Run("seed and followed profiles become accounts, edges pair seed with every follow", func(t *testing.T) {
		fetcher := &stubFetcher{
			profiles: map[string]*bluesky.Profile{
				"alice.bsky.social": makeProfile("alice.bsky.social", "Alice", 2),
				"bob.bsky.social":   makeProfile("bob.bsky.social", "Bob", 5),
				"carol.bsky.social": makeProfile("carol.bsky.social", "Carol", 9),
			},
			follows: map[string][]string{
				"alice.bsky.social": {"bob.bsky.social", "carol.bsky.social"},
			},
		}

		batch, err := NewCrawler(fetcher, 4, nil).Crawl(ctx, "alice.bsky.social")

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice.bsky.social", "bob.bsky.social", "carol.bsky.social"}, accountHandles(batch))
		assert.ElementsMatch(t, []storage.Edge{
			{FollowerHandle: "alice.bsky.social", FollowingHandle: "bob.bsky.social"},
			{FollowerHandle: "alice.bsky.social", FollowingHandle: "carol.bsky.social"},
		}, batch.Edges)
		assert.Empty(t, batch.Failures)
	})

	t.Run("failed follower fetch drops the account but keeps the edge", func(t *testing.T) {
		carolErr := &bluesky.FetchError{Handle: "carol.bsky.social", Op: "app.bsky.actor.getProfile", Err: context.DeadlineExceeded}
		fetcher := &stubFetcher{
			profiles: map[string]*bluesky.Profile{
				"alice.bsky.social": makeProfile("alice.bsky.social", "Alice", 2),
				"bob.bsky.social":   makeProfile("bob.bsky.social", "Bob", 5),
			},
			profileErrs: map[string]error{"carol.bsky.social": carolErr},
			follows: map[string][]string{
				"alice.bsky.social": {"bob.bsky.social", "carol.bsky.social"},
			},
		}

		batch, err := NewCrawler(fetcher, 4, nil).Crawl(ctx, "alice.bsky.social")

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice.bsky.social", "bob.bsky.social"}, accountHandles(batch))
		assert.Len(t, batch.Edges, 2, "edges are independent of profile-fetch success")
		require.Len(t, batch.Failures, 1)
		assert.ErrorIs(t, batch.Failures[0], carolErr)
	})

	t.Run("seed profile failure fails the crawl", func(t *testing.T) {
		seedErr := &bluesky.FetchError{Handle: "alice.bsky.social", Op: "app.bsky.actor.getProfile", Err: context.DeadlineExceeded}
		fetcher := &stubFetcher{
			profileErrs: map[string]error{"alice.bsky.social": seedErr},
		}

		_, err := NewCrawler(fetcher, 4, nil).Crawl(ctx, "alice.bsky.social")

		require.Error(t, err)
		assert.ErrorIs(t, err, seedErr)
		assert.ErrorContains(t, err, "seed profile")
	})

	t.Run("follow-list failure fails the crawl", func(t *testing.T) {
		followsErr := &bluesky.FetchError{Handle: "alice.bsky.social", Op: "app.bsky.graph.getFollows", Err: context.DeadlineExceeded}
		fetcher := &stubFetcher{
			profiles: map[string]*bluesky.Profile{
				"alice.bsky.social": makeProfile("alice.bsky.social", "Alice", 2),
			},
			followsErr: followsErr,
		}

		_, err := NewCrawler(fetcher, 4, nil).Crawl(ctx, "alice.bsky.social")

		require.Error(t, err)
		assert.ErrorIs(t, err, followsErr)
		assert.ErrorContains(t, err, "follow-list")
	})

	t.Run("empty follow-list yields the seed alone and no edges", func(t *testing.T) {
		fetcher := &stubFetcher{
			profiles: map[string]*bluesky.Profile{
				"loner.bsky.social": makeProfile("loner.bsky.social", "", 0),
			},
			follows: map[string][]string{},
		}

		batch, err := NewCrawler(fetcher, 4, nil).Crawl(ctx, "loner.bsky.social")

		require.NoError(t, err)
		assert.Equal(t, []string{"loner.bsky.social"}, accountHandles(batch))
		assert.Empty(t, batch.Edges)
	})

	t.Run("follow-list handles are normalized and deduped before fetching", func(t *testing.T) {
		fetcher := &stubFetcher{
			profiles: map[string]*bluesky.Profile{
				"alice.bsky.social": makeProfile("alice.bsky.social", "Alice", 1),
				"bob.bsky.social":   makeProfile("bob.bsky.social", "Bob", 5),
			},
			follows: map[string][]string{
				"alice.bsky.social": {"Bob.bsky.social", "@bob.bsky.social", "", "bob.bsky.social"},
			},
		}

		batch, err := NewCrawler(fetcher, 4, nil).Crawl(ctx, "alice.bsky.social")

		require.NoError(t, err)
		assert.Equal(t, []storage.Edge{
			{FollowerHandle: "alice.bsky.social", FollowingHandle: "bob.bsky.social"},
		}, batch.Edges)
		assert.ElementsMatch(t, []string{"alice.bsky.social", "bob.bsky.social"}, accountHandles(batch))
	})

	t.Run("empty seed handle is rejected before any fetch", func(t *testing.T) {
		_, err := NewCrawler(&stubFetcher{}, 4, nil).Crawl(ctx, "  ")
		assert.Error(t, err)
	})
}

func TestCrawlFanOutCap(t *testing.T) {
	follows := make([]string, 20)
	profiles := map[string]*bluesky.Profile{
		"alice.bsky.social": makeProfile("alice.bsky.social", "Alice", 20),
	}
	for i := range follows {
		handle := string(rune('a'+i)) + ".follower.bsky.social"
		follows[i] = handle
		profiles[handle] = makeProfile(handle, "", 0)
	}

	fetcher := &stubFetcher{
		profiles:   profiles,
		follows:    map[string][]string{"alice.bsky.social": follows},
		fetchDelay: 5 * time.Millisecond,
	}

	batch, err := NewCrawler(fetcher, 3, nil).Crawl(context.Background(), "alice.bsky.social")

	require.NoError(t, err)
	assert.Len(t, batch.Accounts, 21)
	assert.LessOrEqual(t, fetcher.maxInFlight.Load(), int32(3),
		"concurrent profile fetches must stay within the configured cap")
}

func TestCrawlMetricsCallback(t *testing.T) {
	fetcher := &stubFetcher{
		profiles: map[string]*bluesky.Profile{
			"alice.bsky.social": makeProfile("alice.bsky.social", "Alice", 2),
			"bob.bsky.social":   makeProfile("bob.bsky.social", "Bob", 5),
		},
		profileErrs: map[string]error{
			"carol.bsky.social": &bluesky.FetchError{Handle: "carol.bsky.social", Op: "app.bsky.actor.getProfile", Err: context.DeadlineExceeded},
		},
		follows: map[string][]string{
			"alice.bsky.social": {"bob.bsky.social", "carol.bsky.social"},
		},
	}

	var mu sync.Mutex
	var fetched, failed, timings int
	callback := func(profilesFetched, profilesFailed int, fetchTime time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		fetched += profilesFetched
		failed += profilesFailed
		timings++
	}

	_, err := NewCrawler(fetcher, 2, callback).Crawl(context.Background(), "alice.bsky.social")

	require.NoError(t, err)
	assert.Equal(t, 2, fetched, "seed and bob")
	assert.Equal(t, 1, failed, "carol")
	assert.Equal(t, 3, timings, "every profile fetch reports a duration")
}
