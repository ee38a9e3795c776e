// Package rankings walks the cursor-paginated ranked-player listing and
// resolves a fallback location scope when the default one is empty.
package rankings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"deckcoach/internal/clash"
)

const (
	// DefaultPageSize is requested per page until rate limiting forces
	// degradation
	DefaultPageSize = 200

	// MinPageSize floors both the page size and the remaining target
	// during degradation
	MinPageSize = 20

	// maxConsecutiveRateLimits bounds how many 429s in a row we retry
	// before giving up with whatever accumulated
	maxConsecutiveRateLimits = 3

	// rateLimitBackoffBase grows linearly with consecutive 429s
	rateLimitBackoffBase = 500 * time.Millisecond
)

// Scope is one ranking partition: global or a specific location.
type Scope struct {
	ID    string // "global" or a numeric location ID
	Label string // for diagnostics only
}

// Global is the default scope.
var Global = Scope{ID: "global", Label: "Global"}

// RankingsClient is the slice of the API client the fetcher needs.
type RankingsClient interface {
	GetRankings(ctx context.Context, locationID string, limit int, after string) (*clash.RankingPage, error)
}

// Result is the outcome of walking one scope.
type Result struct {
	Players []clash.RankedPlayer

	// RankingsUnavailable distinguishes "this scope genuinely has no
	// rankings" (upstream said so) from an ordinary empty listing.
	RankingsUnavailable bool

	// Warning carries a human-readable diagnostic when the walk ended
	// early, e.g. after repeated rate limiting.
	Warning string
}

// Fetcher paginates ranked players for a scope, degrading page size and
// target on rate limiting rather than failing.
type Fetcher struct {
	client RankingsClient
	logger *slog.Logger

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// NewFetcher creates a Fetcher. logger may be nil.
func NewFetcher(client RankingsClient, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: client,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// TopPlayers accumulates up to limit ranked players for the scope.
//
// Rate limiting halves the page size and the remaining target (floored
// at MinPageSize) and retries the same cursor after a linearly growing
// backoff; after maxConsecutiveRateLimits hits in a row it returns what
// accumulated plus a warning. A scope the upstream reports as having no
// rankings returns empty with RankingsUnavailable set. Forbidden and
// other upstream errors are returned to the caller.
func (f *Fetcher) TopPlayers(ctx context.Context, scope Scope, limit int) (*Result, error) {
	pageSize := DefaultPageSize
	target := limit
	cursor := ""
	consecutive429 := 0

	players := make([]clash.RankedPlayer, 0, limit)
	// The upstream should not repeat players across pages, but cursors
	// can overlap after degradation; dedup by tag to keep counts honest.
	seen := bloom.NewWithEstimates(100_000, 0.001)

	for {
		page, err := f.client.GetRankings(ctx, scope.ID, pageSize, cursor)
		if err != nil {
			if clash.IsRateLimited(err) {
				consecutive429++
				if consecutive429 >= maxConsecutiveRateLimits {
					warning := fmt.Sprintf("rankings fetch for %s stopped after %d consecutive rate limits (%d players accumulated)",
						scope.Label, consecutive429, len(players))
					f.logger.Warn("rankings fetch giving up on rate limiting",
						"scope", scope.ID, "accumulated", len(players))
					return &Result{Players: players, Warning: warning}, nil
				}

				pageSize = halveFloor(pageSize)
				remaining := halveFloor(target - len(players))
				target = len(players) + remaining
				// The floor can push the target back above the request;
				// never return more than asked for.
				if target > limit {
					target = limit
				}

				backoff := time.Duration(consecutive429) * rateLimitBackoffBase
				f.logger.Warn("rankings fetch rate limited, degrading",
					"scope", scope.ID, "pageSize", pageSize, "target", target, "backoff", backoff)
				f.sleep(backoff)
				continue // retry the same cursor
			}

			if clash.IsScopeUnavailable(err) {
				return &Result{
					RankingsUnavailable: true,
					Warning:             fmt.Sprintf("rankings not available for %s: %v", scope.Label, err),
				}, nil
			}

			return nil, fmt.Errorf("fetching rankings for %s: %w", scope.Label, err)
		}

		consecutive429 = 0

		if len(page.Items) == 0 && len(players) == 0 {
			// First page empty: the scope has nothing, caller may try a
			// fallback scope.
			return &Result{}, nil
		}

		for _, item := range page.Items {
			if seen.TestString(item.Tag) {
				continue
			}
			seen.AddString(item.Tag)
			players = append(players, item)
		}

		cursor = page.After()
		if cursor == "" || len(players) >= target || len(page.Items) == 0 {
			break
		}
	}

	// Truncate overshoot from the final page; never resample. The
	// target only shrinks from the requested limit, so it is the bound.
	if len(players) > target {
		players = players[:target]
	}

	return &Result{Players: players}, nil
}

func halveFloor(n int) int {
	n /= 2
	if n < MinPageSize {
		return MinPageSize
	}
	return n
}
