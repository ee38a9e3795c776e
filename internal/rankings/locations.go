package rankings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"deckcoach/internal/clash"
)

// ErrNoFallbackLocation means the whole locations catalog was scanned
// without matching any preferred country. No further fallback exists.
var ErrNoFallbackLocation = errors.New("no fallback location matched the preference list")

// DefaultPreferredCountries is matched against countryCode first, then
// display name, in page order.
var DefaultPreferredCountries = []string{"US", "DE", "GB", "FR", "CA", "BR", "JP"}

const locationsPageSize = 50

// LocationsClient is the slice of the API client the resolver needs.
type LocationsClient interface {
	GetLocations(ctx context.Context, limit int, after string) (*clash.LocationPage, error)
}

// Resolver discovers an alternate ranking scope by scanning the
// locations catalog for a preferred country. The result is resolved at
// most once per process: concurrent callers share one in-flight scan,
// and a failed scan clears the memo so a later call retries.
type Resolver struct {
	client LocationsClient
	prefs  []string
	logger *slog.Logger

	group  singleflight.Group
	mu     sync.Mutex
	cached *Scope
}

// NewResolver creates a Resolver. prefs defaults to
// DefaultPreferredCountries when nil; logger may be nil.
func NewResolver(client LocationsClient, prefs []string, logger *slog.Logger) *Resolver {
	if prefs == nil {
		prefs = DefaultPreferredCountries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, prefs: prefs, logger: logger}
}

// Resolve returns the memoized fallback scope, scanning the catalog on
// first use.
func (r *Resolver) Resolve(ctx context.Context) (Scope, error) {
	r.mu.Lock()
	if r.cached != nil {
		scope := *r.cached
		r.mu.Unlock()
		return scope, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do("fallback-location", func() (any, error) {
		scope, err := r.scan(ctx)
		if err != nil {
			return Scope{}, err
		}
		r.mu.Lock()
		r.cached = &scope
		r.mu.Unlock()
		return scope, nil
	})
	if err != nil {
		return Scope{}, err
	}
	return v.(Scope), nil
}

// scan pages through the locations catalog until an entry matches the
// preference list.
func (r *Resolver) scan(ctx context.Context) (Scope, error) {
	cursor := ""
	for {
		page, err := r.client.GetLocations(ctx, locationsPageSize, cursor)
		if err != nil {
			return Scope{}, fmt.Errorf("scanning locations catalog: %w", err)
		}

		for _, loc := range page.Items {
			if !r.matches(loc) {
				continue
			}
			scope := Scope{ID: strconv.Itoa(loc.ID), Label: loc.Name}
			r.logger.Info("resolved fallback location", "id", scope.ID, "name", scope.Label)
			return scope, nil
		}

		cursor = page.After()
		if cursor == "" || len(page.Items) == 0 {
			return Scope{}, ErrNoFallbackLocation
		}
	}
}

func (r *Resolver) matches(loc clash.Location) bool {
	if !loc.IsCountry {
		return false
	}
	for _, pref := range r.prefs {
		if strings.EqualFold(loc.CountryCode, pref) || strings.EqualFold(loc.Name, pref) {
			return true
		}
	}
	return false
}
