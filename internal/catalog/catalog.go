// Package catalog caches the card catalog for the process lifetime.
// The catalog changes rarely (new cards ship a few times a year), so
// there is no invalidation: first successful fetch wins.
package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"deckcoach/internal/clash"
)

// CardsClient is the slice of the API client the cache needs.
type CardsClient interface {
	GetCards(ctx context.Context) ([]clash.CatalogCard, error)
}

// Cache memoizes the card catalog as a name -> icon URL map. Concurrent
// first callers share one in-flight fetch; a failed fetch leaves the
// cache empty so a later call retries.
type Cache struct {
	client CardsClient

	group singleflight.Group
	mu    sync.RWMutex
	icons map[string]string
}

func New(client CardsClient) *Cache {
	return &Cache{client: client}
}

// IconURLs returns the memoized name -> icon URL map, fetching the
// catalog on first use.
func (c *Cache) IconURLs(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	icons := c.icons
	c.mu.RUnlock()
	if icons != nil {
		return icons, nil
	}

	v, err, _ := c.group.Do("cards", func() (any, error) {
		cards, err := c.client.GetCards(ctx)
		if err != nil {
			return nil, err
		}

		icons := make(map[string]string, len(cards))
		for _, card := range cards {
			url := card.IconURLs.Medium
			if url == "" {
				url = card.IconURLs.Small
			}
			icons[card.Name] = url
		}

		c.mu.Lock()
		c.icons = icons
		c.mu.Unlock()
		return icons, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}
