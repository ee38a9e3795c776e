// Package clash is a rate-aware client for the Clash Royale REST API.
package clash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"deckcoach/internal/metrics"
)

const (
	// DefaultBaseURL is the official API root
	DefaultBaseURL = "https://api.clashroyale.com/v1"

	// DefaultTimeout bounds every request
	DefaultTimeout = 15 * time.Second

	// defaultMinInterval paces outgoing requests so a full worker pool
	// still stays under the upstream rate limit
	defaultMinInterval = 100 * time.Millisecond
)

// Client issues authenticated requests to the Clash Royale API and
// classifies failures into the typed errors in errors.go.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets a custom request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMinInterval sets the minimum spacing between outgoing requests.
// Zero disables client-side pacing (tests use this).
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient creates a Client for the given bearer token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("missing API token: set CR_API_TOKEN from the Clash Royale developer portal")
	}

	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(defaultMinInterval), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// EncodeTag normalizes a player tag for use in a URL path. The API wants
// the leading # percent-encoded (%23).
func EncodeTag(tag string) string {
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return url.PathEscape(tag)
}

// GetPlayer fetches a player's profile (includes the current deck).
func (c *Client) GetPlayer(ctx context.Context, tag string) (*Player, error) {
	var player Player
	if err := c.doGet(ctx, "/players/"+EncodeTag(tag), nil, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// GetPlayerCards fetches a player's full card collection.
func (c *Client) GetPlayerCards(ctx context.Context, tag string) ([]PlayerCard, error) {
	var list cardList
	if err := c.doGet(ctx, "/players/"+EncodeTag(tag)+"/cards", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// GetBattleLog fetches a player's recent battles, most recent first.
func (c *Client) GetBattleLog(ctx context.Context, tag string) ([]Battle, error) {
	var battles []Battle
	if err := c.doGet(ctx, "/players/"+EncodeTag(tag)+"/battlelog", nil, &battles); err != nil {
		return nil, err
	}
	return battles, nil
}

// GetRankings fetches one page of ranked players for a location scope.
// locationID is "global" or a numeric location ID; after is the opaque
// cursor from the previous page ("" for the first page).
func (c *Client) GetRankings(ctx context.Context, locationID string, limit int, after string) (*RankingPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if after != "" {
		q.Set("after", after)
	}

	var page RankingPage
	path := "/locations/" + url.PathEscape(locationID) + "/rankings/players"
	if err := c.doGet(ctx, path, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetLocations fetches one page of the locations catalog.
func (c *Client) GetLocations(ctx context.Context, limit int, after string) (*LocationPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if after != "" {
		q.Set("after", after)
	}

	var page LocationPage
	if err := c.doGet(ctx, "/locations", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPopularDecks fetches the pre-aggregated popular-decks listing.
// Not every deployment of the API exposes it; callers treat failure as
// a signal to fall back to sampling.
func (c *Client) GetPopularDecks(ctx context.Context) ([]PopularDeck, error) {
	var list popularDeckList
	if err := c.doGet(ctx, "/popular-decks", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// GetCards fetches the card catalog (name and icon URLs per card).
func (c *Client) GetCards(ctx context.Context) ([]CatalogCard, error) {
	var list catalogList
	if err := c.doGet(ctx, "/cards", nil, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// doGet performs one authenticated GET and decodes the JSON response,
// classifying any failure into the package's typed errors.
func (c *Client) doGet(ctx context.Context, path string, query url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &UpstreamError{Message: err.Error()}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &UpstreamError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIRequests.WithLabelValues("error").Inc()
		return &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		metrics.APIRequests.WithLabelValues("ok").Inc()
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &UpstreamError{Message: fmt.Sprintf("decoding response: %v", err)}
		}
		return nil
	}

	return c.classifyFailure(resp, path)
}

// classifyFailure maps a non-2xx response onto the error taxonomy.
func (c *Client) classifyFailure(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	reason := ae.Reason
	if ae.Message != "" {
		reason = ae.Message
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		metrics.APIRequests.WithLabelValues("forbidden").Inc()
		return &ForbiddenError{Message: reason}

	case http.StatusTooManyRequests:
		metrics.APIRequests.WithLabelValues("rate_limited").Inc()
		metrics.RateLimitHits.Inc()
		return &RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}

	case http.StatusNotFound:
		// A 404 on a rankings page whose body says "not found" means the
		// scope has no rankings, which is recoverable by switching scope.
		// Any other 404 stays a plain upstream error.
		if strings.Contains(path, "/rankings/") && strings.Contains(strings.ToLower(ae.Reason+" "+ae.Message), "not found") {
			metrics.APIRequests.WithLabelValues("scope_unavailable").Inc()
			return &ScopeUnavailableError{Scope: scopeFromPath(path), Reason: reason}
		}
		metrics.APIRequests.WithLabelValues("error").Inc()
		if reason == "" {
			reason = "not found"
		}
		return &UpstreamError{StatusCode: resp.StatusCode, Message: reason}

	default:
		metrics.APIRequests.WithLabelValues("error").Inc()
		if reason == "" {
			reason = strings.TrimSpace(string(body))
		}
		return &UpstreamError{StatusCode: resp.StatusCode, Message: reason}
	}
}

func scopeFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// /locations/{id}/rankings/players
	if len(parts) >= 2 && parts[0] == "locations" {
		return parts[1]
	}
	return path
}

// parseRetryAfter accepts both Retry-After forms: delta-seconds and an
// HTTP-date. Unparseable or past values come back as zero.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
