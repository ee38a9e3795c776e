package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"deckcoach/internal/advisor"
	"deckcoach/internal/clash"
	"deckcoach/internal/decks"
)

type stubAPI struct {
	player     *clash.Player
	playerErr  error
	cards      []clash.PlayerCard
	battles    []clash.Battle
	battlesErr error

	battleLogCalls int
}

func (s *stubAPI) GetPlayer(ctx context.Context, tag string) (*clash.Player, error) {
	return s.player, s.playerErr
}

func (s *stubAPI) GetPlayerCards(ctx context.Context, tag string) ([]clash.PlayerCard, error) {
	return s.cards, nil
}

func (s *stubAPI) GetBattleLog(ctx context.Context, tag string) ([]clash.Battle, error) {
	s.battleLogCalls++
	return s.battles, s.battlesErr
}

type stubTopDecks struct {
	result *decks.AggregationResult
	err    error
}

func (s *stubTopDecks) TopDecks(ctx context.Context) (*decks.AggregationResult, error) {
	return s.result, s.err
}

type stubIcons struct {
	icons map[string]string
	err   error
}

func (s *stubIcons) IconURLs(ctx context.Context) (map[string]string, error) {
	return s.icons, s.err
}

func newTestServer(t *testing.T, srv *server) *chi.Mux {
	t.Helper()
	deckAdvisor, err := advisor.New()
	if err != nil {
		t.Fatalf("advisor.New failed: %v", err)
	}
	srv.advisor = deckAdvisor
	srv.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Get("/api/player/{tag}", srv.handlePlayer)
	r.Get("/api/top-decks", srv.handleTopDecks)
	return r
}

// TestHandleTopDecks_DegradesToWarning verifies a fatal aggregation
// error still produces a 200 with an empty list and a warning
func TestHandleTopDecks_DegradesToWarning(t *testing.T) {
	router := newTestServer(t, &server{
		topDecks: &stubTopDecks{err: &clash.UpstreamError{StatusCode: 503, Message: "inMaintenance"}},
		icons:    &stubIcons{},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/top-decks", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp topDecksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if resp.Source != decks.SourceFallback {
		t.Errorf("Expected source fallback, got %s", resp.Source)
	}
	if len(resp.Decks) != 0 || resp.Warning == "" {
		t.Errorf("Expected empty decks plus warning, got %+v", resp)
	}
}

// TestHandleTopDecks_HydratesIcons verifies card icons come from the
// catalog cache
func TestHandleTopDecks_HydratesIcons(t *testing.T) {
	router := newTestServer(t, &server{
		topDecks: &stubTopDecks{result: &decks.AggregationResult{
			Decks: []decks.Aggregate{
				{Cards: []string{"Knight", "Zap"}, Count: 3, Archetype: "Unknown"},
			},
			Source: decks.SourceGlobalRankings,
		}},
		icons: &stubIcons{icons: map[string]string{"Knight": "https://cdn/knight.png"}},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/top-decks", nil))

	var resp topDecksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if len(resp.Decks) != 1 {
		t.Fatalf("Expected 1 deck, got %d", len(resp.Decks))
	}
	if resp.Decks[0].Cards[0].IconURL != "https://cdn/knight.png" {
		t.Errorf("Expected Knight icon, got %+v", resp.Decks[0].Cards[0])
	}
	if resp.Decks[0].Cards[1].IconURL != "" {
		t.Errorf("Expected no icon for Zap, got %+v", resp.Decks[0].Cards[1])
	}
}

// TestHandlePlayer_ForbiddenMapsTo403 verifies single-player requests
// surface real HTTP errors instead of degrading
func TestHandlePlayer_ForbiddenMapsTo403(t *testing.T) {
	router := newTestServer(t, &server{
		api: &stubAPI{playerErr: &clash.ForbiddenError{}},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/player/ABC", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}
}

func TestHandlePlayer_NotFoundMapsTo404(t *testing.T) {
	router := newTestServer(t, &server{
		api: &stubAPI{playerErr: &clash.UpstreamError{StatusCode: 404, Message: "notFound"}},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/player/NOPE", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestHandlePlayer_ReturnsSuggestions(t *testing.T) {
	api := &stubAPI{
		player: &clash.Player{Tag: "#ABC", Name: "Tester", ExpLevel: 11},
		cards:  []clash.PlayerCard{{Name: "Hog Rider", Level: 11}},
	}
	router := newTestServer(t, &server{api: api})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/player/ABC", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp playerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if resp.Profile == nil || resp.Profile.Name != "Tester" {
		t.Errorf("Unexpected profile: %+v", resp.Profile)
	}
	if len(resp.Suggestions) == 0 {
		t.Error("Expected deck suggestions")
	}
	if api.battleLogCalls != 1 {
		t.Errorf("Expected one battle log fetch, got %d", api.battleLogCalls)
	}
}

// TestHandlePlayer_BattleLogErrorIsAnError verifies the route treats a
// battle log failure like any other upstream failure for the player
func TestHandlePlayer_BattleLogErrorIsAnError(t *testing.T) {
	router := newTestServer(t, &server{
		api: &stubAPI{
			player:     &clash.Player{Tag: "#ABC", Name: "Tester", ExpLevel: 11},
			battlesErr: &clash.UpstreamError{StatusCode: 503, Message: "inMaintenance"},
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/player/ABC", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
}
