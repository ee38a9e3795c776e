package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deckcoach/internal/advisor"
	"deckcoach/internal/clash"
	"deckcoach/internal/decks"
)

// playerAPI is the slice of the client the player route needs.
type playerAPI interface {
	GetPlayer(ctx context.Context, tag string) (*clash.Player, error)
	GetPlayerCards(ctx context.Context, tag string) ([]clash.PlayerCard, error)
	GetBattleLog(ctx context.Context, tag string) ([]clash.Battle, error)
}

type topDecksService interface {
	TopDecks(ctx context.Context) (*decks.AggregationResult, error)
}

type iconCache interface {
	IconURLs(ctx context.Context) (map[string]string, error)
}

type server struct {
	api      playerAPI
	topDecks topDecksService
	icons    iconCache
	advisor  *advisor.Advisor
	logger   *slog.Logger
}

type playerResponse struct {
	Profile     *clash.Player        `json:"profile"`
	Cards       []clash.PlayerCard   `json:"cards"`
	Suggestions []advisor.Suggestion `json:"suggestions"`
}

// handlePlayer returns the profile, collection and deck suggestions for
// one player. Unlike the bulk top-decks route, a failure here is a real
// HTTP error: there is no meaningful partial result for one player.
func (s *server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag := chi.URLParam(r, "tag")

	profile, err := s.api.GetPlayer(ctx, tag)
	if err != nil {
		s.writeError(w, err)
		return
	}

	cards, err := s.api.GetPlayerCards(ctx, tag)
	if err != nil {
		s.writeError(w, err)
		return
	}

	battles, err := s.api.GetBattleLog(ctx, tag)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, playerResponse{
		Profile:     profile,
		Cards:       cards,
		Suggestions: s.advisor.Recommend(profile, cards, battles),
	})
}

type hydratedCard struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

type hydratedDeck struct {
	Cards     []hydratedCard `json:"cards"`
	Count     int            `json:"count"`
	Archetype string         `json:"archetype"`
}

type topDecksResponse struct {
	Decks   []hydratedDeck `json:"decks"`
	Source  string         `json:"source"`
	Warning string         `json:"warning,omitempty"`
}

// handleTopDecks runs the aggregation and hydrates card icons. Fatal
// aggregation errors degrade to an empty 200 with a warning so the
// feature reads as "no decks available" rather than breaking.
func (s *server) handleTopDecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := s.topDecks.TopDecks(ctx)
	if err != nil {
		s.logger.Error("top decks aggregation failed", "error", err)
		writeJSON(w, http.StatusOK, topDecksResponse{
			Decks:   []hydratedDeck{},
			Source:  decks.SourceFallback,
			Warning: userMessage(err),
		})
		return
	}

	icons, err := s.icons.IconURLs(ctx)
	if err != nil {
		s.logger.Warn("card catalog unavailable, serving decks without icons", "error", err)
		icons = nil
	}

	hydrated := make([]hydratedDeck, len(result.Decks))
	for i, deck := range result.Decks {
		cards := make([]hydratedCard, len(deck.Cards))
		for j, name := range deck.Cards {
			cards[j] = hydratedCard{Name: name, IconURL: icons[name]}
		}
		hydrated[i] = hydratedDeck{Cards: cards, Count: deck.Count, Archetype: deck.Archetype}
	}

	writeJSON(w, http.StatusOK, topDecksResponse{
		Decks:   hydrated,
		Source:  result.Source,
		Warning: result.Warning,
	})
}

// writeError maps client errors onto HTTP statuses for single-player
// requests.
func (s *server) writeError(w http.ResponseWriter, err error) {
	s.logger.Error("player request failed", "error", err)

	status := http.StatusInternalServerError
	message := err.Error()

	var ue *clash.UpstreamError
	switch {
	case clash.IsForbidden(err):
		status = http.StatusForbidden
		message = "Clash Royale API rejected the configured token"
	case clash.IsRateLimited(err):
		status = http.StatusServiceUnavailable
		message = "Clash Royale API is rate limiting requests, try again shortly"
	case errors.As(err, &ue):
		if ue.StatusCode >= 400 && ue.StatusCode < 500 {
			status = ue.StatusCode
		} else {
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, map[string]string{"error": message})
}

func userMessage(err error) string {
	if clash.IsForbidden(err) {
		return "Clash Royale API rejected the configured token"
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
