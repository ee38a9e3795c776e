// Package decks extracts eight-card decks from ranked players and
// reduces them into a frequency-ranked top-deck table.
package decks

import (
	"context"
	"log/slog"
	"strings"

	"deckcoach/internal/clash"
)

// DeckSize is the number of cards in every valid deck.
const DeckSize = 8

// PlayerClient is the slice of the API client extraction needs.
type PlayerClient interface {
	GetPlayer(ctx context.Context, tag string) (*clash.Player, error)
	GetBattleLog(ctx context.Context, tag string) ([]clash.Battle, error)
}

// ExtractResult is a tagged found/not-found value so failure handling
// stays uniform instead of error-driven.
type ExtractResult struct {
	Found bool
	Cards []string // upstream acquisition order; canonicalized later
}

// Extractor obtains one player's deck: the profile's current deck when
// present, else the most recent qualifying solo battle.
type Extractor struct {
	client PlayerClient
	logger *slog.Logger
}

// NewExtractor creates an Extractor. logger may be nil.
func NewExtractor(client PlayerClient, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract returns the player's deck or NotFound. Only a Forbidden error
// is returned as an error: it means the credential is bad for every
// player, so the whole aggregation must stop. Everything else degrades
// to NotFound for this one player.
func (e *Extractor) Extract(ctx context.Context, tag string) (ExtractResult, error) {
	player, err := e.client.GetPlayer(ctx, tag)
	switch {
	case err == nil:
		if len(player.CurrentDeck) == DeckSize {
			return ExtractResult{Found: true, Cards: cardNames(player.CurrentDeck)}, nil
		}
	case clash.IsForbidden(err):
		return ExtractResult{}, err
	default:
		e.logger.Debug("player detail fetch failed, trying battle log", "tag", tag, "error", err)
	}

	battles, err := e.client.GetBattleLog(ctx, tag)
	if err != nil {
		if clash.IsForbidden(err) {
			return ExtractResult{}, err
		}
		e.logger.Debug("battle log fetch failed", "tag", tag, "error", err)
		return ExtractResult{}, nil
	}

	for _, battle := range battles {
		if deck, ok := soloDeck(battle); ok {
			return ExtractResult{Found: true, Cards: deck}, nil
		}
	}
	return ExtractResult{}, nil
}

// soloDeck returns the team's cards when the battle is a qualifying
// solo match: one team member, a full eight-card list, and not a 2v2
// mode.
func soloDeck(battle clash.Battle) ([]string, bool) {
	if len(battle.Team) != 1 {
		return nil, false
	}
	if len(battle.Team[0].Cards) != DeckSize {
		return nil, false
	}
	if strings.Contains(strings.ToLower(battle.Type), "2v2") {
		return nil, false
	}
	return cardNames(battle.Team[0].Cards), true
}

func cardNames(cards []clash.PlayerCard) []string {
	names := make([]string, len(cards))
	for i, card := range cards {
		names[i] = card.Name
	}
	return names
}
