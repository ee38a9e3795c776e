// Package advisor scores a fixed catalog of archetype decks against one
// player's card collection.
package advisor

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"deckcoach/internal/clash"
)

//go:embed meta_decks.json
var metaDecksJSON []byte

// MetaDeck is one archetype deck from the embedded catalog.
type MetaDeck struct {
	Name      string   `json:"name"`
	Archetype string   `json:"archetype"`
	Cards     []string `json:"cards"`
	KeyCards  []string `json:"keyCards"`
}

// Suggestion is one scored deck recommendation.
type Suggestion struct {
	Name               string   `json:"name"`
	Archetype          string   `json:"archetype"`
	KeyCards           []string `json:"keyCards"`
	MissingCards       []string `json:"missingCards"`
	Score              int      `json:"score"`
	UpgradeNeeded      int      `json:"upgradeNeeded"`
	UpgradeSuggestions []string `json:"upgradeSuggestions"`
}

// Advisor holds the parsed archetype catalog.
type Advisor struct {
	decks []MetaDeck
}

// New parses the embedded catalog.
func New() (*Advisor, error) {
	var decks []MetaDeck
	if err := json.Unmarshal(metaDecksJSON, &decks); err != nil {
		return nil, fmt.Errorf("parsing meta deck catalog: %w", err)
	}
	return &Advisor{decks: decks}, nil
}

// Scoring weights. A deck starts at 100 and loses points for missing
// cards and level deficits below the player's king level.
const (
	missingKeyCardPenalty = 50
	missingCardPenalty    = 10
	levelDeficitPenalty   = 2
	maxUpgradeSuggestions = 2
)

type underleveled struct {
	name  string
	level int
}

// Recommend scores every catalog deck against the player's collection,
// best fit first. The battle log is not consulted yet; it is where
// recent-performance adjustments would plug in.
func (a *Advisor) Recommend(player *clash.Player, cards []clash.PlayerCard, _ []clash.Battle) []Suggestion {
	kingLevel := player.ExpLevel

	owned := make(map[string]clash.PlayerCard, len(cards))
	for _, card := range cards {
		owned[card.Name] = card
	}

	suggestions := make([]Suggestion, 0, len(a.decks))
	for _, deck := range a.decks {
		var missing []string
		missingKey := false
		for _, name := range deck.Cards {
			if _, ok := owned[name]; !ok {
				missing = append(missing, name)
				if contains(deck.KeyCards, name) {
					missingKey = true
				}
			}
		}

		totalDeficit := 0
		var under []underleveled
		for _, name := range deck.Cards {
			card, ok := owned[name]
			if !ok {
				continue
			}
			if kingLevel > 0 && card.Level < kingLevel {
				under = append(under, underleveled{name: name, level: card.Level})
				totalDeficit += kingLevel - card.Level
			}
		}

		score := 100
		if missingKey {
			score -= missingKeyCardPenalty
		}
		score -= len(missing) * missingCardPenalty
		score -= totalDeficit * levelDeficitPenalty
		if score < 0 {
			score = 0
		}

		// Lowest-level cards are the most urgent upgrades.
		sort.SliceStable(under, func(i, j int) bool { return under[i].level < under[j].level })
		upgrades := make([]string, 0, maxUpgradeSuggestions)
		for _, u := range under {
			if len(upgrades) == maxUpgradeSuggestions {
				break
			}
			upgrades = append(upgrades, u.name)
		}

		suggestions = append(suggestions, Suggestion{
			Name:               deck.Name,
			Archetype:          deck.Archetype,
			KeyCards:           deck.KeyCards,
			MissingCards:       missing,
			Score:              score,
			UpgradeNeeded:      len(under),
			UpgradeSuggestions: upgrades,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	return suggestions
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
