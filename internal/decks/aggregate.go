package decks

import (
	"sort"
	"strings"
)

// Aggregate is one distinct deck with the number of sampled players
// observed holding it.
type Aggregate struct {
	Cards     []string `json:"cards"` // canonical (sorted) order
	Count     int      `json:"count"`
	Archetype string   `json:"archetype"`
}

// CanonicalKey normalizes a deck's card order so set-equal decks
// compare equal. Pure: the input slice is not modified.
func CanonicalKey(cards []string) string {
	sorted := make([]string, len(cards))
	copy(sorted, cards)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// AggregateDecks folds raw decks into counted distinct decks, sorted by
// count descending, stable on ties by first observation. Nils and decks
// that are not exactly eight cards are discarded.
func AggregateDecks(raws [][]string) []Aggregate {
	byKey := make(map[string]*Aggregate)
	order := make([]*Aggregate, 0)

	for _, raw := range raws {
		if len(raw) != DeckSize {
			continue
		}
		key := CanonicalKey(raw)
		agg, ok := byKey[key]
		if !ok {
			sorted := make([]string, DeckSize)
			copy(sorted, raw)
			sort.Strings(sorted)
			agg = &Aggregate{Cards: sorted, Archetype: "Unknown"}
			byKey[key] = agg
			order = append(order, agg)
		}
		agg.Count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Count > order[j].Count
	})

	result := make([]Aggregate, len(order))
	for i, agg := range order {
		result[i] = *agg
	}
	return result
}
