package decks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"deckcoach/internal/clash"
	"deckcoach/internal/metrics"
	"deckcoach/internal/pool"
	"deckcoach/internal/rankings"
)

// Provenance tags on an AggregationResult.
const (
	SourcePopularDecks     = "popular-decks"
	SourceGlobalRankings   = "global-rankings"
	SourceFallbackLocation = "fallback-location"
	SourceFallback         = "fallback"
)

// Defaults for the sampling fan-out.
const (
	DefaultPlayerLimit  = 100
	DefaultConcurrency  = 4
	DefaultRequestDelay = 100 * time.Millisecond
)

// AggregationResult is the final top-deck table for one request.
type AggregationResult struct {
	Decks   []Aggregate `json:"decks"`
	Source  string      `json:"source"`
	Warning string      `json:"warning,omitempty"`
}

// PopularDecksClient is the slice of the API client the shortcut needs.
type PopularDecksClient interface {
	GetPopularDecks(ctx context.Context) ([]clash.PopularDeck, error)
}

// ServiceConfig tunes the sampling pipeline.
type ServiceConfig struct {
	PlayerLimit  int           // ranked players to sample
	Concurrency  int           // simultaneous per-player extractions
	RequestDelay time.Duration // pause after each completed extraction
}

// Service computes the top-decks table: popular-decks shortcut first,
// else ranked-player sampling with a location fallback.
type Service struct {
	popular   PopularDecksClient
	fetcher   *rankings.Fetcher
	locations *rankings.Resolver
	extractor *Extractor
	cfg       ServiceConfig
	logger    *slog.Logger
}

// NewService wires the aggregation pipeline. logger may be nil.
func NewService(popular PopularDecksClient, fetcher *rankings.Fetcher, locations *rankings.Resolver, extractor *Extractor, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.PlayerLimit <= 0 {
		cfg.PlayerLimit = DefaultPlayerLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.RequestDelay == 0 {
		cfg.RequestDelay = DefaultRequestDelay
	} else if cfg.RequestDelay < 0 {
		cfg.RequestDelay = 0 // explicit disable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		popular:   popular,
		fetcher:   fetcher,
		locations: locations,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

// TopDecks runs one aggregation. Forbidden credentials and an exhausted
// location fallback are returned as errors; every other failure
// degrades to a smaller or empty result with a warning.
func (s *Service) TopDecks(ctx context.Context) (*AggregationResult, error) {
	if result := s.fromPopularDecks(ctx); result != nil {
		metrics.Aggregations.WithLabelValues(result.Source).Inc()
		return result, nil
	}

	players, source, warnings, err := s.sampledPlayers(ctx)
	if err != nil {
		return nil, err
	}

	if len(players) == 0 {
		warnings = append(warnings, "no ranked players available to sample")
		result := &AggregationResult{
			Decks:   []Aggregate{},
			Source:  source,
			Warning: strings.Join(warnings, "; "),
		}
		metrics.Aggregations.WithLabelValues(result.Source).Inc()
		return result, nil
	}

	raws, err := s.extractDecks(ctx, players)
	if err != nil {
		return nil, err
	}

	result := &AggregationResult{
		Decks:   AggregateDecks(raws),
		Source:  source,
		Warning: strings.Join(warnings, "; "),
	}
	metrics.Aggregations.WithLabelValues(result.Source).Inc()

	s.logger.Info("top decks aggregated",
		"source", result.Source, "players", len(players), "decks", len(result.Decks))
	return result, nil
}

// fromPopularDecks returns a result when the pre-aggregated listing
// yields at least one well-formed deck, else nil to fall through to
// sampling.
func (s *Service) fromPopularDecks(ctx context.Context) *AggregationResult {
	items, err := s.popular.GetPopularDecks(ctx)
	if err != nil {
		s.logger.Debug("popular decks unavailable, sampling rankings", "error", err)
		return nil
	}

	aggregates := make([]Aggregate, 0, len(items))
	for _, item := range items {
		if len(item.Cards) != DeckSize {
			continue
		}
		archetype := item.Archetype
		if archetype == "" {
			archetype = "Unknown"
		}
		aggregates = append(aggregates, Aggregate{
			Cards:     item.Cards,
			Count:     item.Count,
			Archetype: archetype,
		})
	}
	if len(aggregates) == 0 {
		return nil
	}

	return &AggregationResult{Decks: aggregates, Source: SourcePopularDecks}
}

// sampledPlayers walks the global rankings, falling back to a resolved
// location when the global scope is empty.
func (s *Service) sampledPlayers(ctx context.Context) ([]clash.RankedPlayer, string, []string, error) {
	var warnings []string

	result, err := s.fetcher.TopPlayers(ctx, rankings.Global, s.cfg.PlayerLimit)
	if err != nil {
		return nil, "", nil, err
	}
	if result.Warning != "" {
		warnings = append(warnings, result.Warning)
	}
	if len(result.Players) > 0 {
		return result.Players, SourceGlobalRankings, warnings, nil
	}

	scope, err := s.locations.Resolve(ctx)
	if err != nil {
		return nil, "", nil, fmt.Errorf("resolving fallback location: %w", err)
	}

	fallback, err := s.fetcher.TopPlayers(ctx, scope, s.cfg.PlayerLimit)
	if err != nil {
		return nil, "", nil, err
	}
	if fallback.Warning != "" {
		warnings = append(warnings, fallback.Warning)
	}
	return fallback.Players, SourceFallbackLocation, warnings, nil
}

// extractDecks fans the player list through the bounded pool. One
// Forbidden error aborts the whole batch; every other per-player
// failure just yields a nil deck.
func (s *Service) extractDecks(ctx context.Context, players []clash.RankedPlayer) ([][]string, error) {
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var fatalOnce sync.Once
	var fatalErr error

	raws := pool.Run(poolCtx, players, func(ctx context.Context, player clash.RankedPlayer) []string {
		result, err := s.extractor.Extract(ctx, player.Tag)
		if err != nil {
			// Only Forbidden reaches here; it invalidates every
			// remaining extraction, so stop the batch.
			fatalOnce.Do(func() {
				fatalErr = err
				cancel()
			})
			return nil
		}
		if !result.Found {
			return nil
		}
		return result.Cards
	}, pool.Options{
		Concurrency: s.cfg.Concurrency,
		Delay:       s.cfg.RequestDelay,
	})

	if fatalErr != nil {
		return nil, fatalErr
	}
	return raws, nil
}
