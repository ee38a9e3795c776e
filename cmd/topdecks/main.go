// Command topdecks runs one top-deck aggregation from the terminal and
// prints the ranked table. Handy for checking token setup and sampling
// behavior without the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"deckcoach/internal/clash"
	"deckcoach/internal/config"
	"deckcoach/internal/decks"
	"deckcoach/internal/rankings"
)

func main() {
	limit := flag.Int("limit", 0, "ranked players to sample (default from TOPDECKS_PLAYER_LIMIT)")
	top := flag.Int("top", 10, "number of decks to print")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *limit > 0 {
		cfg.PlayerLimit = *limit
	}

	client, err := clash.NewClient(cfg.APIToken,
		clash.WithBaseURL(cfg.APIBaseURL),
		clash.WithTimeout(cfg.APITimeout),
		clash.WithMinInterval(cfg.RequestDelay))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	service := decks.NewService(client,
		rankings.NewFetcher(client, logger),
		rankings.NewResolver(client, nil, logger),
		decks.NewExtractor(client, logger),
		decks.ServiceConfig{
			PlayerLimit:  cfg.PlayerLimit,
			Concurrency:  cfg.Concurrency,
			RequestDelay: cfg.RequestDelay,
		}, logger)

	fmt.Printf("Sampling up to %d ranked players (concurrency %d)...\n", cfg.PlayerLimit, cfg.Concurrency)
	start := time.Now()

	result, err := service.TopDecks(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Aggregation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nSource: %s (%.1fs)\n", result.Source, time.Since(start).Seconds())
	if result.Warning != "" {
		fmt.Printf("Warning: %s\n", result.Warning)
	}
	if len(result.Decks) == 0 {
		fmt.Println("No decks available.")
		return
	}

	fmt.Printf("\n%-4s %-6s %-10s %s\n", "#", "Count", "Archetype", "Cards")
	for i, deck := range result.Decks {
		if i == *top {
			break
		}
		fmt.Printf("%-4d %-6d %-10s %s\n", i+1, deck.Count, deck.Archetype, strings.Join(deck.Cards, ", "))
	}
}
