package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deckcoach/internal/advisor"
	"deckcoach/internal/catalog"
	"deckcoach/internal/clash"
	"deckcoach/internal/config"
	"deckcoach/internal/decks"
	"deckcoach/internal/rankings"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	client, err := clash.NewClient(cfg.APIToken,
		clash.WithBaseURL(cfg.APIBaseURL),
		clash.WithTimeout(cfg.APITimeout),
		clash.WithMinInterval(cfg.RequestDelay))
	if err != nil {
		logger.Error("client setup failed", "error", err)
		os.Exit(1)
	}

	deckAdvisor, err := advisor.New()
	if err != nil {
		logger.Error("advisor setup failed", "error", err)
		os.Exit(1)
	}

	topDecks := decks.NewService(client,
		rankings.NewFetcher(client, logger),
		rankings.NewResolver(client, nil, logger),
		decks.NewExtractor(client, logger),
		decks.ServiceConfig{
			PlayerLimit:  cfg.PlayerLimit,
			Concurrency:  cfg.Concurrency,
			RequestDelay: cfg.RequestDelay,
		}, logger)

	srv := &server{
		api:      client,
		topDecks: topDecks,
		icons:    catalog.New(client),
		advisor:  deckAdvisor,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/player/{tag}", srv.handlePlayer)
	r.Get("/api/top-decks", srv.handleTopDecks)
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port
	logger.Info("deckcoach backend listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
