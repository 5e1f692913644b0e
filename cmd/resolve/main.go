// Package main implements the mealmatch CLI: resolve a meal description (or
// a file of vision-analyzed items) against the configured food backends and
// print the selected items as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/glucolog/mealmatch/engine/catalog"
	"github.com/glucolog/mealmatch/engine/domain"
	"github.com/glucolog/mealmatch/engine/resolve"
	"github.com/glucolog/mealmatch/engine/semantic"
	"github.com/glucolog/mealmatch/pkg/events"
	"github.com/glucolog/mealmatch/pkg/off"
	"github.com/glucolog/mealmatch/pkg/ollama"
)

// Config holds all environment-based configuration.
type Config struct {
	CatalogPath string
	OFFBaseURL  string // empty disables the Open Food Facts backend
	QdrantURL   string // empty disables the semantic backend
	Collection  string
	OllamaURL   string
	EmbedModel  string
	NATSURL     string // empty disables event publishing
}

func loadConfig() Config {
	return Config{
		CatalogPath: envOr("CATALOG_PATH", "foods.db"),
		OFFBaseURL:  os.Getenv("OFF_URL"),
		QdrantURL:   os.Getenv("QDRANT_URL"),
		Collection:  envOr("QDRANT_COLLECTION", "foods"),
		OllamaURL:   envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:  envOr("EMBED_MODEL", ollama.DefaultModel),
		NATSURL:     os.Getenv("NATS_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	analyzedPath := flag.String("analyzed", "", "path to a JSON file of vision-analyzed items")
	flag.Parse()

	cfg := loadConfig()
	if err := run(cfg, *analyzedPath, strings.Join(flag.Args(), " "), logger); err != nil {
		logger.Error("resolve failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, analyzedPath, description string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if analyzedPath == "" && description == "" {
		return fmt.Errorf("nothing to resolve: pass a meal description or -analyzed file")
	}

	store, err := catalog.New(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	searchers := []resolve.Searcher{store}
	if cfg.OFFBaseURL != "" {
		searchers = append(searchers, off.New(cfg.OFFBaseURL, logger))
	}
	if cfg.QdrantURL != "" {
		vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
		if err != nil {
			return err
		}
		defer vectorStore.Close()
		embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
		searchers = append(searchers, semantic.NewSearcher(vectorStore, embedder, 0, logger))
	}

	svc := resolve.New(resolve.NewMultiSearcher(logger, searchers...), resolve.DefaultOptions(), logger)

	var items []domain.SelectedMealItem
	if analyzedPath != "" {
		analyzed, err := loadAnalyzed(analyzedPath)
		if err != nil {
			return err
		}
		items, err = svc.ResolveFromAnalyzed(ctx, analyzed)
		if err != nil {
			return err
		}
	} else {
		items, err = svc.ResolveFromText(ctx, description)
		if err != nil {
			return err
		}
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		if err := events.PublishMealResolved(ctx, nc, uuid.NewString(), items); err != nil {
			logger.Warn("event publish failed", "err", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func loadAnalyzed(path string) ([]domain.AnalyzedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []domain.AnalyzedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return items, nil
}
