// Package main implements the catalog seeder: load a JSONL food file into the
// local SQLite catalog and, when Qdrant is configured, embed each food and
// upsert its vector for semantic search.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/glucolog/mealmatch/engine/catalog"
	"github.com/glucolog/mealmatch/engine/domain"
	"github.com/glucolog/mealmatch/engine/semantic"
	"github.com/glucolog/mealmatch/pkg/events"
	"github.com/glucolog/mealmatch/pkg/fn"
	"github.com/glucolog/mealmatch/pkg/ollama"
)

const (
	upsertBatch  = 500
	embedWorkers = 4
)

// Config holds all environment-based configuration.
type Config struct {
	CatalogPath string
	QdrantURL   string // empty skips vector seeding
	Collection  string
	OllamaURL   string
	EmbedModel  string
	NATSURL     string // empty disables the seeded event
}

func loadConfig() Config {
	return Config{
		CatalogPath: envOr("CATALOG_PATH", "foods.db"),
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

	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: seed <foods.jsonl>")
		os.Exit(2)
	}

	if err := run(loadConfig(), flag.Arg(0), logger); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, path string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	foods, err := loadFoods(path)
	if err != nil {
		return err
	}
	foods = fn.UniqueBy(foods, domain.NormalizedFood.Key)
	logger.Info("loaded seed file", "path", path, "foods", len(foods))

	store, err := catalog.New(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, batch := range fn.Chunk(foods, upsertBatch) {
		if err := store.Upsert(ctx, batch); err != nil {
			return err
		}
	}
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("catalog seeded", "path", cfg.CatalogPath, "total", count)

	if cfg.QdrantURL != "" {
		if err := seedVectors(ctx, cfg, foods, logger); err != nil {
			return err
		}
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		ev := events.CatalogSeeded{
			Provider: string(domain.ProviderLocal),
			Count:    count,
			SeededAt: time.Now().UTC(),
		}
		if err := events.Publish(ctx, nc, events.SubjectCatalogSeeded, ev); err != nil {
			logger.Warn("event publish failed", "err", err)
		}
	}
	return nil
}

func seedVectors(ctx context.Context, cfg Config, foods []domain.NormalizedFood, logger *slog.Logger) error {
	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return err
	}
	defer vectorStore.Close()

	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)

	// Probe once to learn the vector dimensionality.
	probe, err := embedder.Embed(ctx, foods[0].DisplayName)
	if err != nil {
		return fmt.Errorf("embed probe: %w", err)
	}
	if err := vectorStore.EnsureCollection(ctx, len(probe)); err != nil {
		return err
	}

	retry := fn.RetryOpts{MaxAttempts: 3, InitialWait: time.Second, MaxWait: 10 * time.Second, Jitter: true}
	results := fn.ParMapResult(foods, embedWorkers, func(f domain.NormalizedFood) fn.Result[semantic.FoodVector] {
		return fn.Retry(ctx, retry, func(ctx context.Context) fn.Result[semantic.FoodVector] {
			text := f.DisplayName
			if f.Brand != "" {
				text = f.Brand + " " + text
			}
			vec, err := embedder.Embed(ctx, text)
			if err != nil {
				return fn.Err[semantic.FoodVector](err)
			}
			return fn.Ok(semantic.FoodVector{Food: f, Embedding: vec})
		})
	})

	embedded := fn.FilterMap(results, func(r fn.Result[semantic.FoodVector]) (semantic.FoodVector, bool) {
		v, err := r.Unwrap()
		if err != nil {
			logger.Warn("embed failed", "err", err)
		}
		return v, err == nil
	})

	for _, batch := range fn.Chunk(embedded, upsertBatch) {
		if err := vectorStore.Upsert(ctx, batch); err != nil {
			return err
		}
	}
	logger.Info("vectors seeded", "embedded", len(embedded), "failed", len(foods)-len(embedded))
	return nil
}

func loadFoods(path string) ([]domain.NormalizedFood, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var foods []domain.NormalizedFood
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var food domain.NormalizedFood
		if err := json.Unmarshal(raw, &food); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if food.Provider == "" {
			food.Provider = domain.ProviderLocal
		}
		foods = append(foods, food)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(foods) == 0 {
		return nil, fmt.Errorf("%s: no records", path)
	}
	return foods, nil
}
