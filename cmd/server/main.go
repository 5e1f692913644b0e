// Package main implements the mealmatch HTTP API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/glucolog/mealmatch/engine/catalog"
	"github.com/glucolog/mealmatch/engine/domain"
	"github.com/glucolog/mealmatch/engine/resolve"
	"github.com/glucolog/mealmatch/engine/semantic"
	"github.com/glucolog/mealmatch/pkg/events"
	"github.com/glucolog/mealmatch/pkg/metrics"
	"github.com/glucolog/mealmatch/pkg/mid"
	"github.com/glucolog/mealmatch/pkg/off"
	"github.com/glucolog/mealmatch/pkg/ollama"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	CatalogPath string
	OFFBaseURL  string
	QdrantURL   string
	Collection  string
	OllamaURL   string
	EmbedModel  string
	NATSURL     string
	CORSOrigin  string
}

func loadConfig() Config {
	return Config{
		Port:        envOr("PORT", "8080"),
		CatalogPath: envOr("CATALOG_PATH", "foods.db"),
		OFFBaseURL:  os.Getenv("OFF_URL"),
		QdrantURL:   os.Getenv("QDRANT_URL"),
		Collection:  envOr("QDRANT_COLLECTION", "foods"),
		OllamaURL:   envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:  envOr("EMBED_MODEL", ollama.DefaultModel),
		NATSURL:     os.Getenv("NATS_URL"),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer vectorStore.Close()
		embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
		searchers = append(searchers, semantic.NewSearcher(vectorStore, embedder, 0, logger))
	}

	svc := resolve.New(resolve.NewMultiSearcher(logger, searchers...), resolve.DefaultOptions(), logger)

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
	}

	met := metrics.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("POST /api/resolve", handleResolve(svc, nc, met, logger))
	mux.Handle("GET /metrics", met.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("mealmatch-api"),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ResolveRequest is the JSON body for POST /api/resolve. Exactly one of
// Description or Analyzed should be set.
type ResolveRequest struct {
	Description string                `json:"description,omitempty"`
	Analyzed    []domain.AnalyzedItem `json:"analyzed,omitempty"`
}

// ResolveResponse is the JSON response for POST /api/resolve.
type ResolveResponse struct {
	RequestID string                    `json:"request_id"`
	Items     []domain.SelectedMealItem `json:"items"`
}

func handleResolve(svc *resolve.Service, nc *nats.Conn, met *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	itemCounter := func(source domain.Source) *metrics.Counter {
		return met.Counter(metrics.WithLabels("mealmatch_items_total", "source", string(source)),
			"Resolved items by source")
	}
	durHist := met.Histogram("mealmatch_resolve_duration_seconds", "Batch resolution duration", nil)
	inflight := met.Gauge("mealmatch_inflight_requests", "Resolutions in progress")

	return func(w http.ResponseWriter, r *http.Request) {
		inflight.Inc()
		defer inflight.Dec()

		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Description == "" && len(req.Analyzed) == 0 {
			http.Error(w, `{"error":"description or analyzed items required"}`, http.StatusBadRequest)
			return
		}

		start := time.Now()
		var (
			items []domain.SelectedMealItem
			err   error
		)
		if req.Description != "" {
			items, err = svc.ResolveFromText(r.Context(), req.Description)
		} else {
			items, err = svc.ResolveFromAnalyzed(r.Context(), req.Analyzed)
		}
		durHist.Since(start)

		if err != nil {
			if errors.Is(err, domain.ErrEmptyDescription) {
				http.Error(w, `{"error":"description is empty"}`, http.StatusBadRequest)
				return
			}
			logger.Error("resolve failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		for _, it := range items {
			itemCounter(it.Source).Inc()
		}

		requestID := uuid.NewString()
		if nc != nil {
			if err := events.PublishMealResolved(r.Context(), nc, requestID, items); err != nil {
				logger.Warn("event publish failed", "err", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ResolveResponse{RequestID: requestID, Items: items})
	}
}
