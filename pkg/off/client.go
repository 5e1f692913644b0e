// Package off is an Open Food Facts search backend. Results are normalized to
// a per-100g basis, which is what the public API reports most reliably.
package off

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/glucolog/mealmatch/engine/domain"
	"github.com/glucolog/mealmatch/pkg/resilience"
)

// DefaultBaseURL is the public Open Food Facts instance.
const DefaultBaseURL = "https://world.openfoodfacts.org"

// Client queries the Open Food Facts search API. It rate-limits itself (the
// public instance asks for well-behaved clients) and trips a circuit breaker
// on repeated failures so a flaky upstream degrades to the next backend
// instead of stalling every lookup.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	logger     *slog.Logger
}

// New creates an Open Food Facts client. Pass "" for baseURL to use the
// public instance.
func New(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:  logger,
	}
}

// product is the subset of an OFF search record we care about.
type product struct {
	Code          string         `json:"code"`
	ProductName   string         `json:"product_name"`
	ProductNameEn string         `json:"product_name_en"`
	GenericName   string         `json:"generic_name"`
	Brands        string         `json:"brands"`
	Nutriments    map[string]any `json:"nutriments"`
}

// name returns the best available product name:
// product_name → product_name_en → generic_name → "".
func (p *product) name() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	if p.ProductNameEn != "" {
		return p.ProductNameEn
	}
	return p.GenericName
}

type searchResponse struct {
	Products []product `json:"products"`
}

// Search implements resolve.Searcher against the OFF search API.
func (c *Client) Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]domain.NormalizedFood, error) {
	if limit <= 0 {
		limit = 15
	}
	// The limiter waits inside the breaker so an open circuit rejects
	// immediately instead of burning rate budget on a doomed call.
	var foods []domain.NormalizedFood
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		foods, err = c.search(ctx, query, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("off: search %q: %w", query, err)
	}

	if len(excludeIDs) == 0 {
		return foods, nil
	}
	skip := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		skip[id] = struct{}{}
	}
	kept := foods[:0]
	for _, f := range foods {
		if _, ok := skip[f.ExternalID]; !ok {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]domain.NormalizedFood, error) {
	params := url.Values{
		"search_terms":  {query},
		"search_simple": {"1"},
		"action":        {"process"},
		"json":          {"1"},
		"page_size":     {strconv.Itoa(limit)},
		"fields":        {"code,product_name,product_name_en,generic_name,brands,nutriments"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/cgi/search.pl?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mealmatch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	foods := make([]domain.NormalizedFood, 0, len(result.Products))
	for _, p := range result.Products {
		f, ok := normalize(p)
		if !ok {
			continue
		}
		foods = append(foods, f)
	}
	c.logger.Debug("off search", "query", query, "products", len(result.Products), "usable", len(foods))
	return foods, nil
}

// normalize maps an OFF product to a per-100g normalized food. Products with
// no code, no name, or no nutriment data at all are dropped.
func normalize(p product) (domain.NormalizedFood, bool) {
	name := p.name()
	if p.Code == "" || name == "" {
		return domain.NormalizedFood{}, false
	}

	m := domain.Nutrients{
		Calories: kcal100g(p.Nutriments),
		Carbs:    nutriment(p.Nutriments, "carbohydrates_100g", 100),
		Protein:  nutriment(p.Nutriments, "proteins_100g", 100),
		Fat:      nutriment(p.Nutriments, "fat_100g", 100),
		Fibre:    nutriment(p.Nutriments, "fiber_100g", 100),
		Sugar:    nutriment(p.Nutriments, "sugars_100g", 100),
	}
	// sodium_100g is grams; report milligrams.
	if na := nutriment(p.Nutriments, "sodium_100g", 100); na != nil {
		m.SodiumMg = domain.Float(*na * 1000)
	}
	if m.PositiveMacroCount() == 0 && m.Calories == nil {
		return domain.NormalizedFood{}, false
	}

	return domain.SanitizeFood(domain.NormalizedFood{
		Provider:    domain.ProviderOpenFoodFacts,
		ExternalID:  p.Code,
		DisplayName: name,
		Brand:       p.Brands,
		ServingSize: 100,
		ServingUnit: "g",
		Macros:      m,
	}), true
}

// kcal100g prefers energy-kcal_100g and falls back to energy-kj_100g / 4.184.
func kcal100g(n map[string]any) *float64 {
	if v := nutriment(n, "energy-kcal_100g", 10000); v != nil {
		return v
	}
	if v := nutriment(n, "energy-kj_100g", 50000); v != nil {
		return domain.Float(*v / 4.184)
	}
	return nil
}

// nutriment extracts a float nutriment, dropping implausible values.
func nutriment(n map[string]any, key string, max float64) *float64 {
	v, ok := n[key]
	if !ok {
		return nil
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		var err error
		f, err = strconv.ParseFloat(x, 64)
		if err != nil {
			return nil
		}
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > max {
		return nil
	}
	return domain.Float(f)
}
