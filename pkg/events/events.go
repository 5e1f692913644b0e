// Package events publishes meal resolution events over NATS as JSON, with
// OpenTelemetry trace propagation through message headers. Downstream
// consumers (logging UI, glucose forecasting) subscribe to these subjects.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/glucolog/mealmatch/engine/domain"
)

// Subjects.
const (
	SubjectMealResolved  = "meals.resolved"
	SubjectCatalogSeeded = "catalog.seeded"
)

// MealResolved is emitted once per resolved meal description or photo.
type MealResolved struct {
	RequestID     string                    `json:"request_id"`
	Items         []domain.SelectedMealItem `json:"items"`
	FallbackCount int                       `json:"fallback_count"`
	ResolvedAt    time.Time                 `json:"resolved_at"`
}

// CatalogSeeded is emitted after a seeding run completes.
type CatalogSeeded struct {
	Provider string    `json:"provider"`
	Count    int64     `json:"count"`
	SeededAt time.Time `json:"seeded_at"`
}

// headerCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Publish serializes v as JSON and publishes to the given subject.
// Trace context from ctx is injected into NATS message headers.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return nc.PublishMsg(msg)
}

// Subscribe registers a handler that deserializes JSON messages of type T.
// Trace context is extracted from NATS message headers and passed to the
// handler. Malformed messages are silently dropped.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return // drop malformed messages
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
		handler(ctx, v)
	})
}

// PublishMealResolved emits a MealResolved event for a batch of items.
func PublishMealResolved(ctx context.Context, nc *nats.Conn, requestID string, items []domain.SelectedMealItem) error {
	fallbacks := 0
	for _, it := range items {
		if it.Source == domain.SourceManual {
			fallbacks++
		}
	}
	return Publish(ctx, nc, SubjectMealResolved, MealResolved{
		RequestID:     requestID,
		Items:         items,
		FallbackCount: fallbacks,
		ResolvedAt:    time.Now().UTC(),
	})
}
