package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/glucolog/mealmatch/engine/domain"
)

func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	opts := &natsserver.Options{Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

func TestPublishMealResolved(t *testing.T) {
	nc := startTestNATS(t)

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(SubjectMealResolved, ch)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	items := []domain.SelectedMealItem{
		{
			NormalizedFood: domain.NormalizedFood{
				Provider: domain.ProviderLocal, ExternalID: "rice-1",
				DisplayName: "White rice, cooked",
			},
			Quantity: 1, Source: domain.SourceMatched,
		},
		{
			NormalizedFood: domain.NormalizedFood{
				Provider: domain.ProviderManual, ExternalID: "abc",
				DisplayName: "mystery stew",
			},
			Quantity: 1, Source: domain.SourceManual,
		},
	}
	if err := PublishMealResolved(context.Background(), nc, "req-1", items); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-ch:
		var ev MealResolved
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.RequestID != "req-1" || len(ev.Items) != 2 {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.FallbackCount != 1 {
			t.Errorf("fallback count = %d, want 1", ev.FallbackCount)
		}
		if ev.ResolvedAt.IsZero() {
			t.Error("resolved_at not set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestSubscribeTyped(t *testing.T) {
	nc := startTestNATS(t)

	ch := make(chan CatalogSeeded, 1)
	sub, err := Subscribe(nc, SubjectCatalogSeeded, func(ctx context.Context, ev CatalogSeeded) {
		ch <- ev
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	ev := CatalogSeeded{Provider: "local", Count: 42, SeededAt: time.Now().UTC()}
	if err := Publish(context.Background(), nc, SubjectCatalogSeeded, ev); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		if got.Provider != "local" || got.Count != 42 {
			t.Fatalf("unexpected: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout")
	}
}

func TestSubscribeDropsMalformed(t *testing.T) {
	nc := startTestNATS(t)

	called := make(chan struct{}, 1)
	sub, err := Subscribe(nc, "test.malformed", func(ctx context.Context, ev MealResolved) {
		called <- struct{}{}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	nc.Publish("test.malformed", []byte("{bad"))
	nc.Flush()

	select {
	case <-called:
		t.Fatal("handler should not be called for malformed data")
	case <-time.After(100 * time.Millisecond):
	}
}
