package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glucolog/mealmatch/pkg/fn"
)

var errUpstream = errors.New("upstream down")

func failing(context.Context) error { return errUpstream }
func succeeding(context.Context) error { return nil }

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Call(context.Background(), failing); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}
	if err := b.Call(context.Background(), succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker let a call through: %v", err)
	}
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})

	b.Call(context.Background(), failing)
	b.Call(context.Background(), succeeding)
	b.Call(context.Background(), failing)

	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed", b.State())
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	b.now = func() time.Time { return now }

	b.Call(context.Background(), failing)
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	now = now.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open after timeout", b.State())
	}
	if err := b.Call(context.Background(), succeeding); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed after successful probe", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	b.now = func() time.Time { return now }

	b.Call(context.Background(), failing)
	now = now.Add(11 * time.Second)
	b.Call(context.Background(), failing)

	if b.State() != StateOpen {
		t.Errorf("state = %s, want open after failed probe", b.State())
	}
}

func TestCallResult(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})

	res := CallResult(b, context.Background(), func(context.Context) fn.Result[int] {
		return fn.Ok(42)
	})
	if v, _ := res.Unwrap(); v != 42 {
		t.Errorf("value = %d", v)
	}

	CallResult(b, context.Background(), func(context.Context) fn.Result[int] {
		return fn.Err[int](errUpstream)
	})
	res = CallResult(b, context.Background(), func(context.Context) fn.Result[int] {
		return fn.Ok(1)
	})
	if _, err := res.Unwrap(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}
