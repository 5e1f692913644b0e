package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	r := New()
	c := r.Counter("mealmatch_items_total", "Resolved meal items")
	if c.Value() != 0 {
		t.Fatalf("fresh counter = %d, want 0", c.Value())
	}
	c.Inc()
	c.Inc()
	c.Add(5)
	if c.Value() != 7 {
		t.Fatalf("counter = %d, want 7", c.Value())
	}
	if r.Counter("mealmatch_items_total", "") != c {
		t.Fatal("same name must return the same counter instance")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("mealmatch_inflight_requests", "Resolutions in progress")
	g.Set(3)
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 4 {
		t.Fatalf("gauge = %d, want 4", g.Value())
	}
}

func TestHistogram(t *testing.T) {
	r := New()
	h := r.Histogram("mealmatch_resolve_duration_seconds", "Resolve latency", []float64{0.1, 0.5, 1.0})
	for _, v := range []float64{0.05, 0.3, 0.8, 2.0} {
		h.Observe(v)
	}

	buckets, counts, sum, count := h.snapshot()
	if count != 4 {
		t.Fatalf("count = %d, want 4", count)
	}
	if len(buckets) != 3 {
		t.Fatalf("buckets = %d, want 3", len(buckets))
	}
	// One observation lands in each finite bucket; 2.0 only in +Inf.
	for i, want := range []uint64{1, 1, 1} {
		if counts[i] != want {
			t.Errorf("bucket %g count = %d, want %d", buckets[i], counts[i], want)
		}
	}
	if want := 0.05 + 0.3 + 0.8 + 2.0; sum != want {
		t.Errorf("sum = %g, want %g", sum, want)
	}
}

func TestHistogramSince(t *testing.T) {
	r := New()
	h := r.Histogram("mealmatch_resolve_duration_seconds", "", nil)
	h.Since(time.Now().Add(-50 * time.Millisecond))
	_, _, _, count := h.snapshot()
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestWithLabels(t *testing.T) {
	got := WithLabels("mealmatch_items_total", "source", "matched", "path", "text")
	want := `mealmatch_items_total{source="matched",path="text"}`
	if got != want {
		t.Fatalf("WithLabels = %q, want %q", got, want)
	}
	if WithLabels("mealmatch_items_total") != "mealmatch_items_total" {
		t.Fatal("no labels must return the name unchanged")
	}
}

func TestRender(t *testing.T) {
	r := New()
	r.Counter("mealmatch_items_total", "Resolved meal items").Add(10)
	r.Counter(WithLabels("mealmatch_items_total", "source", "matched"), "").Add(7)
	r.Counter(WithLabels("mealmatch_items_total", "source", "manual"), "").Add(3)
	r.Gauge("mealmatch_inflight_requests", "Resolutions in progress").Set(2)
	h := r.Histogram("mealmatch_resolve_duration_seconds", "Resolve latency", []float64{0.1, 0.5, 1.0})
	h.Observe(0.05)
	h.Observe(0.3)

	out := r.Render()

	for _, want := range []string{
		"# TYPE mealmatch_items_total counter",
		"# TYPE mealmatch_inflight_requests gauge",
		"# TYPE mealmatch_resolve_duration_seconds histogram",
		"mealmatch_items_total 10",
		`mealmatch_items_total{source="manual"} 3`,
		`mealmatch_items_total{source="matched"} 7`,
		"mealmatch_inflight_requests 2",
		`mealmatch_resolve_duration_seconds_bucket{le="0.1"} 1`,
		`mealmatch_resolve_duration_seconds_bucket{le="0.5"} 2`,
		`mealmatch_resolve_duration_seconds_bucket{le="+Inf"} 2`,
		"mealmatch_resolve_duration_seconds_count 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("mealmatch_items_total", "Resolved meal items").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "mealmatch_items_total 1") {
		t.Error("metric missing from handler output")
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"mealmatch_items_total", "mealmatch_items_total"},
		{`mealmatch_items_total{source="manual"}`, "mealmatch_items_total"},
		{`x{a="1",b="2"}`, "x"},
	}
	for _, tt := range tests {
		if got := baseName(tt.in); got != tt.want {
			t.Errorf("baseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
