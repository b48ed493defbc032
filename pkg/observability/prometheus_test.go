package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRebuild(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())

	m.OnRebuildStart(ctx, 5)
	if got := testutil.ToFloat64(m.inflight); got != 1 {
		t.Errorf("inflight = %v, want 1", got)
	}
	m.OnRebuildComplete(ctx, RebuildEvent{InputNodes: 5, OutputNodes: 7, UnfoldPasses: 1, Duration: time.Millisecond}, nil)
	if got := testutil.ToFloat64(m.inflight); got != 0 {
		t.Errorf("inflight = %v, want 0", got)
	}

	m.OnRebuildStart(ctx, 5)
	m.OnRebuildComplete(ctx, RebuildEvent{}, errors.New("boom"))
	m.OnRebuildStart(ctx, 5)
	m.OnRebuildComplete(ctx, RebuildEvent{CacheHit: true}, nil)

	for outcome, want := range map[string]float64{"ok": 1, "error": 1, "cached": 1} {
		if got := testutil.ToFloat64(m.rebuilds.WithLabelValues(outcome)); got != want {
			t.Errorf("rebuilds{outcome=%q} = %v, want %v", outcome, got, want)
		}
	}
	if got := testutil.CollectAndCount(m.unfoldPasses); got != 1 {
		t.Errorf("unfold_passes series = %d, want 1", got)
	}
}

func TestMetricsCacheAndHTTP(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())

	m.OnCacheHit(ctx, "index")
	m.OnCacheMiss(ctx, "index")
	m.OnCacheMiss(ctx, "index")
	m.OnCacheSet(ctx, "render", 100)
	m.OnCacheSet(ctx, "render", 50)

	if got := testutil.ToFloat64(m.cacheOps.WithLabelValues("index", "miss")); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheBytes.WithLabelValues("render")); got != 150 {
		t.Errorf("cache bytes = %v, want 150", got)
	}

	m.OnRequest(ctx, "POST", "/v1/index")
	m.OnResponse(ctx, "POST", "/v1/index", 422, 10*time.Millisecond)
	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "/v1/index", "422")); got != 1 {
		t.Errorf("requests{422} = %v, want 1", got)
	}

	m.OnRenderComplete(ctx, "svg", time.Millisecond, nil)
	m.OnRenderComplete(ctx, "svg", time.Millisecond, errors.New("x"))
	if got := testutil.ToFloat64(m.renders.WithLabelValues("svg", "error")); got != 1 {
		t.Errorf("render errors = %v, want 1", got)
	}
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	NewMetrics(reg)
}
