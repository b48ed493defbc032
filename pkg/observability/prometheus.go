package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nestree"

// Metrics implements every hook interface with Prometheus collectors.
type Metrics struct {
	rebuilds        *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	rebuildNodes    *prometheus.HistogramVec
	unfoldPasses    prometheus.Histogram
	inflight        prometheus.Gauge

	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec

	cacheOps   *prometheus.CounterVec
	cacheBytes *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers collectors with reg and returns hooks that feed them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	sizeBuckets := prometheus.ExponentialBuckets(1, 4, 10)
	return &Metrics{
		rebuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Rebuilds by outcome (ok, error, cached).",
		}, []string{"outcome"}),
		rebuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Wall time of a rebuild.",
			Buckets:   prometheus.DefBuckets,
		}),
		rebuildNodes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_nodes",
			Help:      "Node count before and after a rebuild.",
			Buckets:   sizeBuckets,
		}, []string{"stage"}),
		unfoldPasses: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unfold_passes",
			Help:      "Unfold passes needed to turn the input into a tree.",
			Buckets:   prometheus.LinearBuckets(0, 1, 9),
		}),
		inflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rebuilds_inflight",
			Help:      "Rebuilds currently running.",
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Rendered artifacts by format and outcome.",
		}, []string{"format", "outcome"}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Wall time of a render.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnRebuildStart(ctx context.Context, nodeCount int) {
	m.inflight.Inc()
}

func (m *Metrics) OnRebuildComplete(ctx context.Context, ev RebuildEvent, err error) {
	m.inflight.Dec()
	switch {
	case err != nil:
		m.rebuilds.WithLabelValues("error").Inc()
		return
	case ev.CacheHit:
		m.rebuilds.WithLabelValues("cached").Inc()
	default:
		m.rebuilds.WithLabelValues("ok").Inc()
		m.unfoldPasses.Observe(float64(ev.UnfoldPasses))
	}
	m.rebuildDuration.Observe(ev.Duration.Seconds())
	m.rebuildNodes.WithLabelValues("input").Observe(float64(ev.InputNodes))
	m.rebuildNodes.WithLabelValues("output").Observe(float64(ev.OutputNodes))
}

func (m *Metrics) OnUnfoldPass(ctx context.Context, pass, nodeCount int) {}

func (m *Metrics) OnRenderComplete(ctx context.Context, format string, d time.Duration, err error) {
	m.renders.WithLabelValues(format, outcome(err)).Inc()
	if err == nil {
		m.renderDuration.WithLabelValues(format).Observe(d.Seconds())
	}
}

func (m *Metrics) OnCacheHit(ctx context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(ctx context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(ctx context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(ctx context.Context, method, route string) {}

func (m *Metrics) OnResponse(ctx context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ HTTPHooks     = (*Metrics)(nil)
)
