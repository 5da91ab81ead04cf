package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sfinmcp/internal/domain"
)

type PrometheusMetrics struct {
	toolDuration    *prometheus.HistogramVec
	toolCalls       *prometheus.CounterVec
	cacheEvents     *prometheus.CounterVec
	cacheEntries    prometheus.Gauge
	sessionBuilds   *prometheus.CounterVec
	sessionBuildDur prometheus.Histogram
	loginAttempts   *prometheus.CounterVec
	tickerFetchDur  *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sfinmcp_tool_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"tool", "status"},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfinmcp_tool_calls_total",
				Help: "Total number of tool calls by outcome and error kind",
			},
			[]string{"tool", "status", "kind"},
		),
		cacheEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfinmcp_cache_events_total",
				Help: "Resource cache hits, misses, expiries and evictions",
			},
			[]string{"event"},
		),
		cacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sfinmcp_cache_entries",
				Help: "Current number of entries in the resource cache",
			},
		),
		sessionBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfinmcp_session_builds_total",
				Help: "Backing client construction attempts",
			},
			[]string{"status"},
		),
		sessionBuildDur: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sfinmcp_session_build_duration_seconds",
				Help:    "Duration of backing client construction in seconds",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		loginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfinmcp_login_attempts_total",
				Help: "Login attempts against the screening site",
			},
			[]string{"status"},
		),
		tickerFetchDur: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sfinmcp_ticker_fetch_duration_seconds",
				Help:    "Duration of per-symbol page loads on cache miss",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),
	}
}

func (p *PrometheusMetrics) ObserveTool(metric domain.ToolMetric) {
	status := string(metric.Status)
	if status == "" {
		status = string(domain.ToolStatusSuccess)
	}
	p.toolDuration.WithLabelValues(metric.Tool, status).Observe(metric.Duration.Seconds())
	p.toolCalls.WithLabelValues(metric.Tool, status, string(metric.Kind)).Inc()
}

func (p *PrometheusMetrics) ObserveCache(event domain.CacheEvent, count int) {
	p.cacheEvents.WithLabelValues(string(event)).Add(float64(count))
}

func (p *PrometheusMetrics) SetCacheEntries(count int) {
	p.cacheEntries.Set(float64(count))
}

func (p *PrometheusMetrics) ObserveSessionBuild(duration time.Duration, err error) {
	p.sessionBuilds.WithLabelValues(statusLabel(err)).Inc()
	p.sessionBuildDur.Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveLogin(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.loginAttempts.WithLabelValues(status).Inc()
}

func (p *PrometheusMetrics) ObserveTickerFetch(duration time.Duration, err error) {
	p.tickerFetchDur.WithLabelValues(statusLabel(err)).Observe(duration.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
