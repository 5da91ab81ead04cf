package telemetry

import (
	"time"

	"sfinmcp/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveTool(_ domain.ToolMetric) {}

func (n *NoopMetrics) ObserveCache(_ domain.CacheEvent, _ int) {}

func (n *NoopMetrics) SetCacheEntries(_ int) {}

func (n *NoopMetrics) ObserveSessionBuild(_ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveLogin(_ bool) {}

func (n *NoopMetrics) ObserveTickerFetch(_ time.Duration, _ error) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
