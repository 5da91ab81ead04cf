package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/broker"
	"sfinmcp/internal/infra/cache"
	"sfinmcp/internal/infra/catalog"
	"sfinmcp/internal/infra/credentials"
	"sfinmcp/internal/infra/dispatch"
	"sfinmcp/internal/infra/gateway"
	"sfinmcp/internal/infra/screener"
	"sfinmcp/internal/infra/telemetry"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

// NewCredentials reads the backing-site settings from the environment.
func NewCredentials() domain.Credentials {
	return credentials.Load()
}

func NewClientFactory(cfg ServeConfig, logger *zap.Logger) domain.ClientFactory {
	return screener.NewFactory(screener.Options{
		Headless: cfg.Server.Browser.Headless,
		Logger:   logger,
	})
}

func NewBroker(creds domain.Credentials, factory domain.ClientFactory, metrics domain.Metrics, logger *zap.Logger) *broker.Broker {
	return broker.New(broker.Options{
		Credentials: creds,
		Factory:     factory,
		Metrics:     metrics,
		Logger:      logger,
	})
}

func NewTickerCache(cfg ServeConfig, metrics domain.Metrics, logger *zap.Logger) *dispatch.TickerCache {
	ttl := cfg.Server.CacheTTL
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	return cache.New[domain.Ticker](ttl,
		cache.WithMetrics(metrics),
		cache.WithLogger(logger),
	)
}

func NewCatalog() (*catalog.Catalog, error) {
	return catalog.New()
}

func NewDispatcher(
	sessions dispatch.SessionBroker,
	tickers *dispatch.TickerCache,
	cat *catalog.Catalog,
	metrics domain.Metrics,
	logger *zap.Logger,
) *dispatch.Dispatcher {
	return dispatch.New(dispatch.Options{
		Broker:  sessions,
		Cache:   tickers,
		Catalog: cat,
		Metrics: metrics,
		Logger:  logger,
	})
}

func NewGateway(dispatcher *dispatch.Dispatcher, cat *catalog.Catalog, logs *telemetry.LogBroadcaster, logger *zap.Logger) *gateway.Gateway {
	return gateway.New(gateway.Options{
		Name:       "sfinmcp",
		Version:    Version,
		Dispatcher: dispatcher,
		Catalog:    cat,
		Logs:       logs,
		Logger:     logger,
	})
}
