package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/broker"
	"sfinmcp/internal/infra/dispatch"
	"sfinmcp/internal/infra/gateway"
	"sfinmcp/internal/infra/telemetry"
)

// ServeConfig is everything Serve needs beyond logging.
type ServeConfig struct {
	Server domain.ServerConfig
	// Config, when set, is watched for changes to log level and observability.
	Config *Config
}

// Application wires the core runtime and dependencies.
type Application struct {
	ctx    context.Context
	cfg    ServeConfig
	logger *zap.Logger
	level  zap.AtomicLevel

	registry   *prometheus.Registry
	health     *telemetry.HealthTracker
	broker     *broker.Broker
	tickers    *dispatch.TickerCache
	dispatcher *dispatch.Dispatcher
	gateway    *gateway.Gateway

	startObservability func(context.Context, telemetry.HTTPServerOptions, *zap.Logger) error
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context     context.Context
	ServeConfig ServeConfig
	Logger      *zap.Logger
	Level       zap.AtomicLevel
	Registry    *prometheus.Registry
	Health      *telemetry.HealthTracker
	Broker      *broker.Broker
	Tickers     *dispatch.TickerCache
	Dispatcher  *dispatch.Dispatcher
	Gateway     *gateway.Gateway
}

// NewApplication constructs the application and registers its health checks.
func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &Application{
		ctx:        ctx,
		cfg:        opts.ServeConfig,
		logger:     logger,
		level:      opts.Level,
		registry:   opts.Registry,
		health:     opts.Health,
		broker:     opts.Broker,
		tickers:    opts.Tickers,
		dispatcher: opts.Dispatcher,
		gateway:    opts.Gateway,
	}
	registerHealthChecks(app.health, app.broker, app.tickers)
	return app
}

// Run serves MCP until the context ends or the transport fails. The backing
// client is closed on the way out.
func (a *Application) Run() error {
	server := a.cfg.Server
	a.logger.Info("starting",
		zap.String("version", Version),
		zap.String("transport", server.Transport),
		zap.Duration("cache_ttl", server.CacheTTL),
		zap.Bool("credentials", a.broker.HasCredentials()),
	)

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()
	defer func() {
		if err := a.broker.Close(); err != nil {
			a.logger.Warn("backing client close failed", zap.Error(err))
		}
	}()

	obs := telemetry.NewObservabilityController(telemetry.ObservabilityControllerOptions{
		Registry: a.registry,
		Health:   a.health,
		Logger:   a.logger,
		Start:    a.startObservability,
	})
	defer obs.Stop()
	if err := obs.Apply(ctx, server.Observability); err != nil {
		a.logger.Warn("observability apply failed", zap.Error(err))
	}

	if a.cfg.Config != nil {
		a.cfg.Config.Watch(ctx, a.logger, func(next domain.ServerConfig) {
			a.applyReload(ctx, obs, next)
		})
	}

	if server.Session.EagerLogin {
		go a.warmSession(ctx)
	}

	err := a.gateway.Run(ctx, server.Transport, server.HTTP)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// applyReload moves the parts of the config that can change at runtime.
// Transport, cache TTL and browser settings need a restart.
func (a *Application) applyReload(ctx context.Context, obs *telemetry.ObservabilityController, next domain.ServerConfig) {
	if a.level != (zap.AtomicLevel{}) {
		if level, err := zapcore.ParseLevel(next.LogLevel); err == nil && level != a.level.Level() {
			a.level.SetLevel(level)
			a.logger.Info("log level changed", zap.String("level", level.String()))
		}
	}
	if err := obs.Apply(ctx, next.Observability); err != nil {
		a.logger.Warn("observability apply failed", zap.Error(err))
	}
	current := a.cfg.Server
	if next.Transport != current.Transport || next.HTTP != current.HTTP || next.CacheTTL != current.CacheTTL || next.Browser != current.Browser {
		a.logger.Warn("config change requires restart to take effect",
			telemetry.EventField("config_restart_required"),
		)
	}
}

func (a *Application) warmSession(ctx context.Context) {
	if _, err := a.broker.Session(ctx); err != nil {
		if ctx.Err() == nil {
			a.logger.Warn("eager session start failed", zap.Error(err))
		}
		return
	}
	a.logger.Info("eager session ready", zap.Bool("logged_in", a.broker.IsLoggedIn()))
}

func registerHealthChecks(health *telemetry.HealthTracker, sessions *broker.Broker, tickers *dispatch.TickerCache) {
	if health == nil {
		return
	}
	if sessions != nil {
		health.Register("session", func() telemetry.CheckResult {
			loggedIn := sessions.IsLoggedIn()
			attempted := sessions.LoginAttempted()
			hasCreds := sessions.HasCredentials()
			return telemetry.CheckResult{
				// A configured login that was tried and rejected leaves screening dead.
				OK: !(hasCreds && attempted && !loggedIn),
				Detail: map[string]any{
					"started":         sessions.Started(),
					"logged_in":       loggedIn,
					"login_attempted": attempted,
					"has_credentials": hasCreds,
				},
			}
		})
	}
	if tickers != nil {
		health.Register("cache", func() telemetry.CheckResult {
			stats := tickers.Stats()
			return telemetry.CheckResult{
				OK: true,
				Detail: map[string]any{
					"active":  stats.Active,
					"expired": stats.Expired,
					"total":   stats.Total,
				},
			}
		})
	}
}
