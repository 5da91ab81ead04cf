package telemetry

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"sfinmcp/internal/domain"
)

type ObservabilityControllerOptions struct {
	DefaultMetricsEnabled bool
	DefaultHealthzEnabled bool
	Registry              prometheus.Gatherer
	Health                *HealthTracker
	Logger                *zap.Logger
	// Start replaces StartHTTPServer in tests.
	Start func(ctx context.Context, opts HTTPServerOptions, logger *zap.Logger) error
}

// ObservabilityController owns the metrics/healthz listener and restarts it
// whenever the effective observability settings change.
type ObservabilityController struct {
	mu       sync.Mutex
	defaults ObservabilityControllerOptions
	current  ObservabilityState
	cancel   context.CancelFunc
	runID    uint64
}

// ObservabilityState is the resolved listener configuration.
type ObservabilityState struct {
	Addr           string
	MetricsEnabled bool
	HealthzEnabled bool
}

func (s ObservabilityState) Enabled() bool {
	return s.MetricsEnabled || s.HealthzEnabled
}

func NewObservabilityController(opts ObservabilityControllerOptions) *ObservabilityController {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Start == nil {
		opts.Start = StartHTTPServer
	}
	opts.Logger = opts.Logger.Named("observability")
	return &ObservabilityController{defaults: opts}
}

// Apply reconciles the running listener with cfg. Unchanged settings are a no-op.
func (c *ObservabilityController) Apply(ctx context.Context, cfg domain.ObservabilityConfig) error {
	if c == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	state := ResolveObservabilityState(c.defaults, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !state.Enabled() {
		c.stopLocked()
		c.current = state
		return nil
	}
	if c.current == state && c.cancel != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.stopLocked()
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.current = state
	c.runID++
	runID := c.runID

	logger := c.defaults.Logger
	logger.Info("applying observability settings",
		zap.String("addr", state.Addr),
		zap.Bool("metrics", state.MetricsEnabled),
		zap.Bool("healthz", state.HealthzEnabled),
	)
	go func() {
		err := c.defaults.Start(runCtx, HTTPServerOptions{
			Addr:          state.Addr,
			EnableMetrics: state.MetricsEnabled,
			EnableHealthz: state.HealthzEnabled,
			Health:        c.defaults.Health,
			Registry:      c.defaults.Registry,
		}, logger)
		if err != nil {
			logger.Error("observability server failed", zap.Error(err))
		}
		c.mu.Lock()
		if c.runID == runID {
			c.cancel = nil
		}
		c.mu.Unlock()
	}()
	return nil
}

// Current returns the last applied state and whether a listener is running.
func (c *ObservabilityController) Current() (ObservabilityState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.cancel != nil
}

func (c *ObservabilityController) Stop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

func (c *ObservabilityController) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// ResolveObservabilityState fills unset fields of cfg from defaults.
func ResolveObservabilityState(defaults ObservabilityControllerOptions, cfg domain.ObservabilityConfig) ObservabilityState {
	addr := strings.TrimSpace(cfg.ListenAddress)
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}
	state := ObservabilityState{
		Addr:           addr,
		MetricsEnabled: defaults.DefaultMetricsEnabled,
		HealthzEnabled: defaults.DefaultHealthzEnabled,
	}
	if cfg.MetricsEnabled != nil {
		state.MetricsEnabled = *cfg.MetricsEnabled
	}
	if cfg.HealthzEnabled != nil {
		state.HealthzEnabled = *cfg.HealthzEnabled
	}
	return state
}
