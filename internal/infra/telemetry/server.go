package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sfinmcp/internal/domain"
)

const (
	metricsPath     = "/metrics"
	healthzPath     = "/healthz"
	shutdownTimeout = 5 * time.Second
)

type HTTPServerOptions struct {
	Addr          string
	EnableMetrics bool
	EnableHealthz bool
	Health        *HealthTracker
	Registry      prometheus.Gatherer
}

// StartHTTPServer binds opts.Addr and serves the enabled endpoints until ctx
// is done. Bind failures are returned before anything is served.
func StartHTTPServer(ctx context.Context, opts HTTPServerOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := newObservabilityMux(opts, logger)
	if handler == nil {
		return nil
	}

	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("observability server failed to start on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	logger.Info("observability server listening",
		EventField(EventObservabilityUp),
		zap.String("addr", listener.Addr().String()),
		zap.Bool("metrics", opts.EnableMetrics),
		zap.Bool("healthz", opts.EnableHealthz),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("observability server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("observability server shutdown error", EventField(EventObservabilityDown), zap.Error(err))
		return err
	}
	logger.Info("observability server stopped", EventField(EventObservabilityDown))
	return nil
}

// newObservabilityMux returns nil when no endpoint is enabled.
func newObservabilityMux(opts HTTPServerOptions, logger *zap.Logger) http.Handler {
	if !opts.EnableMetrics && !opts.EnableHealthz {
		return nil
	}
	mux := http.NewServeMux()
	if opts.EnableMetrics {
		registry := opts.Registry
		if registry == nil {
			registry = prometheus.DefaultGatherer
		}
		mux.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			ErrorLog:      zap.NewStdLog(logger),
			ErrorHandling: promhttp.ContinueOnError,
		}))
	}
	if opts.EnableHealthz {
		mux.Handle(healthzPath, healthHandler(opts.Health))
	}
	return mux
}

// healthHandler answers 200 while every check passes and 503 otherwise.
// HEAD gets the status without a body.
func healthHandler(tracker *HealthTracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		report := tracker.Report()
		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(report)
	})
}
