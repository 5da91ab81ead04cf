// Package gateway exposes the dispatcher over MCP.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/catalog"
	"sfinmcp/internal/infra/telemetry"
)

// ToolDispatcher runs one tool call.
type ToolDispatcher interface {
	Handle(ctx context.Context, name string, args json.RawMessage) domain.ToolResult
}

type Options struct {
	Name       string
	Version    string
	Dispatcher ToolDispatcher
	Catalog    *catalog.Catalog
	Logs       *telemetry.LogBroadcaster
	Logger     *zap.Logger
}

type Gateway struct {
	dispatcher ToolDispatcher
	logs       *telemetry.LogBroadcaster
	logger     *zap.Logger
	server     *mcp.Server
	registry   *toolRegistry
}

func New(opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Name
	if name == "" {
		name = "sfinmcp"
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.MustNew()
	}

	g := &Gateway{
		dispatcher: opts.Dispatcher,
		logs:       opts.Logs,
		logger:     logger.Named("gateway"),
	}
	g.server = mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		Instructions: "Indian equity fundamentals from screener.in. Use NSE/BSE symbols such as INFY or TCS.",
	})
	g.registry = newToolRegistry(g.server, g.toolHandler, g.logger)
	g.registry.Register(cat.Tools())
	return g
}

// Server returns the underlying MCP server.
func (g *Gateway) Server() *mcp.Server {
	return g.server
}

func (g *Gateway) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		result := g.dispatcher.Handle(ctx, name, args)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Text}},
			IsError: result.IsError,
		}, nil
	}
}

// Run serves the configured transport until ctx is done.
func (g *Gateway) Run(ctx context.Context, transport string, httpCfg domain.HTTPConfig) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if g.logs != nil {
		go newLogBridge(g.server, g.logs, g.logger).Run(runCtx)
	}

	switch transport {
	case "", domain.TransportStdio:
		g.logger.Info("gateway starting (stdio transport)")
		return g.server.Run(runCtx, &mcp.StdioTransport{})
	case domain.TransportStreamableHTTP:
		return g.serveHTTP(runCtx, httpCfg)
	default:
		return fmt.Errorf("unsupported transport %q", transport)
	}
}

// Handler returns the streamable HTTP handler for this gateway.
func (g *Gateway) Handler(cfg domain.HTTPConfig) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return g.server
	}, &mcp.StreamableHTTPOptions{
		JSONResponse:   cfg.JSONResponse,
		SessionTimeout: cfg.SessionTimeout,
	})
}

func (g *Gateway) serveHTTP(ctx context.Context, cfg domain.HTTPConfig) error {
	addr := cfg.Addr
	if addr == "" {
		addr = domain.DefaultHTTPAddr
	}
	path := cfg.Path
	if path == "" {
		path = domain.DefaultHTTPPath
	}

	mux := http.NewServeMux()
	mux.Handle(path, g.Handler(cfg))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("gateway starting (streamable http transport)", zap.String("addr", addr), zap.String("path", path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("gateway http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		g.logger.Info("gateway http server stopped")
		return nil
	}
}
