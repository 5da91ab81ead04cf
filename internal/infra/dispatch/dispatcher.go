// Package dispatch routes tool calls to handlers and converts every outcome,
// including panics, into a ToolResult.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/cache"
	"sfinmcp/internal/infra/catalog"
	"sfinmcp/internal/infra/render"
	"sfinmcp/internal/infra/telemetry"
)

// SessionBroker is the part of broker.Broker the dispatcher needs.
type SessionBroker interface {
	Session(ctx context.Context) (*domain.Session, error)
	IsLoggedIn() bool
	HasCredentials() bool
	LoginAttempted() bool
}

// TickerCache is the per-symbol resource cache.
type TickerCache = cache.TTLCache[domain.Ticker]

type Options struct {
	Broker  SessionBroker
	Cache   *TickerCache
	Catalog *catalog.Catalog
	Metrics domain.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

type handlerFunc func(ctx context.Context, args arguments) (string, error)

type Dispatcher struct {
	broker  SessionBroker
	cache   *TickerCache
	catalog *catalog.Catalog
	metrics domain.Metrics
	logger  *zap.Logger
	now     func() time.Time
	routes  map[domain.Tool]handlerFunc
}

func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.MustNew()
	}
	tickers := opts.Cache
	if tickers == nil {
		tickers = cache.New[domain.Ticker](domain.DefaultCacheTTL, cache.WithMetrics(metrics), cache.WithLogger(logger))
	}
	d := &Dispatcher{
		broker:  opts.Broker,
		cache:   tickers,
		catalog: cat,
		metrics: metrics,
		logger:  logger.Named("dispatch"),
		now:     now,
	}
	d.routes = d.routeTable()
	return d
}

func (d *Dispatcher) routeTable() map[domain.Tool]handlerFunc {
	return map[domain.Tool]handlerFunc{
		domain.ToolGetCacheStats:          d.cacheStats,
		domain.ToolClearCache:             d.clearCache,
		domain.ToolCheckLoginStatus:       d.checkLoginStatus,
		domain.ToolScreenStocks:           d.screenStocks,
		domain.ToolGetScreeningParameters: d.screeningParameters,
		domain.ToolGetOverview:            d.symbolQuery(overviewQuery),
		domain.ToolGetIncomeStatement:     d.symbolQuery(tableQuery(domain.Ticker.IncomeStatement)),
		domain.ToolGetBalanceSheet:        d.symbolQuery(tableQuery(domain.Ticker.BalanceSheet)),
		domain.ToolGetCashFlow:            d.symbolQuery(tableQuery(domain.Ticker.CashFlow)),
		domain.ToolGetQuarterlyResults:    d.symbolQuery(tableQuery(domain.Ticker.QuarterlyResults)),
		domain.ToolGetShareholding:        d.symbolQuery(tableQuery(domain.Ticker.Shareholding)),
		domain.ToolGetPeerComparison:      d.symbolQuery(tableQuery(domain.Ticker.PeerComparison)),
	}
}

// Catalog returns the descriptors the dispatcher serves.
func (d *Dispatcher) Catalog() *catalog.Catalog {
	return d.catalog
}

// Handle runs one tool call. It never panics and never returns a Go error;
// failures come back as a ToolResult with IsError set.
func (d *Dispatcher) Handle(ctx context.Context, name string, raw json.RawMessage) domain.ToolResult {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, requestID := telemetry.EnsureRequestID(ctx)
	logger := d.logger.With(telemetry.RequestIDField(requestID), telemetry.ToolField(name))
	start := d.now()

	text, err := d.invoke(ctx, logger, name, raw)
	duration := d.now().Sub(start)

	metric := domain.ToolMetric{Tool: metricLabel(name), Status: domain.ToolStatusSuccess, Duration: duration}
	if err == nil {
		d.metrics.ObserveTool(metric)
		logger.Info("tool call completed",
			telemetry.EventField(telemetry.EventToolCall),
			telemetry.DurationField(duration),
		)
		return domain.ToolResult{Text: text}
	}

	kind := domain.KindOf(err)
	metric.Status = domain.ToolStatusError
	metric.Kind = kind
	d.metrics.ObserveTool(metric)

	fields := []zap.Field{
		telemetry.EventField(telemetry.EventToolError),
		telemetry.ErrorKindField(string(kind)),
		telemetry.DurationField(duration),
		zap.Error(err),
	}
	if kind == domain.KindUnclassified {
		logger.Error("tool call failed", fields...)
	} else {
		logger.Warn("tool call failed", fields...)
	}
	return domain.ToolResult{Text: render.Error(err), IsError: true, Kind: kind}
}

func (d *Dispatcher) invoke(ctx context.Context, logger *zap.Logger, name string, raw json.RawMessage) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("tool handler panicked",
				telemetry.EventField(telemetry.EventToolPanic),
				zap.Any("panic", r),
				zap.ByteString("stack", stack),
			)
			text, err = "", &domain.PanicError{Value: r, Stack: stack}
		}
	}()

	tool, ok := domain.ParseTool(name)
	if !ok {
		return "", domain.E(domain.KindUnknownTool, "dispatch", "Unknown tool: "+name, nil)
	}
	handler, ok := d.routes[tool]
	if !ok {
		return "", domain.E(domain.KindUnknownTool, "dispatch", "no handler for tool "+name, nil)
	}
	args, err := decodeArguments(raw)
	if err != nil {
		return "", err
	}
	if err := d.catalog.Validate(tool, args); err != nil {
		return "", err
	}
	return handler(ctx, args)
}

// metricLabel bounds label cardinality to the known tool names.
func metricLabel(name string) string {
	if _, ok := domain.ParseTool(name); ok {
		return name
	}
	return "unknown"
}

type arguments map[string]any

func decodeArguments(raw json.RawMessage) (arguments, error) {
	args := arguments{}
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, domain.E(domain.KindInvalidArgument, "dispatch.arguments", fmt.Sprintf("arguments must be a JSON object: %v", err), err)
	}
	if args == nil {
		args = arguments{}
	}
	return args, nil
}

func (a arguments) String(key string) string {
	v, ok := a[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Int returns the integer under key, or fallback when absent.
func (a arguments) Int(key string, fallback int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return fallback
		}
		return int(n)
	default:
		return fallback
	}
}
