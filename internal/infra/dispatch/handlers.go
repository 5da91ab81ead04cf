package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sfinmcp/internal/domain"
	"sfinmcp/internal/infra/cache"
	"sfinmcp/internal/infra/render"
	"sfinmcp/internal/infra/telemetry"
)

func (d *Dispatcher) cacheStats(_ context.Context, _ arguments) (string, error) {
	stats := d.cache.Stats()
	stats.LoggedIn = d.broker.IsLoggedIn()
	return render.Object(stats)
}

type messageResponse struct {
	Message string `json:"message"`
}

func (d *Dispatcher) clearCache(_ context.Context, args arguments) (string, error) {
	symbol := cache.Canonical(args.String("symbol"))
	var message string
	if symbol != "" {
		if d.cache.Evict(symbol) {
			message = "Cleared cache for " + symbol
		} else {
			message = "No cache found for " + symbol
		}
	} else {
		count := d.cache.Clear()
		message = fmt.Sprintf("Cleared all cache (%d entries)", count)
	}
	d.logger.Info(message, telemetry.EventField(telemetry.EventCacheClear), telemetry.SymbolField(symbol))
	return render.Object(messageResponse{Message: message})
}

type loginStatusResponse struct {
	LoggedIn bool   `json:"logged_in"`
	Message  string `json:"message"`
	Note     string `json:"note"`
}

func (d *Dispatcher) checkLoginStatus(_ context.Context, _ arguments) (string, error) {
	resp := loginStatusResponse{LoggedIn: d.broker.IsLoggedIn()}
	switch {
	case resp.LoggedIn:
		resp.Message = "Logged in to screener.in"
		resp.Note = "Stock screening is available."
	case !d.broker.HasCredentials():
		resp.Message = "Not logged in: no credentials configured"
		resp.Note = "Set SCREENER_EMAIL and SCREENER_PASSWORD and restart the server to enable screening."
	case !d.broker.LoginAttempted():
		resp.Message = "Not logged in yet"
		resp.Note = "Login is attempted once, when the first company data tool opens the browser session."
	default:
		resp.Message = "Not logged in: login attempt failed"
		resp.Note = "Check SCREENER_EMAIL and SCREENER_PASSWORD and restart the server. Company data tools still work without login."
	}
	return render.Object(resp)
}

type screenResponse struct {
	Query        string          `json:"query"`
	Sort         string          `json:"sort"`
	Order        string          `json:"order"`
	Page         int             `json:"page"`
	TotalResults int             `json:"total_results"`
	Results      json.RawMessage `json:"results"`
}

func (d *Dispatcher) screenStocks(ctx context.Context, args arguments) (string, error) {
	const op = "dispatch.screen_stocks"
	if !d.broker.IsLoggedIn() {
		return "", domain.E(domain.KindLoginRequired, op, "screen_stocks requires a logged-in screener.in session", domain.ErrNotLoggedIn)
	}

	query := domain.ScreenQuery{
		Query: strings.TrimSpace(args.String("query")),
		Sort:  strings.TrimSpace(args.String("sort")),
		Order: strings.ToLower(strings.TrimSpace(args.String("order"))),
		Page:  args.Int("page", domain.DefaultScreenPage),
	}
	if query.Query == "" {
		return "", domain.E(domain.KindInvalidArgument, op, "query is required", nil)
	}
	if query.Order == "" {
		query.Order = domain.DefaultScreenOrder
	}
	if query.Order != "asc" && query.Order != "desc" {
		return "", domain.E(domain.KindInvalidArgument, op, fmt.Sprintf("order must be asc or desc, got %q", query.Order), nil)
	}
	if query.Page < 1 {
		return "", domain.E(domain.KindInvalidArgument, op, "page must be at least 1", nil)
	}

	session, err := d.broker.Session(ctx)
	if err != nil {
		return "", err
	}
	result, err := session.Client.Screen(ctx, query)
	if err != nil {
		return "", domain.Wrap(domain.KindOf(err), op, err)
	}
	records, err := render.Records(result.Results)
	if err != nil {
		return "", err
	}
	return render.Object(screenResponse{
		Query:        query.Query,
		Sort:         query.Sort,
		Order:        query.Order,
		Page:         query.Page,
		TotalResults: result.TotalResults,
		Results:      records,
	})
}

func (d *Dispatcher) screeningParameters(_ context.Context, args arguments) (string, error) {
	params, err := d.catalog.Parameters(args.String("category"))
	if err != nil {
		return "", err
	}
	return render.Object(params)
}

type tickerQuery func(ctx context.Context, ticker domain.Ticker) (string, error)

func overviewQuery(ctx context.Context, ticker domain.Ticker) (string, error) {
	overview, err := ticker.Overview(ctx)
	if err != nil {
		return "", err
	}
	return render.Object(overview)
}

func tableQuery(method func(domain.Ticker, context.Context) (domain.Table, error)) tickerQuery {
	return func(ctx context.Context, ticker domain.Ticker) (string, error) {
		table, err := method(ticker, ctx)
		if err != nil {
			return "", err
		}
		return render.Table(table)
	}
}

// symbolQuery sweeps expired entries, resolves the cached ticker and runs query.
func (d *Dispatcher) symbolQuery(query tickerQuery) handlerFunc {
	return func(ctx context.Context, args arguments) (string, error) {
		const op = "dispatch.symbol"
		symbol := cache.Canonical(args.String("symbol"))
		if symbol == "" {
			return "", domain.E(domain.KindInvalidArgument, op, "symbol is required", nil)
		}

		if swept := d.cache.SweepExpired(); len(swept) > 0 {
			d.logger.Info("swept expired tickers",
				telemetry.EventField(telemetry.EventCacheSweep),
				zap.Strings("symbols", swept),
			)
		}

		ticker, err := d.cache.GetOrCreate(ctx, symbol, d.fetchTicker)
		if err != nil {
			return "", err
		}
		text, err := query(ctx, ticker)
		if err != nil {
			return "", domain.Wrap(domain.KindOf(err), op, err)
		}
		return text, nil
	}
}

// fetchTicker is the cache factory: it opens the session on first use.
func (d *Dispatcher) fetchTicker(ctx context.Context, symbol string) (domain.Ticker, error) {
	const op = "dispatch.fetch_ticker"
	session, err := d.broker.Session(ctx)
	if err != nil {
		return nil, err
	}

	start := d.now()
	ticker, err := session.Client.Ticker(ctx, symbol)
	duration := d.now().Sub(start)
	d.metrics.ObserveTickerFetch(duration, err)
	if err != nil {
		return nil, domain.Wrap(domain.KindOf(err), op, fmt.Errorf("ticker %s: %w", symbol, err))
	}
	if ticker == nil {
		return nil, domain.E(domain.KindResourceNotFound, op, "no data for "+symbol, domain.ErrSymbolNotFound)
	}
	d.logger.Info("fetched ticker", telemetry.SymbolField(symbol), telemetry.DurationField(duration))
	return ticker, nil
}
