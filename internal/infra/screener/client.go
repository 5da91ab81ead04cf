// Package screener implements domain.BackingClient by driving a Chrome
// browser against screener.in.
package screener

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"sfinmcp/internal/domain"
)

// peersWait bounds the wait for the peer table, which the page loads
// after the document.
const peersWait = 8 * time.Second

// Section selectors on the company page.
const (
	selectorCompanyName  = "h1"
	selectorTopRatios    = "#top-ratios"
	selectorProfitLoss   = "#profit-loss"
	selectorBalanceSheet = "#balance-sheet"
	selectorCashFlow     = "#cash-flow"
	selectorQuarters     = "#quarters"
	selectorShareholding = "#shareholding"
	selectorPeers        = "#peers-table-placeholder"
	selectorScreenTable  = ".data-table"
	selectorEmail        = "input[name='username']"
	selectorPassword     = "input[name='password']"
	selectorSubmit       = "button[type='submit']"
)

type Options struct {
	Headless bool
	Logger   *zap.Logger
}

// NewFactory returns a ClientFactory that launches Chrome from
// creds.BrowserPath and targets creds.EndpointURL.
func NewFactory(opts Options) domain.ClientFactory {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, creds domain.Credentials) (domain.BackingClient, error) {
		return Launch(ctx, creds, opts.Headless, logger)
	}
}

// Client is a logged-in or anonymous browser session.
type Client struct {
	baseURL  string
	launcher *launcher.Launcher
	browser  *rod.Browser
	loggedIn atomic.Bool
	logger   *zap.Logger
}

// Launch starts the browser and connects to it.
func Launch(ctx context.Context, creds domain.Credentials, headless bool, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("screener")

	l := launcher.New().Headless(headless)
	if creds.BrowserPath != "" {
		l = l.Bin(creds.BrowserPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser %q: %w", creds.BrowserPath, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	logger.Info("browser connected", zap.String("endpoint", creds.EndpointURL), zap.Bool("headless", headless))

	return &Client{
		baseURL:  creds.EndpointURL,
		launcher: l,
		browser:  browser,
		logger:   logger,
	}, nil
}

func (c *Client) open(ctx context.Context, target string) (*rod.Page, error) {
	page, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("load %s: %w", target, err)
	}
	return page, nil
}

// Login submits the login form. It reports false when the site keeps the
// browser on the login page.
func (c *Client) Login(ctx context.Context, email, password string) (bool, error) {
	target, err := loginURL(c.baseURL)
	if err != nil {
		return false, err
	}
	page, err := c.open(ctx, target)
	if err != nil {
		return false, err
	}
	defer page.Close()

	if has, _, err := page.Has(selectorEmail); err != nil || !has {
		return false, fmt.Errorf("login form not found at %s", target)
	}
	for selector, value := range map[string]string{selectorEmail: email, selectorPassword: password} {
		el, err := page.Element(selector)
		if err != nil {
			return false, fmt.Errorf("find %s: %w", selector, err)
		}
		if err := el.Input(value); err != nil {
			return false, fmt.Errorf("fill %s: %w", selector, err)
		}
	}
	submit, err := page.Element(selectorSubmit)
	if err != nil {
		return false, fmt.Errorf("find submit: %w", err)
	}
	wait := page.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("submit login: %w", err)
	}
	wait()

	info, err := page.Info()
	if err != nil {
		return false, fmt.Errorf("read page after login: %w", err)
	}
	ok := !strings.Contains(info.URL, "/login")
	c.loggedIn.Store(ok)
	return ok, nil
}

func (c *Client) IsLoggedIn() bool {
	return c.loggedIn.Load()
}

// Ticker loads the company page once and snapshots every section.
func (c *Client) Ticker(ctx context.Context, symbol string) (domain.Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	target, err := companyURL(c.baseURL, symbol)
	if err != nil {
		return nil, err
	}
	page, err := c.open(ctx, target)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if has, _, err := page.Has(selectorTopRatios); err != nil {
		return nil, err
	} else if !has {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrSymbolNotFound)
	}

	snapshot := &companySnapshot{symbol: symbol}
	pairs, err := readRatios(page, selectorTopRatios)
	if err != nil {
		return nil, err
	}
	snapshot.overview = overviewFrom(readText(page, selectorCompanyName), pairs)

	sections := []struct {
		selector string
		dest     *domain.Table
		shape    func(rawTable) domain.Table
	}{
		{selectorProfitLoss, &snapshot.income, periodTable},
		{selectorBalanceSheet, &snapshot.balance, periodTable},
		{selectorCashFlow, &snapshot.cashFlow, periodTable},
		{selectorQuarters, &snapshot.quarters, periodTable},
		{selectorShareholding, &snapshot.shareholding, periodTable},
	}
	for _, section := range sections {
		raw, err := readTable(page, section.selector)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", symbol, err)
		}
		*section.dest = section.shape(raw)
	}

	if _, err := page.Timeout(peersWait).Element(selectorPeers + " table"); err != nil {
		c.logger.Debug("peer table not loaded", zap.String("symbol", symbol), zap.Error(err))
	} else if raw, err := readTable(page, selectorPeers); err == nil {
		snapshot.peers = recordTable(raw)
	}
	return snapshot, nil
}

// Screen runs a raw screen query. It needs a logged-in session.
func (c *Client) Screen(ctx context.Context, query domain.ScreenQuery) (domain.ScreenResult, error) {
	if !c.IsLoggedIn() {
		return domain.ScreenResult{}, domain.ErrNotLoggedIn
	}
	target, err := screenURL(c.baseURL, query)
	if err != nil {
		return domain.ScreenResult{}, err
	}
	page, err := c.open(ctx, target)
	if err != nil {
		return domain.ScreenResult{}, err
	}
	defer page.Close()

	if info, err := page.Info(); err == nil && strings.Contains(info.URL, "/login") {
		c.loggedIn.Store(false)
		return domain.ScreenResult{}, domain.ErrNotLoggedIn
	}

	raw, err := readTable(page, selectorScreenTable)
	if err != nil {
		return domain.ScreenResult{}, err
	}
	results := recordTable(raw)
	text, err := bodyText(page)
	if err != nil {
		text = ""
	}
	return domain.ScreenResult{
		TotalResults: parseTotalResults(text, len(results.Rows)),
		Results:      results,
	}, nil
}

// Close shuts the browser down and removes its profile directory.
func (c *Client) Close() error {
	err := c.browser.Close()
	c.launcher.Cleanup()
	return err
}

type companySnapshot struct {
	symbol       string
	overview     domain.Overview
	income       domain.Table
	balance      domain.Table
	cashFlow     domain.Table
	quarters     domain.Table
	shareholding domain.Table
	peers        domain.Table
}

func (s *companySnapshot) Symbol() string { return s.symbol }

func (s *companySnapshot) Overview(context.Context) (domain.Overview, error) {
	return s.overview, nil
}

func (s *companySnapshot) IncomeStatement(context.Context) (domain.Table, error) {
	return s.income, nil
}

func (s *companySnapshot) BalanceSheet(context.Context) (domain.Table, error) {
	return s.balance, nil
}

func (s *companySnapshot) CashFlow(context.Context) (domain.Table, error) {
	return s.cashFlow, nil
}

func (s *companySnapshot) QuarterlyResults(context.Context) (domain.Table, error) {
	return s.quarters, nil
}

func (s *companySnapshot) Shareholding(context.Context) (domain.Table, error) {
	return s.shareholding, nil
}

func (s *companySnapshot) PeerComparison(context.Context) (domain.Table, error) {
	return s.peers, nil
}

var (
	_ domain.BackingClient = (*Client)(nil)
	_ domain.Ticker        = (*companySnapshot)(nil)
)
