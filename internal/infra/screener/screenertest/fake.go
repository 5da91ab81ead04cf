// Package screenertest provides an in-memory BackingClient for tests.
package screenertest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"sfinmcp/internal/domain"
)

// Company is the canned data served for one symbol.
type Company struct {
	Overview         domain.Overview
	IncomeStatement  domain.Table
	BalanceSheet     domain.Table
	CashFlow         domain.Table
	QuarterlyResults domain.Table
	Shareholding     domain.Table
	PeerComparison   domain.Table
}

// Client is a scriptable domain.BackingClient. Zero value is usable.
type Client struct {
	mu        sync.Mutex
	companies map[string]Company

	LoginOK     bool
	LoginErr    error
	TickerErr   error
	ScreenErr   error
	ScreenReply domain.ScreenResult
	// OnTicker runs at the start of Ticker, e.g. to simulate a slow page load.
	OnTicker func(symbol string)
	// OnQuery runs before every Ticker query method, e.g. to block or panic.
	OnQuery func(symbol, method string)

	loggedIn    atomic.Bool
	LoginCalls  atomic.Int64
	TickerCalls atomic.Int64
	ScreenCalls atomic.Int64
	QueryCalls  atomic.Int64
	CloseCalls  atomic.Int64

	lastMu     sync.Mutex
	lastScreen domain.ScreenQuery
}

func NewClient() *Client {
	return &Client{companies: make(map[string]Company)}
}

// AddCompany registers canned data for symbol.
func (c *Client) AddCompany(symbol string, company Company) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.companies == nil {
		c.companies = make(map[string]Company)
	}
	c.companies[strings.ToUpper(symbol)] = company
	return c
}

func (c *Client) Login(_ context.Context, _, _ string) (bool, error) {
	c.LoginCalls.Add(1)
	if c.LoginErr != nil {
		return false, c.LoginErr
	}
	c.loggedIn.Store(c.LoginOK)
	return c.LoginOK, nil
}

func (c *Client) IsLoggedIn() bool {
	return c.loggedIn.Load()
}

// SetLoggedIn overrides the live login state, as if the site session changed.
func (c *Client) SetLoggedIn(v bool) {
	c.loggedIn.Store(v)
}

func (c *Client) Ticker(_ context.Context, symbol string) (domain.Ticker, error) {
	c.TickerCalls.Add(1)
	if hook := c.OnTicker; hook != nil {
		hook(strings.ToUpper(symbol))
	}
	if c.TickerErr != nil {
		return nil, c.TickerErr
	}
	c.mu.Lock()
	company, ok := c.companies[strings.ToUpper(symbol)]
	c.mu.Unlock()
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return &Ticker{symbol: strings.ToUpper(symbol), company: company, client: c}, nil
}

func (c *Client) Screen(_ context.Context, query domain.ScreenQuery) (domain.ScreenResult, error) {
	c.ScreenCalls.Add(1)
	c.lastMu.Lock()
	c.lastScreen = query
	c.lastMu.Unlock()
	if c.ScreenErr != nil {
		return domain.ScreenResult{}, c.ScreenErr
	}
	return c.ScreenReply, nil
}

// LastScreen returns the most recent query passed to Screen.
func (c *Client) LastScreen() domain.ScreenQuery {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()
	return c.lastScreen
}

func (c *Client) Close() error {
	c.CloseCalls.Add(1)
	return nil
}

// Ticker is the per-symbol handle returned by Client.
type Ticker struct {
	symbol  string
	company Company
	client  *Client
}

func (t *Ticker) Symbol() string { return t.symbol }

func (t *Ticker) query(method string) {
	t.client.QueryCalls.Add(1)
	if hook := t.client.OnQuery; hook != nil {
		hook(t.symbol, method)
	}
}

func (t *Ticker) Overview(context.Context) (domain.Overview, error) {
	t.query("Overview")
	return t.company.Overview, nil
}

func (t *Ticker) IncomeStatement(context.Context) (domain.Table, error) {
	t.query("IncomeStatement")
	return t.company.IncomeStatement, nil
}

func (t *Ticker) BalanceSheet(context.Context) (domain.Table, error) {
	t.query("BalanceSheet")
	return t.company.BalanceSheet, nil
}

func (t *Ticker) CashFlow(context.Context) (domain.Table, error) {
	t.query("CashFlow")
	return t.company.CashFlow, nil
}

func (t *Ticker) QuarterlyResults(context.Context) (domain.Table, error) {
	t.query("QuarterlyResults")
	return t.company.QuarterlyResults, nil
}

func (t *Ticker) Shareholding(context.Context) (domain.Table, error) {
	t.query("Shareholding")
	return t.company.Shareholding, nil
}

func (t *Ticker) PeerComparison(context.Context) (domain.Table, error) {
	t.query("PeerComparison")
	return t.company.PeerComparison, nil
}

// Factory returns a ClientFactory that always yields client and counts builds.
func Factory(client domain.BackingClient, builds *atomic.Int64) domain.ClientFactory {
	return func(context.Context, domain.Credentials) (domain.BackingClient, error) {
		if builds != nil {
			builds.Add(1)
		}
		return client, nil
	}
}

// FailingFactory returns a ClientFactory that always fails with err.
func FailingFactory(err error, builds *atomic.Int64) domain.ClientFactory {
	return func(context.Context, domain.Credentials) (domain.BackingClient, error) {
		if builds != nil {
			builds.Add(1)
		}
		return nil, err
	}
}

var _ domain.BackingClient = (*Client)(nil)
var _ domain.Ticker = (*Ticker)(nil)
