package domain

import "context"

// BackingClient is the scraping session to the screening site.
type BackingClient interface {
	Login(ctx context.Context, email, password string) (bool, error)
	IsLoggedIn() bool
	Ticker(ctx context.Context, symbol string) (Ticker, error)
	Screen(ctx context.Context, query ScreenQuery) (ScreenResult, error)
	Close() error
}

// Ticker is a per-symbol handle obtained from a BackingClient.
type Ticker interface {
	Symbol() string
	Overview(ctx context.Context) (Overview, error)
	IncomeStatement(ctx context.Context) (Table, error)
	BalanceSheet(ctx context.Context) (Table, error)
	CashFlow(ctx context.Context) (Table, error)
	QuarterlyResults(ctx context.Context) (Table, error)
	Shareholding(ctx context.Context) (Table, error)
	PeerComparison(ctx context.Context) (Table, error)
}

// ClientFactory builds a BackingClient from credentials.
type ClientFactory func(ctx context.Context, creds Credentials) (BackingClient, error)
