package domain

import "time"

const (
	DefaultScreenerURL                = "https://www.screener.in/"
	DefaultCacheTTL                   = 24 * time.Hour
	DefaultTransport                  = TransportStdio
	DefaultHTTPAddr                   = "127.0.0.1:8090"
	DefaultHTTPPath                   = "/mcp"
	DefaultObservabilityListenAddress = "127.0.0.1:9090"
	DefaultLogLevel                   = "info"
	DefaultScreenOrder                = "desc"
	DefaultScreenPage                 = 1

	// NoDataSentinel is the body rendered for a tabular result with no rows.
	NoDataSentinel = `{"error": "No data available"}`
)

const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

const (
	EnvChromePath       = "CHROME_PATH"
	EnvScreenerURL      = "SCREENER_URL"
	EnvScreenerEmail    = "SCREENER_EMAIL"
	EnvScreenerPassword = "SCREENER_PASSWORD"
)
