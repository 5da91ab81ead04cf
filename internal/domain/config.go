package domain

import "time"

// ObservabilityConfig controls the metrics/healthz listener.
type ObservabilityConfig struct {
	ListenAddress  string
	MetricsEnabled *bool
	HealthzEnabled *bool
}

// HTTPConfig controls the streamable HTTP transport.
type HTTPConfig struct {
	Addr           string
	Path           string
	JSONResponse   bool
	SessionTimeout time.Duration
}

// BrowserConfig controls how the backing browser is launched.
type BrowserConfig struct {
	Headless bool
}

// SessionConfig controls when the backing session is first built.
type SessionConfig struct {
	// EagerLogin starts the session in the background at startup so that
	// screening works before any per-symbol tool has been called.
	EagerLogin bool
}

// ServerConfig is the resolved process configuration.
type ServerConfig struct {
	Transport     string
	HTTP          HTTPConfig
	CacheTTL      time.Duration
	LogLevel      string
	Browser       BrowserConfig
	Session       SessionConfig
	Observability ObservabilityConfig
}
