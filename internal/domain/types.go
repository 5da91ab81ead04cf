package domain

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// Credentials are the connection and login parameters for the backing client.
// An empty Email or Password means the server runs unauthenticated.
type Credentials struct {
	EndpointURL string
	BrowserPath string
	Email       string
	Password    string
}

// HasLogin reports whether both email and password are configured.
func (c Credentials) HasLogin() bool {
	return c.Email != "" && c.Password != ""
}

func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("endpoint", c.EndpointURL)
	enc.AddString("browser", c.BrowserPath)
	enc.AddString("email", c.Email)
	enc.AddBool("password_set", c.Password != "")
	return nil
}

// Session is the process-wide handle to the backing client.
type Session struct {
	Client         BackingClient
	CreatedAt      time.Time
	LoginAttempted bool
	LoginSucceeded bool
}

// CacheStats is computed on demand from the resource cache.
type CacheStats struct {
	Active     int     `json:"active_cache_entries"`
	Expired    int     `json:"expired_cache_entries"`
	Total      int     `json:"total_cache_entries"`
	ExpiryHour float64 `json:"cache_expiry_hours"`
	LoggedIn   bool    `json:"logged_in"`
}

// Table is a scraped tabular result. Columns order is preserved on output.
type Table struct {
	Columns []string
	Rows    [][]any
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Records returns one map per row keyed by column name.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = nil
			}
		}
		out = append(out, rec)
	}
	return out
}

// Overview is the key ratio block of a company page.
type Overview map[string]any

type ScreenQuery struct {
	Query string
	Sort  string
	Order string
	Page  int
}

type ScreenResult struct {
	TotalResults int
	Results      Table
}

// ToolResult is the transport-neutral outcome of one tool invocation.
type ToolResult struct {
	Text    string
	IsError bool
	Kind    ErrorKind
}
