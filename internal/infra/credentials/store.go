// Package credentials reads backing-client connection parameters from the
// process environment.
package credentials

import (
	"os"
	"runtime"
	"strings"

	"sfinmcp/internal/domain"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads credentials from the process environment. It never fails.
func Load() domain.Credentials {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads credentials using lookup. Unset endpoint and browser path
// fall back to defaults; unset email or password leave login disabled.
func LoadFrom(lookup LookupFunc) domain.Credentials {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return domain.Credentials{
		EndpointURL: valueOr(lookup, domain.EnvScreenerURL, domain.DefaultScreenerURL),
		BrowserPath: valueOr(lookup, domain.EnvChromePath, DefaultBrowserPath(runtime.GOOS)),
		Email:       value(lookup, domain.EnvScreenerEmail),
		Password:    value(lookup, domain.EnvScreenerPassword),
	}
}

// DefaultBrowserPath returns the conventional Chrome location for goos.
func DefaultBrowserPath(goos string) string {
	switch goos {
	case "windows":
		return `C:\Program Files\Google\Chrome\Application\chrome.exe`
	case "darwin":
		return "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	default:
		return "/usr/bin/google-chrome"
	}
}

func value(lookup LookupFunc, key string) string {
	v, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func valueOr(lookup LookupFunc, key, fallback string) string {
	if v := value(lookup, key); v != "" {
		return v
	}
	return fallback
}
