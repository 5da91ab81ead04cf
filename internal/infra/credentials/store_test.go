package credentials

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"sfinmcp/internal/domain"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadFromDefaults(t *testing.T) {
	creds := LoadFrom(mapLookup(nil))

	assert.Equal(t, domain.DefaultScreenerURL, creds.EndpointURL)
	assert.Equal(t, DefaultBrowserPath(runtime.GOOS), creds.BrowserPath)
	assert.Empty(t, creds.Email)
	assert.Empty(t, creds.Password)
	assert.False(t, creds.HasLogin())
}

func TestLoadFromEnvironment(t *testing.T) {
	creds := LoadFrom(mapLookup(map[string]string{
		domain.EnvScreenerURL:      "https://example.test/",
		domain.EnvChromePath:       " /opt/chrome ",
		domain.EnvScreenerEmail:    "me@example.test",
		domain.EnvScreenerPassword: "secret",
	}))

	assert.Equal(t, "https://example.test/", creds.EndpointURL)
	assert.Equal(t, "/opt/chrome", creds.BrowserPath)
	assert.Equal(t, "me@example.test", creds.Email)
	assert.True(t, creds.HasLogin())
}

func TestLoadFromBlankValuesUseDefaults(t *testing.T) {
	creds := LoadFrom(mapLookup(map[string]string{
		domain.EnvScreenerURL:   "   ",
		domain.EnvScreenerEmail: "me@example.test",
	}))

	assert.Equal(t, domain.DefaultScreenerURL, creds.EndpointURL)
	assert.False(t, creds.HasLogin())
}

func TestLoadReadsProcessEnv(t *testing.T) {
	t.Setenv(domain.EnvScreenerEmail, "env@example.test")
	t.Setenv(domain.EnvScreenerPassword, "pw")

	creds := Load()
	assert.True(t, creds.HasLogin())
	assert.Equal(t, "env@example.test", creds.Email)
}

func TestDefaultBrowserPath(t *testing.T) {
	assert.Contains(t, DefaultBrowserPath("windows"), "chrome.exe")
	assert.Contains(t, DefaultBrowserPath("darwin"), "Google Chrome.app")
	assert.Equal(t, "/usr/bin/google-chrome", DefaultBrowserPath("linux"))
}
