package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sfinmcp/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sfinmcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(ConfigOptions{})
	require.NoError(t, err)

	server := cfg.Server()
	assert.Equal(t, domain.TransportStdio, server.Transport)
	assert.Equal(t, domain.DefaultHTTPAddr, server.HTTP.Addr)
	assert.Equal(t, domain.DefaultHTTPPath, server.HTTP.Path)
	assert.Equal(t, domain.DefaultCacheTTL, server.CacheTTL)
	assert.Equal(t, domain.DefaultLogLevel, server.LogLevel)
	assert.True(t, server.Browser.Headless)
	assert.False(t, server.Session.EagerLogin)
	assert.Equal(t, domain.DefaultObservabilityListenAddress, server.Observability.ListenAddress)
	assert.Nil(t, server.Observability.MetricsEnabled)
	assert.Nil(t, server.Observability.HealthzEnabled)
	assert.Empty(t, cfg.Path())
}

func TestLoadConfig_FileEnvAndOverrides(t *testing.T) {
	path := writeConfig(t, `
transport: streamable-http
http:
  addr: 127.0.0.1:9911
  path: /rpc
  jsonResponse: true
  sessionTimeoutSeconds: 30
cache:
  ttlHours: 0.5
log:
  level: debug
browser:
  headless: false
observability:
  metricsEnabled: true
`)
	t.Setenv("SFINMCP_LOG_LEVEL", "warn")
	t.Setenv("SFINMCP_OBSERVABILITY_HEALTHZENABLED", "true")

	cfg, err := LoadConfig(ConfigOptions{
		Path:      path,
		Overrides: map[string]any{"http.addr": "127.0.0.1:7000"},
	})
	require.NoError(t, err)

	server := cfg.Server()
	assert.Equal(t, domain.TransportStreamableHTTP, server.Transport)
	assert.Equal(t, "127.0.0.1:7000", server.HTTP.Addr, "override beats file")
	assert.Equal(t, "/rpc", server.HTTP.Path)
	assert.True(t, server.HTTP.JSONResponse)
	assert.Equal(t, 30*time.Second, server.HTTP.SessionTimeout)
	assert.Equal(t, 30*time.Minute, server.CacheTTL)
	assert.Equal(t, "warn", server.LogLevel, "env beats file")
	assert.False(t, server.Browser.Headless)
	require.NotNil(t, server.Observability.MetricsEnabled)
	assert.True(t, *server.Observability.MetricsEnabled)
	require.NotNil(t, server.Observability.HealthzEnabled)
	assert.True(t, *server.Observability.HealthzEnabled)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]any
		want      string
	}{
		{name: "transport", overrides: map[string]any{"transport": "sse"}, want: "transport must be"},
		{name: "ttl", overrides: map[string]any{"cache.ttlHours": 0}, want: "cache.ttlHours must be positive"},
		{name: "level", overrides: map[string]any{"log.level": "loud"}, want: "log.level"},
		{name: "path", overrides: map[string]any{"http.path": "mcp"}, want: "http.path must start"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(ConfigOptions{Overrides: tc.overrides})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(ConfigOptions{Path: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestConfigWatch_NoFile(t *testing.T) {
	cfg, err := LoadConfig(ConfigOptions{})
	require.NoError(t, err)
	assert.False(t, cfg.Watch(context.Background(), zap.NewNop(), nil))
}

func TestConfigWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	cfg, err := LoadConfig(ConfigOptions{Path: path})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	changes := make(chan domain.ServerConfig, 8)
	require.True(t, cfg.Watch(ctx, zap.NewNop(), func(next domain.ServerConfig) {
		changes <- next
	}))

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	require.Eventually(t, func() bool {
		return cfg.Server().LogLevel == "debug"
	}, 5*time.Second, 20*time.Millisecond)

	select {
	case next := <-changes:
		assert.Equal(t, "debug", next.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("onChange not called")
	}
}
