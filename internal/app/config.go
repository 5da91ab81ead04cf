package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sfinmcp/internal/domain"
)

// EnvPrefix namespaces configuration overrides in the environment.
const EnvPrefix = "SFINMCP"

// ConfigOptions selects where configuration comes from.
type ConfigOptions struct {
	// Path is an optional YAML file. Empty means defaults plus environment.
	Path string
	// Overrides are applied above the file and the environment, keyed by
	// config key (for example "http.addr").
	Overrides map[string]any
}

// Config is a loaded configuration that can be watched for changes.
type Config struct {
	v      *viper.Viper
	path   string
	mu     sync.RWMutex
	server domain.ServerConfig
}

type rawConfig struct {
	Transport     string                 `mapstructure:"transport"`
	HTTP          rawHTTPConfig          `mapstructure:"http"`
	Cache         rawCacheConfig         `mapstructure:"cache"`
	Log           rawLogConfig           `mapstructure:"log"`
	Browser       rawBrowserConfig       `mapstructure:"browser"`
	Session       rawSessionConfig       `mapstructure:"session"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
}

type rawHTTPConfig struct {
	Addr                  string `mapstructure:"addr"`
	Path                  string `mapstructure:"path"`
	JSONResponse          bool   `mapstructure:"jsonResponse"`
	SessionTimeoutSeconds int    `mapstructure:"sessionTimeoutSeconds"`
}

type rawCacheConfig struct {
	TTLHours float64 `mapstructure:"ttlHours"`
}

type rawLogConfig struct {
	Level string `mapstructure:"level"`
}

type rawBrowserConfig struct {
	Headless bool `mapstructure:"headless"`
}

type rawSessionConfig struct {
	EagerLogin bool `mapstructure:"eagerLogin"`
}

type rawObservabilityConfig struct {
	ListenAddress  string `mapstructure:"listenAddress"`
	MetricsEnabled *bool  `mapstructure:"metricsEnabled"`
	HealthzEnabled *bool  `mapstructure:"healthzEnabled"`
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setConfigDefaults(v)
	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	_ = v.BindEnv("observability.metricsEnabled")
	_ = v.BindEnv("observability.healthzEnabled")
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("transport", domain.DefaultTransport)
	v.SetDefault("http.addr", domain.DefaultHTTPAddr)
	v.SetDefault("http.path", domain.DefaultHTTPPath)
	v.SetDefault("http.jsonResponse", false)
	v.SetDefault("http.sessionTimeoutSeconds", 0)
	v.SetDefault("cache.ttlHours", domain.DefaultCacheTTL.Hours())
	v.SetDefault("log.level", domain.DefaultLogLevel)
	v.SetDefault("browser.headless", true)
	v.SetDefault("session.eagerLogin", false)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
}

// LoadConfig resolves configuration from defaults, the optional file, the
// SFINMCP_* environment and explicit overrides, in increasing precedence.
func LoadConfig(opts ConfigOptions) (*Config, error) {
	v := newConfigViper()
	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.Path, err)
		}
	}
	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	server, err := decodeServerConfig(v)
	if err != nil {
		return nil, err
	}
	return &Config{v: v, path: opts.Path, server: server}, nil
}

// Server returns the most recently loaded configuration.
func (c *Config) Server() domain.ServerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// Path returns the config file in use, or "".
func (c *Config) Path() string {
	return c.path
}

// Watch reloads the file on change and passes every valid result to
// onChange. Invalid edits are logged and the previous config is kept.
// It returns false when there is no file to watch.
func (c *Config) Watch(ctx context.Context, logger *zap.Logger, onChange func(domain.ServerConfig)) bool {
	if c == nil || c.path == "" {
		return false
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c.v.OnConfigChange(func(event fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		server, err := decodeServerConfig(c.v)
		if err != nil {
			logger.Warn("config reload rejected", zap.String("config", event.Name), zap.Error(err))
			return
		}
		c.mu.Lock()
		c.server = server
		c.mu.Unlock()
		logger.Info("config reloaded", zap.String("config", event.Name))
		if onChange != nil {
			onChange(server)
		}
	})
	c.v.WatchConfig()
	return true
}

func decodeServerConfig(v *viper.Viper) (domain.ServerConfig, error) {
	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.ServerConfig{}, fmt.Errorf("decode config: %w", err)
	}

	var errs []error
	transport := strings.ToLower(strings.TrimSpace(raw.Transport))
	switch transport {
	case domain.TransportStdio, domain.TransportStreamableHTTP:
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", domain.TransportStdio, domain.TransportStreamableHTTP, raw.Transport))
	}
	if raw.Cache.TTLHours <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttlHours must be positive, got %v", raw.Cache.TTLHours))
	}
	level := strings.ToLower(strings.TrimSpace(raw.Log.Level))
	if _, err := zapcore.ParseLevel(level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if raw.HTTP.SessionTimeoutSeconds < 0 {
		errs = append(errs, errors.New("http.sessionTimeoutSeconds must not be negative"))
	}
	path := strings.TrimSpace(raw.HTTP.Path)
	if path != "" && !strings.HasPrefix(path, "/") {
		errs = append(errs, fmt.Errorf("http.path must start with '/', got %q", path))
	}
	if len(errs) > 0 {
		return domain.ServerConfig{}, errors.Join(errs...)
	}

	return domain.ServerConfig{
		Transport: transport,
		HTTP: domain.HTTPConfig{
			Addr:           strings.TrimSpace(raw.HTTP.Addr),
			Path:           path,
			JSONResponse:   raw.HTTP.JSONResponse,
			SessionTimeout: time.Duration(raw.HTTP.SessionTimeoutSeconds) * time.Second,
		},
		CacheTTL: time.Duration(raw.Cache.TTLHours * float64(time.Hour)),
		LogLevel: level,
		Browser:  domain.BrowserConfig{Headless: raw.Browser.Headless},
		Session:  domain.SessionConfig{EagerLogin: raw.Session.EagerLogin},
		Observability: domain.ObservabilityConfig{
			ListenAddress:  strings.TrimSpace(raw.Observability.ListenAddress),
			MetricsEnabled: raw.Observability.MetricsEnabled,
			HealthzEnabled: raw.Observability.HealthzEnabled,
		},
	}, nil
}
