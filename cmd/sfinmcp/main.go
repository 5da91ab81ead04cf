package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sfinmcp/internal/app"
	"sfinmcp/internal/infra/catalog"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logger     *zap.Logger
	level      zap.AtomicLevel
}

type serveOptions struct {
	overrides map[string]any
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		logLevel: "info",
		logger:   zap.NewNop(),
		level:    zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}

	root := &cobra.Command{
		Use:           "sfinmcp",
		Short:         "MCP server for Indian equity fundamentals from screener.in",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, err := zapcore.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			opts.level.SetLevel(level)

			// stdout carries the stdio MCP channel.
			cfg := zap.NewProductionConfig()
			cfg.Level = opts.level
			cfg.OutputPaths = []string{"stderr"}
			cfg.ErrorOutputPaths = []string{"stderr"}
			log, err := cfg.Build()
			if err != nil {
				return err
			}
			opts.logger = log
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file (optional)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newToolsCmd(),
		newParamsCmd(),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.overrides = serveFlagOverrides(cmd.Flags())

			cfg, err := app.LoadConfig(app.ConfigOptions{
				Path:      root.configPath,
				Overrides: opts.overrides,
			})
			if err != nil {
				return err
			}
			server := cfg.Server()
			if level, err := zapcore.ParseLevel(server.LogLevel); err == nil {
				root.level.SetLevel(level)
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			return app.Serve(ctx, app.ServeConfig{
				Server: server,
				Config: cfg,
			}, app.LoggingConfig{
				Logger: root.logger,
				Level:  root.level,
			})
		},
	}

	flags := cmd.Flags()
	flags.String("transport", "", "MCP transport: stdio or streamable-http")
	flags.String("http-addr", "", "listen address for streamable-http")
	flags.String("http-path", "", "endpoint path for streamable-http")
	flags.Bool("http-json-response", false, "answer streamable-http requests with plain JSON instead of SSE")
	flags.Int("http-session-timeout", 0, "idle streamable-http session timeout in seconds (0 disables)")
	flags.Float64("cache-ttl-hours", 0, "per-symbol cache lifetime in hours")
	flags.Bool("headless", true, "run the backing browser headless")
	flags.Bool("eager-login", false, "start the backing session at startup")
	flags.String("observability-addr", "", "listen address for /metrics and /healthz")
	flags.Bool("metrics", false, "serve /metrics")
	flags.Bool("healthz", false, "serve /healthz")

	return cmd
}

// serveFlagOverrides maps explicitly set flags onto config keys so that
// unset flags never mask the config file or environment.
func serveFlagOverrides(flags *pflag.FlagSet) map[string]any {
	overrides := make(map[string]any)
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "transport":
			overrides["transport"], _ = flags.GetString("transport")
		case "http-addr":
			overrides["http.addr"], _ = flags.GetString("http-addr")
		case "http-path":
			overrides["http.path"], _ = flags.GetString("http-path")
		case "http-json-response":
			overrides["http.jsonResponse"], _ = flags.GetBool("http-json-response")
		case "http-session-timeout":
			overrides["http.sessionTimeoutSeconds"], _ = flags.GetInt("http-session-timeout")
		case "cache-ttl-hours":
			overrides["cache.ttlHours"], _ = flags.GetFloat64("cache-ttl-hours")
		case "headless":
			overrides["browser.headless"], _ = flags.GetBool("headless")
		case "eager-login":
			overrides["session.eagerLogin"], _ = flags.GetBool("eager-login")
		case "observability-addr":
			overrides["observability.listenAddress"], _ = flags.GetString("observability-addr")
		case "metrics":
			overrides["observability.metricsEnabled"], _ = flags.GetBool("metrics")
		case "healthz":
			overrides["observability.healthzEnabled"], _ = flags.GetBool("healthz")
		case "log-level":
			overrides["log.level"], _ = flags.GetString("log-level")
		}
	})
	return overrides
}

func newToolsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.New()
			if err != nil {
				return err
			}
			return printTools(cmd.OutOrStdout(), cat.Tools(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format: json or yaml")
	return cmd
}

func newParamsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "params [category]",
		Short: "List screening parameters, optionally for one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.New()
			if err != nil {
				return err
			}
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			params, err := cat.Parameters(category)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), params, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "output format: json or yaml")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sfinmcp %s (%s)\n", app.Version, app.Build)
		},
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
