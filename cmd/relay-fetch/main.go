// Package main is the entry point for relay-fetch, a small command
// that fetches URLs through the configured relay client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/vyrodovalexey/avarelay/internal/config"
	"github.com/vyrodovalexey/avarelay/internal/observability"
	"github.com/vyrodovalexey/avarelay/internal/relay"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// headerFlags collects repeatable -header flags.
type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(value string) error {
	*h = append(*h, value)
	return nil
}

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	method      string
	body        string
	headers     headerFlags
	interval    time.Duration
	watch       bool
	metricsAddr string
	showVersion bool
}

func main() {
	flags, args := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: relay-fetch [flags] <url>")
		os.Exit(2)
	}
	target := args[0]

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)
	applyFlagOverrides(cfg, flags)

	metrics := observability.NewMetrics("relay")
	metrics.SetBuildInfo(version)

	client := buildClient(cfg, flags, logger, metrics)

	if flags.interval <= 0 {
		runOnce(context.Background(), client, flags, target, logger)
		return
	}

	runLoop(cfg, client, flags, target, logger, metrics)
}

// parseFlags parses command line flags and returns the remaining
// arguments.
func parseFlags() (cliFlags, []string) {
	var flags cliFlags

	flag.StringVar(&flags.configPath,
		"config", getEnvOrDefault("RELAY_CONFIG_PATH", "configs/relay.yaml"),
		"Path to configuration file")
	flag.StringVar(&flags.logLevel,
		"log-level", getEnvOrDefault("RELAY_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	flag.StringVar(&flags.logFormat,
		"log-format", getEnvOrDefault("RELAY_LOG_FORMAT", "json"),
		"Log format (json, console)")
	flag.StringVar(&flags.method, "method", http.MethodGet, "HTTP method")
	flag.StringVar(&flags.body, "body", "", "Request body")
	flag.Var(&flags.headers, "header", "Default header in key:value form (repeatable)")
	flag.DurationVar(&flags.interval, "interval", 0,
		"Fetch repeatedly at this interval (0 = one-shot)")
	flag.BoolVar(&flags.watch, "watch", false,
		"Reload configuration on change (interval mode only)")
	flag.StringVar(&flags.metricsAddr, "metrics-addr", "",
		"Serve metrics on this address (overrides config, implies enabled)")
	flag.BoolVar(&flags.showVersion, "version", false, "Show version information")
	flag.Parse()

	return flags, flag.Args()
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("relay-fetch version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads and validates the configuration. A
// malformed configuration source is a startup failure.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting relay-fetch",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No config file at all: direct mode with defaults.
			logger.Warn("configuration file not found, using defaults",
				observability.String("path", configPath),
			)
			return config.DefaultConfig()
		}
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	return cfg
}

// applyFlagOverrides applies command line overrides to the loaded
// configuration.
func applyFlagOverrides(cfg *config.Config, flags cliFlags) {
	if flags.metricsAddr != "" {
		cfg.Metrics.Address = flags.metricsAddr
		cfg.Metrics.Enabled = true
	}
}

// buildClient constructs the relay client from configuration and
// applies default headers from the command line.
func buildClient(
	cfg *config.Config,
	flags cliFlags,
	logger observability.Logger,
	metrics *observability.Metrics,
) *relay.Client {
	client, err := relay.NewFromConfig(cfg,
		relay.WithLogger(logger),
		relay.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal("failed to build relay client", observability.Error(err))
	}

	if len(flags.headers) > 0 {
		headers, err := parseHeaders(flags.headers)
		if err != nil {
			logger.Fatal("invalid -header flag", observability.Error(err))
		}
		client = client.WithDefaultHeaders(headers)
	}

	logger.Info("relay client ready", observability.String("mode", client.Mode()))
	return client
}

// parseHeaders parses key:value pairs into an http.Header.
func parseHeaders(pairs []string) (http.Header, error) {
	headers := make(http.Header, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("header %q is not in key:value form", pair)
		}
		headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return headers, nil
}

// runOnce performs a single fetch and writes the response body to
// stdout.
func runOnce(
	ctx context.Context,
	client *relay.Client,
	flags cliFlags,
	target string,
	logger observability.Logger,
) {
	resp, err := fetch(ctx, client, flags, target)
	if err != nil {
		logger.Fatal("request failed", observability.Error(err))
	}
	defer func() { _ = resp.Body.Close() }()

	logger.Info("response received",
		observability.Int("status", resp.StatusCode),
	)

	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		logger.Fatal("failed to read response body", observability.Error(err))
	}
}

// runLoop fetches the target repeatedly, optionally reloading the
// configuration on change and serving metrics.
func runLoop(
	cfg *config.Config,
	client *relay.Client,
	flags cliFlags,
	target string,
	logger observability.Logger,
	metrics *observability.Metrics,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var current atomic.Pointer[relay.Client]
	current.Store(client)

	if flags.watch {
		startWatcher(ctx, flags, logger, metrics, &current)
	}

	if cfg.Metrics.Enabled {
		startMetricsServer(cfg.Metrics, logger, metrics)
	}

	ticker := time.NewTicker(flags.interval)
	defer ticker.Stop()

	logger.Info("entering fetch loop",
		observability.String("url", target),
		observability.Duration("interval", flags.interval),
	)

	for {
		fetchAndDiscard(ctx, current.Load(), flags, target, logger)

		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
		}
	}
}

// startWatcher reloads the configuration on change. Each reload
// constructs a fresh client; individual clients stay immutable.
func startWatcher(
	ctx context.Context,
	flags cliFlags,
	logger observability.Logger,
	metrics *observability.Metrics,
	current *atomic.Pointer[relay.Client],
) {
	watcher, err := config.NewWatcher(flags.configPath, func(cfg *config.Config) {
		client, err := relay.NewFromConfig(cfg,
			relay.WithLogger(logger),
			relay.WithMetrics(metrics),
		)
		if err != nil {
			logger.Error("reloaded config produced no client, keeping previous",
				observability.Error(err),
			)
			return
		}
		current.Store(client)
		logger.Info("relay client rebuilt",
			observability.String("mode", client.Mode()),
		)
	}, config.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to create config watcher", observability.Error(err))
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Fatal("failed to start config watcher", observability.Error(err))
	}
}

// startMetricsServer serves the Prometheus metrics endpoint.
func startMetricsServer(
	cfg config.MetricsConfig,
	logger observability.Logger,
	metrics *observability.Metrics,
) {
	mux := http.NewServeMux()
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, metrics.Handler())

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("serving metrics",
		observability.String("address", cfg.Address),
		observability.String("path", path),
	)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", observability.Error(err))
		}
	}()
}

// fetch builds and dispatches a single request.
func fetch(
	ctx context.Context,
	client *relay.Client,
	flags cliFlags,
	target string,
) (*http.Response, error) {
	rb := client.Request(strings.ToUpper(flags.method), target)
	if flags.body != "" {
		rb.Body(strings.NewReader(flags.body))
	}
	return rb.Send(ctx)
}

// fetchAndDiscard performs a fetch in loop mode, logging the outcome
// and discarding the body.
func fetchAndDiscard(
	ctx context.Context,
	client *relay.Client,
	flags cliFlags,
	target string,
	logger observability.Logger,
) {
	resp, err := fetch(ctx, client, flags, target)
	if err != nil {
		logger.Error("fetch failed", observability.Error(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		logger.Error("failed to drain response body", observability.Error(err))
		return
	}

	logger.Info("fetched",
		observability.String("url", target),
		observability.Int("status", resp.StatusCode),
	)
}
