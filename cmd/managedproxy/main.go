// Package main is the entry point for managedproxy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/managedproxy/internal/config"
	"github.com/vyrodovalexey/managedproxy/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	listen      string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	bootstrap := initLogger(observability.LogConfig{
		Level:  orDefault(flags.logLevel, "info"),
		Format: orDefault(flags.logFormat, "json"),
	})

	cfg := loadAndValidateConfig(flags, bootstrap)

	logger := bootstrap
	if flags.logLevel == "" || flags.logFormat == "" {
		logger = initLogger(observability.LogConfig{
			Level:  orDefault(flags.logLevel, cfg.Logging.Level),
			Format: orDefault(flags.logFormat, cfg.Logging.Format),
			Output: cfg.Logging.Output,
		})
		_ = bootstrap.Sync()
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", observability.Error(err))
	}

	run(ctx, app, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("MANAGEDPROXY_CONFIG_PATH", "configs/managedproxy.yaml"),
		"Path to configuration file")
	listen := flag.String("listen", getEnvOrDefault("MANAGEDPROXY_LISTEN", ""),
		"Listen address, overrides the configuration")
	logLevel := flag.String("log-level", getEnvOrDefault("MANAGEDPROXY_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("MANAGEDPROXY_LOG_FORMAT", ""),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		listen:      *listen,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("managedproxy version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger or exits.
func initLogger(cfg observability.LogConfig) observability.Logger {
	logger, err := observability.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// loadAndValidateConfig loads and validates the configuration or exits.
func loadAndValidateConfig(flags cliFlags, logger observability.Logger) *config.Config {
	logger.Info("starting managedproxy",
		observability.String("version", version),
		observability.String("config", flags.configPath),
	)

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}
	if flags.listen != "" {
		cfg.Listen = flags.listen
	}

	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	routes := 0
	for _, s := range cfg.Servers {
		routes += len(s.Routes)
	}
	logger.Info("configuration loaded",
		observability.String("listen", cfg.Listen),
		observability.Int("servers", len(cfg.Servers)),
		observability.Int("routes", routes),
	)

	return cfg
}
