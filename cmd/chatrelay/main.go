// Package main is the entry point for the chat relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/chatrelay/internal/config"
	"github.com/vyrodovalexey/chatrelay/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// exitFunc terminates the process. Tests replace it.
var exitFunc = os.Exit

// cliFlags holds command line flags. Empty log settings defer to the
// configuration.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if flags.showVersion {
		printVersion(os.Stdout)
		return
	}

	bootLogger := initLogger(config.DefaultConfig().Observability.Logging, flags)

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		fatalWithSync(bootLogger, "failed to load configuration", zap.Error(err))
		return
	}

	logger := initLogger(cfg.Observability.Logging, flags)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting chatrelay",
		zap.String("version", version),
		zap.String("config", flags.configPath),
		zap.String("model", cfg.Upstream.Model),
		zap.Int("port", cfg.Server.Port),
	)

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		fatalWithSync(logger, "failed to initialize application", zap.Error(err))
		return
	}

	if err := run(ctx, app); err != nil {
		fatalWithSync(logger, "chatrelay stopped with error", zap.Error(err))
	}
}

// parseFlags parses command line flags.
func parseFlags(args []string, output io.Writer) (cliFlags, error) {
	fs := flag.NewFlagSet("chatrelay", flag.ContinueOnError)
	fs.SetOutput(output)

	var flags cliFlags
	fs.StringVar(&flags.configPath, "config", getEnvOrDefault(envConfigPath, ""),
		"Path to an optional YAML configuration file")
	fs.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&flags.logFormat, "log-format", "", "Log format (json, console)")
	fs.BoolVar(&flags.showVersion, "version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	return flags, nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "chatrelay version %s\n", version)
	_, _ = fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	_, _ = fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// initLogger builds the process logger. Flags win over configuration.
// A logger that cannot be built is fatal.
func initLogger(cfg config.LoggingConfig, flags cliFlags) *zap.Logger {
	logger, err := buildLogger(cfg, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func buildLogger(cfg config.LoggingConfig, flags cliFlags) (*zap.Logger, error) {
	logCfg := observability.LogConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: cfg.Output,
	}
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		logCfg.Format = flags.logFormat
	}
	return observability.NewLogger(logCfg)
}

// loadConfig reads defaults, the optional file and the environment, and
// validates the result.
func loadConfig(path string) (*config.Config, error) {
	return config.NewLoader().Load(path)
}

// fatalWithSync logs msg, flushes the logger and exits.
func fatalWithSync(logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
	_ = logger.Sync()
	exitFunc(1)
}
