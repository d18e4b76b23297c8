// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcodagnone/geoscope/config"
	"github.com/jcodagnone/geoscope/gazetteer"
	"github.com/jcodagnone/geoscope/llm"
	"github.com/jcodagnone/geoscope/resolver"
	"github.com/jcodagnone/geoscope/utils/httputils"
	"github.com/jcodagnone/geoscope/utils/logging"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

type rootOptions struct {
	ConfigPath string
	Verbose    bool
	TraceHTTP  bool
}

var globalOptions = &rootOptions{}

var rootCmd = &cobra.Command{
	Use:   "geoscope",
	Short: "resolve the place a free-text query is about",
	Long: `
geoscope reads a free-text question, asks a language model which place it
refers to and at what scale, looks the place up in a gazetteer and asks the
model again to pick the matching candidate.
`,
	SilenceUsage: true,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flags over it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(globalOptions.ConfigPath)
	if err != nil {
		return nil, err
	}

	if globalOptions.TraceHTTP {
		cfg.Log.HTTPTrace = true
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(cfg.Log.Mode, globalOptions.Verbose)
}

func clientOptions(cfg *config.Config, timeout time.Duration, userAgent string) httputils.ClientOptions {
	if userAgent == "" {
		userAgent = "geoscope/" + Version
	}

	opts := httputils.ClientOptions{
		UserAgent: userAgent,
		Timeout:   timeout,
		TraceBody: cfg.Log.HTTPBodyTrace,
	}

	if cfg.Log.HTTPTrace || cfg.Log.HTTPBodyTrace {
		opts.TraceWriter = &logWriter{writer: os.Stderr}
	}

	return opts
}

func newGazetteer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (gazetteer.Gazetteer, error) {
	opts := clientOptions(cfg, cfg.Gazetteer.Timeout.Duration, cfg.Gazetteer.UserAgent)

	gz, err := gazetteer.New(ctx, cfg.Gazetteer, httputils.NewClient(opts), logger)
	if err != nil {
		return nil, fmt.Errorf("creating gazetteer: %w", err)
	}

	return gz, nil
}

func newEngine(cfg *config.Config) (llm.Engine, error) {
	opts := clientOptions(cfg, cfg.Engine.Timeout.Duration, "")

	engine, err := llm.New(cfg.Engine, httputils.NewClient(opts))
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	return engine, nil
}

// newResolver wires the configured engine and gazetteer.
func newResolver(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*resolver.Resolver, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	gz, err := newGazetteer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return resolver.New(engine, gz,
		resolver.WithStrictScale(cfg.Resolver.StrictScale),
		resolver.WithLogger(logger),
	)
}

// setup loads the configuration and the logger shared by every command.
func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOptions.ConfigPath, "config", "geoscope.toml", "Path to the TOML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&globalOptions.Verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&globalOptions.TraceHTTP, "trace-http", false, "Dump outbound HTTP requests and responses to stderr")
}
