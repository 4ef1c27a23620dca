package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"klipperwatch/internal/config"
)

// options collects flag values; only flags the user set override config.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	printerURL string
	addr       string
	webhookURL string
	interval   int
	delay      int
	plain      bool
}

func buildRootCmd() *cobra.Command { return buildRootCmdWith(&options{}) }

// buildRootCmdWith constructs the command tree with flags bound to opts.
func buildRootCmdWith(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "klipperwatch",
		Short:         "Watch a Klipper print and notify chat conversations when it stops",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (.yaml, .toml or .json); searched in ./ and ~/.config/klipperwatch when empty")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults KLIPPERWATCH_LOG_LEVEL or info)")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: json|console")
	pf.StringVar(&opts.printerURL, "printer-url", "", "Moonraker base URL (defaults PRINTER_URL)")

	root.AddCommand(newServeCmd(opts), newStatusCmd(opts))
	return root
}

// resolveConfig layers defaults, the config file, the environment and flags,
// then validates the result.
func resolveConfig(flags *pflag.FlagSet, opts *options, lookup func(string) (string, bool)) (config.Config, error) {
	cfg := config.Default()
	path := opts.configPath
	if path == "" {
		path = config.Discover()
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	cfg, err := config.ApplyEnv(cfg, lookup)
	if err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if changed("printer-url") {
		cfg.PrinterURL = opts.printerURL
	}
	if changed("addr") {
		cfg.Addr = opts.addr
	}
	if changed("webhook-url") {
		cfg.WebhookURL = opts.webhookURL
	}
	if changed("poll-interval") {
		cfg.PollIntervalSeconds = opts.interval
	}
	if changed("initial-delay") {
		cfg.InitialDelaySeconds = opts.delay
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "klipperwatch").Logger(), nil
}

func commandConfig(cmd *cobra.Command, opts *options) (config.Config, zerolog.Logger, error) {
	cfg, err := resolveConfig(cmd.Flags(), opts, os.LookupEnv)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return cfg, log, err
}
