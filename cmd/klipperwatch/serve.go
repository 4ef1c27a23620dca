package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"klipperwatch/internal/config"
	"klipperwatch/internal/httpapi"
	"klipperwatch/internal/monitor"
	"klipperwatch/internal/notify"
	"klipperwatch/internal/printer"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API and the print monitor",
		Example: "  klipperwatch serve --printer-url http://voron.local:7125 --webhook-url http://bot:9000/notify",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := commandConfig(cmd, opts)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.Addr, err)
			}
			return serve(cmd.Context(), ln, cfg, log)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "HTTP listen address, e.g. :8080 (defaults KLIPPERWATCH_ADDR)")
	f.StringVar(&opts.webhookURL, "webhook-url", "", "Chat transport endpoint for notifications; notifications are logged when empty")
	f.IntVar(&opts.interval, "poll-interval", 0, "Seconds between watch ticks")
	f.IntVar(&opts.delay, "initial-delay", 0, "Seconds before a new watch's first tick")
	return cmd
}

func newSink(cfg config.Config, log zerolog.Logger) (notify.Sink, error) {
	if cfg.WebhookURL == "" {
		log.Warn().Msg("no webhook_url configured, notifications will only be logged")
		return notify.NewLogSink(log.With().Str("component", "notify").Logger()), nil
	}
	return notify.NewWebhookSink(notify.WebhookConfig{
		URL:     cfg.WebhookURL,
		Secret:  cfg.WebhookSecret,
		Timeout: cfg.RequestTimeout(),
	})
}

func newMonitorService(cfg config.Config, log zerolog.Logger) (*monitor.Service, error) {
	client, err := printer.NewClient(printer.ClientConfig{
		BaseURL:            cfg.PrinterURL,
		AccessClientID:     cfg.AccessClientID,
		AccessClientSecret: cfg.AccessClientSecret,
		Timeout:            cfg.RequestTimeout(),
	})
	if err != nil {
		return nil, err
	}
	sink, err := newSink(cfg, log)
	if err != nil {
		return nil, err
	}
	mlog := log.With().Str("component", "monitor").Logger()
	return monitor.NewService(monitor.Config{
		Fetcher:       client,
		Sink:          sink,
		Logger:        &mlog,
		InitialDelay:  cfg.InitialDelay(),
		Interval:      cfg.PollInterval(),
		NotifyTimeout: cfg.RequestTimeout(),
	})
}

// serve runs until ctx is done or the listener fails, then stops every watch
// and drains the HTTP server.
func serve(ctx context.Context, ln net.Listener, cfg config.Config, log zerolog.Logger) error {
	svc, err := newMonitorService(cfg, log)
	if err != nil {
		return err
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetAccessLogLevel(cfg.LogLevel)
	httpapi.SetBaseContext(baseCtx)
	// A status report may make two printer requests.
	httpapi.SetStatusTimeout(2 * cfg.RequestTimeout())
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)

	srv := &http.Server{
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info().
		Str("addr", ln.Addr().String()).
		Str("printer_url", cfg.PrinterURL).
		Dur("poll_interval", cfg.PollInterval()).
		Msg("klipperwatch listening")

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server error: %w", err)
		}
	}

	n := svc.Close()
	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Int("watches_stopped", n).Msg("klipperwatch stopped")
	return serveErr
}
