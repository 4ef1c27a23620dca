package monitor

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"klipperwatch/internal/clock"
	"klipperwatch/internal/notify"
	"klipperwatch/internal/printer"
)

// Defaults applied when the corresponding Config fields are unset.
const (
	defaultInitialDelay  = 5 * time.Second
	defaultInterval      = 60 * time.Second
	defaultNotifyTimeout = 10 * time.Second
)

// Config holds everything NewService needs. Fetcher and Sink are required.
type Config struct {
	Fetcher printer.StatusFetcher
	Sink    notify.Sink
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Logger defaults to a disabled logger.
	Logger    *zerolog.Logger
	Publisher EventPublisher

	// InitialDelay is the wait before a new watch's first tick.
	InitialDelay time.Duration
	// Interval separates the end of one tick from the start of the next.
	Interval time.Duration
	// NotifyTimeout bounds a single Sink.Send.
	NotifyTimeout time.Duration
}

func (c Config) withDefaults() (Config, error) {
	if c.Fetcher == nil {
		return c, errors.New("monitor: status fetcher is required")
	}
	if c.Sink == nil {
		return c, errors.New("monitor: notification sink is required")
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaultInitialDelay
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = defaultNotifyTimeout
	}
	return c, nil
}
