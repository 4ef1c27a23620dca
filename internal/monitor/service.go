package monitor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"klipperwatch/internal/printer"
	"klipperwatch/internal/printstate"
)

var (
	// ErrEmptyConversation is returned for a blank conversation ID.
	ErrEmptyConversation = errors.New("conversation id is required")
	// ErrClosed is returned once the service has been closed.
	ErrClosed = errors.New("monitor service is closed")
)

const statusReportKey = "status_report"

// Service is what the transport layer talks to: start and cancel watches,
// and ask for a one-shot status report.
type Service struct {
	registry  *Registry
	scheduler *Scheduler
	fetcher   printer.StatusFetcher
	log       zerolog.Logger
	publisher EventPublisher
	reports   singleflight.Group
	closed    atomic.Bool
}

// NewService validates cfg, applies defaults and returns a Service.
func NewService(cfg Config) (*Service, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Service{
		registry:  NewRegistry(cfg.Clock, cfg.InitialDelay, cfg.Interval),
		scheduler: newScheduler(cfg),
		fetcher:   cfg.Fetcher,
		log:       *cfg.Logger,
		publisher: cfg.Publisher,
	}, nil
}

// RequestMonitoring starts watching the current print for conversationID.
// A second request while a watch is active returns AlreadyActive and leaves
// the existing watch alone.
func (s *Service) RequestMonitoring(conversationID string) (StartResult, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return 0, ErrEmptyConversation
	}
	res, w, err := s.registry.Start(id, s.scheduler.Tick)
	if err != nil {
		return 0, err
	}
	if res == Started {
		s.log.Info().Str("conversation_id", id).Str("watch_id", w.ID).Msg("watch started")
		s.publisher.Publish(Event{Name: EventWatchStarted, ConversationID: id, Fields: map[string]any{"watch_id": w.ID}})
	} else {
		s.log.Debug().Str("conversation_id", id).Str("watch_id", w.ID).Msg("watch already active")
	}
	return res, nil
}

// CancelMonitoring stops the conversation's watch. It reports whether one was
// active; cancelling twice is harmless.
func (s *Service) CancelMonitoring(conversationID string) bool {
	id := strings.TrimSpace(conversationID)
	if !s.registry.Stop(id) {
		return false
	}
	s.log.Info().Str("conversation_id", id).Msg("watch cancelled")
	s.publisher.Publish(Event{Name: EventWatchCancelled, ConversationID: id})
	return true
}

// StatusReport fetches the printer once and renders the human readable
// report. Concurrent callers share one printer query. The error, when
// non-nil, is a *printer.Failure whose text is fit for the operator.
func (s *Service) StatusReport(ctx context.Context) (string, error) {
	ch := s.reports.DoChan(statusReportKey, func() (any, error) {
		snap, err := s.fetcher.Fetch(context.WithoutCancel(ctx), printer.FetchOptions{WithEstimate: true})
		if err != nil {
			return "", err
		}
		return printstate.Report(snap), nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			s.log.Warn().Err(res.Err).Msg("status report failed")
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Watches lists the active watches.
func (s *Service) Watches() []WatchInfo { return s.registry.List() }

// Watch returns the conversation's active watch, if any.
func (s *Service) Watch(conversationID string) (WatchInfo, bool) {
	return s.registry.Get(strings.TrimSpace(conversationID))
}

// Ready reports whether the service accepts new watches.
func (s *Service) Ready() bool { return !s.closed.Load() }

// Close stops every watch and rejects new ones. It returns the number of
// watches stopped.
func (s *Service) Close() int {
	s.closed.Store(true)
	n := s.registry.Close()
	if n > 0 {
		s.log.Info().Int("watches", n).Msg("stopped all watches")
	}
	return n
}
