package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"klipperwatch/internal/clock"
	"klipperwatch/internal/notify"
	"klipperwatch/internal/printer"
	"klipperwatch/internal/printstate"
)

const (
	msgConnectionLost = "Lost connection to the printer, stopping checks: "
	msgPrintStopped   = "Print stopped, stopping checks"
	msgInternalError  = "Print monitoring stopped after an internal error"
)

// Scheduler holds the per-tick policy: printing continues silently, any
// other phase or a fetch failure sends one notification and finishes.
type Scheduler struct {
	fetcher       printer.StatusFetcher
	sink          notify.Sink
	clock         clock.Clock
	log           zerolog.Logger
	publisher     EventPublisher
	notifyTimeout time.Duration
}

func newScheduler(cfg Config) *Scheduler {
	return &Scheduler{
		fetcher:       cfg.Fetcher,
		sink:          cfg.Sink,
		clock:         cfg.Clock,
		log:           *cfg.Logger,
		publisher:     cfg.Publisher,
		notifyTimeout: cfg.NotifyTimeout,
	}
}

// Tick is the registry PollFunc. It never panics out: a panic finishes the
// watch with a notification.
func (s *Scheduler) Tick(ctx context.Context, w *Watch) (decision Decision) {
	log := s.log.With().Str("conversation_id", w.ConversationID).Str("watch_id", w.ID).Logger()
	defer func() {
		if rec := recover(); rec != nil {
			ticksTotal.WithLabelValues(outcomePanic).Inc()
			log.Error().Interface("panic", rec).Msg("watch tick panicked")
			s.finish(w, log, msgInternalError, "panic")
			decision = Finish
		}
	}()

	start := s.clock.Now()
	snap, err := s.fetcher.Fetch(ctx, printer.FetchOptions{})
	fetchDuration.Observe(s.clock.Now().Sub(start).Seconds())

	if !w.Active() || ctx.Err() != nil {
		ticksTotal.WithLabelValues(outcomeDropped).Inc()
		log.Debug().Msg("watch stopped during tick, dropping result")
		return Finish
	}

	if err != nil {
		ticksTotal.WithLabelValues(outcomeFailure).Inc()
		log.Warn().Err(err).Msg("printer fetch failed, stopping watch")
		s.finish(w, log, msgConnectionLost+failureCause(err), "unreachable")
		return Finish
	}

	st := printstate.Interpret(snap)
	s.publisher.Publish(Event{Name: EventWatchTick, ConversationID: w.ConversationID, Fields: map[string]any{
		"watch_id": w.ID,
		"phase":    st.Phase.String(),
		"label":    st.Label,
	}})
	if !st.Terminal() {
		ticksTotal.WithLabelValues(outcomePrinting).Inc()
		log.Debug().Float64("progress", snap.Progress).Str("file", snap.FileName).Msg("still printing")
		return Continue
	}

	ticksTotal.WithLabelValues(outcomeTerminal).Inc()
	log.Info().Str("phase", st.Phase.String()).Str("label", st.Label).Msg("print left printing phase, stopping watch")
	msg := st.Message
	if msg == "" {
		msg = msgPrintStopped
	}
	s.finish(w, log, msg, st.Phase.String())
	return Finish
}

// finish sends the final notification for a watch. Sink errors are logged
// and counted, never retried.
func (s *Scheduler) finish(w *Watch, log zerolog.Logger, text, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	if err := s.send(ctx, w.ConversationID, text); err != nil {
		notificationsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("notification failed")
		s.publisher.Publish(Event{Name: EventNotifyFailed, ConversationID: w.ConversationID, Fields: map[string]any{
			"watch_id": w.ID,
			"error":    err.Error(),
		}})
	} else {
		notificationsTotal.WithLabelValues("sent").Inc()
	}
	s.publisher.Publish(Event{Name: EventWatchFinished, ConversationID: w.ConversationID, Fields: map[string]any{
		"watch_id": w.ID,
		"reason":   reason,
		"text":     text,
	}})
}

// send calls the sink and turns a sink panic into an error, so a broken sink
// cannot escape Tick.
func (s *Scheduler) send(ctx context.Context, conversationID, text string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("notification sink panicked: %v", rec)
		}
	}()
	return s.sink.Send(ctx, conversationID, text)
}

func failureCause(err error) string {
	if f, ok := printer.AsFailure(err); ok && f.Cause != "" {
		return f.Cause
	}
	return fmt.Sprint(err)
}
