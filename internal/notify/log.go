package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes notifications to a logger. It is the fallback when no
// webhook is configured and never fails.
type LogSink struct {
	log zerolog.Logger
}

var _ Sink = LogSink{}

func NewLogSink(l zerolog.Logger) LogSink { return LogSink{log: l} }

func (s LogSink) Send(_ context.Context, conversationID, text string) error {
	s.log.Info().Str("conversation_id", conversationID).Str("text", text).Msg("notification")
	return nil
}
