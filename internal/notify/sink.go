// Package notify delivers monitor notifications to a conversation. The chat
// transport lives outside this service; a Sink is how the monitor reaches it.
package notify

import "context"

// Sink delivers text to one conversation. Send reports only whether the
// hand-off succeeded; callers log failures and do not retry.
type Sink interface {
	Send(ctx context.Context, conversationID, text string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, conversationID, text string) error

func (f SinkFunc) Send(ctx context.Context, conversationID, text string) error {
	return f(ctx, conversationID, text)
}
