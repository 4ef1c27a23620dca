package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	signatureHeader       = "X-Webhook-Signature"
	eventHeader           = "X-Webhook-Event"
	eventNotification     = "monitor_notification"
)

// WebhookPayload is the JSON body posted for every notification.
type WebhookPayload struct {
	ConversationID string    `json:"conversation_id"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

// WebhookConfig configures NewWebhookSink.
type WebhookConfig struct {
	URL string
	// Secret, when set, signs the body with HMAC-SHA256 (hex) in
	// X-Webhook-Signature.
	Secret  string
	Timeout time.Duration
	// Now is used for payload timestamps; nil means time.Now.
	Now func() time.Time
}

// WebhookSink posts notifications to the chat transport. It makes exactly
// one attempt per notification.
type WebhookSink struct {
	url        string
	secret     string
	now        func() time.Time
	httpClient *http.Client
}

var _ Sink = (*WebhookSink)(nil)

// NewWebhookSink validates cfg and returns a sink.
func NewWebhookSink(cfg WebhookConfig) (*WebhookSink, error) {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWebhookTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &WebhookSink{
		url:        u,
		secret:     cfg.Secret,
		now:        cfg.Now,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Send posts one notification.
func (s *WebhookSink) Send(ctx context.Context, conversationID, text string) error {
	body, err := json.Marshal(WebhookPayload{
		ConversationID: conversationID,
		Text:           text,
		Timestamp:      s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventHeader, eventNotification)
	if s.secret != "" {
		req.Header.Set(signatureHeader, Sign(body, s.secret))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
