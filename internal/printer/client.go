package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusFetcher is implemented by *Client and faked in tests.
type StatusFetcher interface {
	Fetch(ctx context.Context, opts FetchOptions) (Snapshot, error)
}

var _ StatusFetcher = (*Client)(nil)

const (
	defaultBaseURL        = "127.0.0.1:7125"
	defaultUserAgent      = "klipperwatch/0.1"
	defaultRequestTimeout = 10 * time.Second

	objectsQueryPath = "/printer/objects/query"
	objectsQuery     = "webhooks&virtual_sdcard&print_stats"
	metadataPath     = "/server/files/metadata"
)

// ClientConfig configures NewClient.
type ClientConfig struct {
	// BaseURL is the Moonraker address; "host:port" gets an http:// scheme.
	BaseURL string
	// AccessClientID and AccessClientSecret are sent as Cloudflare Access
	// service token headers when both are set.
	AccessClientID     string
	AccessClientSecret string
	// Timeout bounds every request. Zero uses 10s.
	Timeout time.Duration
}

// Client talks to the Moonraker HTTP API. It never retries and never caches;
// every error it returns is a *Failure.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	accessID  string
	accessKey string
}

// NewClient builds a Client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		accessID:  strings.TrimSpace(cfg.AccessClientID),
		accessKey: strings.TrimSpace(cfg.AccessClientSecret),
	}, nil
}

// Fetch reads the current printer status. The file metadata request is only
// issued when opts.WithEstimate is set and a printing or paused job names a file.
func (c *Client) Fetch(ctx context.Context, opts FetchOptions) (Snapshot, error) {
	if c == nil {
		return Snapshot{}, &Failure{Kind: FailureTransport, Cause: "printer client is not configured"}
	}
	var payload objectsQueryResponse
	rel := &url.URL{Path: objectsQueryPath, RawQuery: objectsQuery}
	if err := c.get(ctx, rel, &payload); err != nil {
		return Snapshot{}, err
	}

	status := payload.Result.Status
	snap := Snapshot{
		PrinterReady: status.Webhooks.State == "ready",
		ReadyMessage: strings.TrimSpace(status.Webhooks.Message),
		PrintState:   status.PrintStats.State,
		FileName:     status.PrintStats.Filename,
		Progress:     clampProgress(status.VirtualSDCard.Progress),
		ErrorMessage: strings.TrimSpace(status.PrintStats.Message),
	}

	if opts.WithEstimate && snap.PrinterReady && snap.FileName != "" && needsEstimate(snap.PrintState) {
		est, err := c.estimatedTime(ctx, snap.FileName)
		if err != nil {
			return Snapshot{}, err
		}
		snap.EstimatedSeconds = est
	}
	return snap, nil
}

func needsEstimate(state string) bool {
	return state == "printing" || state == "paused"
}

func (c *Client) estimatedTime(ctx context.Context, filename string) (*float64, error) {
	values := url.Values{}
	values.Set("filename", filename)
	rel := &url.URL{Path: metadataPath, RawQuery: values.Encode()}
	var payload fileMetadataResponse
	if err := c.get(ctx, rel, &payload); err != nil {
		return nil, err
	}
	return payload.Result.EstimatedTime, nil
}

func (c *Client) get(ctx context.Context, rel *url.URL, dest any) error {
	reqURL := *c.baseURL
	reqURL.Path = c.baseURL.Path + rel.Path
	reqURL.RawQuery = rel.RawQuery
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return transportFailure(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.accessID != "" && c.accessKey != "" {
		req.Header.Set("CF-Access-Client-Id", c.accessID)
		req.Header.Set("CF-Access-Client-Secret", c.accessKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusFailure(resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return decodeFailure(err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse printer url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse printer url %q: missing host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
