package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"klipperwatch/internal/httpapi"
	"klipperwatch/internal/monitor"
	"klipperwatch/internal/notify"
	"klipperwatch/internal/printer"
)

// fakeMoonraker serves the two endpoints the printer client uses. The print
// state and the HTTP status can be changed while a test runs.
type fakeMoonraker struct {
	state    atomic.Value // string
	status   atomic.Int32
	progress atomic.Value // float64
	queries  atomic.Int32
}

func newFakeMoonraker(t *testing.T, state string) (*fakeMoonraker, *httptest.Server) {
	t.Helper()
	m := &fakeMoonraker{}
	m.state.Store(state)
	m.progress.Store(0.5)
	m.status.Store(http.StatusOK)
	srv := httptest.NewServer(m)
	t.Cleanup(srv.Close)
	return m, srv
}

func (m *fakeMoonraker) set(state string) { m.state.Store(state) }

func (m *fakeMoonraker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if code := int(m.status.Load()); code != http.StatusOK {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/server/files/metadata") {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"estimated_time": 3600}})
		return
	}
	m.queries.Add(1)
	_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"status": map[string]any{
		"webhooks":       map[string]any{"state": "ready", "message": "Printer is ready"},
		"print_stats":    map[string]any{"state": m.state.Load().(string), "filename": "cube.gcode", "message": ""},
		"virtual_sdcard": map[string]any{"progress": m.progress.Load().(float64)},
	}}})
}

// chatSink records what the monitor would have sent to the chat.
type chatSink struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func (c *chatSink) Send(_ context.Context, conversationID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msgs == nil {
		c.msgs = map[string][]string{}
	}
	c.msgs[conversationID] = append(c.msgs[conversationID], text)
	return nil
}

func (c *chatSink) get(conversationID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs[conversationID]...)
}

var _ notify.Sink = (*chatSink)(nil)

const (
	testInitialDelay = 20 * time.Millisecond
	testInterval     = 30 * time.Millisecond
)

// newStack wires the real printer client, monitor service and HTTP API
// against fake printer and chat endpoints, with short timings.
func newStack(t *testing.T, printerURL string) (*httptest.Server, *monitor.Service, *chatSink) {
	t.Helper()
	client, err := printer.NewClient(printer.ClientConfig{BaseURL: printerURL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("printer client: %v", err)
	}
	sink := &chatSink{}
	svc, err := monitor.NewService(monitor.Config{
		Fetcher:      client,
		Sink:         sink,
		InitialDelay: testInitialDelay,
		Interval:     testInterval,
	})
	if err != nil {
		t.Fatalf("monitor service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv, svc, sink
}

func do(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
