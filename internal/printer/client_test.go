package printer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const printingBody = `{"result":{"status":{
	"webhooks":{"state":"ready","message":"Printer is ready"},
	"print_stats":{"state":"printing","filename":"part one.gcode","message":""},
	"virtual_sdcard":{"progress":0.25}}}}`

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{BaseURL: srv.URL, AccessClientID: "id", AccessClientSecret: "secret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestParseBaseURL(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL: %v", err)
	}
	if u.Scheme != "http" || u.Host != defaultBaseURL {
		t.Fatalf("default url = %q", u.String())
	}
	u, err = parseBaseURL("https://printer.example.com/moonraker/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL: %v", err)
	}
	if u.Path != "/moonraker" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("expected error for url without host")
	}
}

func TestFetch_PrintingWithEstimate(t *testing.T) {
	var gotQuery, gotFile, gotID, gotSecret, gotUA string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("CF-Access-Client-Id")
		gotSecret = r.Header.Get("CF-Access-Client-Secret")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case objectsQueryPath:
			gotQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(printingBody))
		case metadataPath:
			gotFile = r.URL.Query().Get("filename")
			_, _ = w.Write([]byte(`{"result":{"estimated_time":3600}}`))
		default:
			http.NotFound(w, r)
		}
	}))

	snap, err := c.Fetch(context.Background(), FetchOptions{WithEstimate: true})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotQuery != objectsQuery {
		t.Fatalf("query = %q, want %q", gotQuery, objectsQuery)
	}
	if gotFile != "part one.gcode" {
		t.Fatalf("metadata filename = %q", gotFile)
	}
	if gotID != "id" || gotSecret != "secret" {
		t.Fatalf("access headers = %q/%q", gotID, gotSecret)
	}
	if !strings.HasPrefix(gotUA, "klipperwatch/") {
		t.Fatalf("User-Agent = %q", gotUA)
	}
	if !snap.PrinterReady || snap.PrintState != "printing" || snap.FileName != "part one.gcode" || snap.Progress != 0.25 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.EstimatedSeconds == nil || *snap.EstimatedSeconds != 3600 {
		t.Fatalf("estimate = %v, want 3600", snap.EstimatedSeconds)
	}
}

func TestFetch_SkipsMetadataWithoutEstimate(t *testing.T) {
	var metadataCalls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == metadataPath {
			metadataCalls.Add(1)
		}
		_, _ = w.Write([]byte(printingBody))
	}))
	snap, err := c.Fetch(context.Background(), FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if metadataCalls.Load() != 0 {
		t.Fatalf("metadata requested %d times, want 0", metadataCalls.Load())
	}
	if snap.EstimatedSeconds != nil {
		t.Fatalf("estimate = %v, want nil", *snap.EstimatedSeconds)
	}
}

func TestFetch_MissingEstimateIsNotAnError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == metadataPath {
			_, _ = w.Write([]byte(`{"result":{}}`))
			return
		}
		_, _ = w.Write([]byte(printingBody))
	}))
	snap, err := c.Fetch(context.Background(), FetchOptions{WithEstimate: true})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.EstimatedSeconds != nil {
		t.Fatalf("estimate = %v, want nil", *snap.EstimatedSeconds)
	}
}

func TestFetch_NotReady(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"status":{"webhooks":{"state":"shutdown","message":" MCU lost "},"print_stats":{"state":"error"},"virtual_sdcard":{"progress":1.5}}}}`))
	}))
	snap, err := c.Fetch(context.Background(), FetchOptions{WithEstimate: true})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.PrinterReady || snap.ReadyMessage != "MCU lost" {
		t.Fatalf("unexpected readiness: %+v", snap)
	}
	if snap.Progress != 1 {
		t.Fatalf("progress = %v, want clamped to 1", snap.Progress)
	}
}

func TestFetch_FailureMapping(t *testing.T) {
	cases := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind FailureKind
		wantCode int
	}{
		{"offline 530", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(StatusPrinterOffline) }, FailurePrinterOffline, 530},
		{"server error", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusInternalServerError) }, FailureStatus, 500},
		{"not found", http.NotFound, FailureStatus, 404},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("{not-json")) }, FailureDecode, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			_, err := c.Fetch(context.Background(), FetchOptions{})
			f, ok := AsFailure(err)
			if !ok {
				t.Fatalf("error %v (%T) is not a *Failure", err, err)
			}
			if f.Kind != tc.wantKind || f.StatusCode != tc.wantCode {
				t.Fatalf("failure = %+v, want kind=%s code=%d", f, tc.wantKind, tc.wantCode)
			}
			if f.Error() == "" {
				t.Fatalf("failure has empty cause")
			}
		})
	}
}

func TestFetch_OfflineCause(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(530) }))
	_, err := c.Fetch(context.Background(), FetchOptions{})
	if !IsPrinterOffline(err) {
		t.Fatalf("IsPrinterOffline(%v) = false", err)
	}
	if !strings.Contains(err.Error(), "530") {
		t.Fatalf("cause = %q, want it to mention 530", err.Error())
	}
}

func TestFetch_MetadataFailureIsFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == metadataPath {
			http.Error(w, "gone", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(printingBody))
	}))
	_, err := c.Fetch(context.Background(), FetchOptions{WithEstimate: true})
	f, ok := AsFailure(err)
	if !ok || f.StatusCode != http.StatusBadGateway {
		t.Fatalf("error = %v, want 502 failure", err)
	}
}

func TestFetch_TimeoutIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Fetch(context.Background(), FetchOptions{})
	f, ok := AsFailure(err)
	if !ok || f.Kind != FailureTransport {
		t.Fatalf("error = %v, want transport failure", err)
	}
}

func TestFetch_UnreachableHost(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "127.0.0.1:1", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Fetch(context.Background(), FetchOptions{})
	if _, ok := AsFailure(err); !ok {
		t.Fatalf("error = %v, want *Failure", err)
	}
}
