package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"INFO":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	if got := requestLogLevel(r); got != defaultLogLevel {
		t.Fatalf("default level not used: %v", got)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := zlog
	SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	t.Cleanup(func() { zlog = prev })
	return &buf
}

func TestAccessLogWritesRequestLine(t *testing.T) {
	buf := captureLogs(t)
	SetAccessLogLevel("info")
	defer SetAccessLogLevel("info")

	do(t, NewMux(newMockService()), http.MethodGet, "/healthz")
	out := buf.String()
	for _, want := range []string{`"message":"request"`, `"path":"/healthz"`, `"status":200`, `"request_id"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in log: %q", want, out)
		}
	}
}

func TestAccessLogErrorLevelSkipsSuccess(t *testing.T) {
	buf := captureLogs(t)
	SetAccessLogLevel("error")
	defer SetAccessLogLevel("info")

	do(t, NewMux(newMockService()), http.MethodGet, "/healthz")
	if buf.Len() != 0 {
		t.Fatalf("expected no log line, got %q", buf.String())
	}
}
