package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var parsed struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]any         `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	if parsed.Info.Title != "klipperwatch API" {
		t.Fatalf("title=%q", parsed.Info.Title)
	}
	for _, p := range []string{"/monitors", "/monitors/{conversationID}", "/printer/status"} {
		if _, ok := parsed.Paths[p]; !ok {
			t.Fatalf("path %s missing from doc", p)
		}
	}
}

func TestSwaggerMounted(t *testing.T) {
	w := do(t, NewMux(newMockService()), http.MethodGet, "/swagger/doc.json")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !json.Valid(w.Body.Bytes()) {
		t.Fatalf("doc.json is not JSON")
	}
}
