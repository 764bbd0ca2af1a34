package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/lookup-labs/doclookup/internal/index"
)

func newTestHandler() *Handler {
	return New(index.NewStore(), nil, nil)
}

func doRegister(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, req)
	return w
}

func doLookup(t *testing.T, h *Handler, word string) LookupResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lookup?word="+url.QueryEscape(word), nil)
	w := httptest.NewRecorder()
	h.Lookup(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup %q: status = %d, want 200", word, w.Code)
	}
	var resp LookupResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding lookup response: %v", err)
	}
	return resp
}

func TestRegisterThenLookup(t *testing.T) {
	h := newTestHandler()

	if w := doRegister(t, h, `{"name":"doc1","content":"hello world"}`); w.Code != http.StatusOK {
		t.Fatalf("register status = %d, want 200", w.Code)
	}
	if w := doRegister(t, h, `{"name":"doc2","content":"hello kotlin"}`); w.Code != http.StatusOK {
		t.Fatalf("register status = %d, want 200", w.Code)
	}

	resp := doLookup(t, h, "hello")
	if !reflect.DeepEqual(resp.Documents, []string{"doc1", "doc2"}) {
		t.Errorf("lookup hello = %v, want [doc1 doc2]", resp.Documents)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}

	resp = doLookup(t, h, "missing")
	if len(resp.Documents) != 0 {
		t.Errorf("lookup missing = %v, want empty", resp.Documents)
	}
}

func TestRegisterReportsReplacement(t *testing.T) {
	h := newTestHandler()

	w := doRegister(t, h, `{"name":"doc","content":"first"}`)
	var resp RegisterResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Replaced {
		t.Error("first registration reported replaced=true")
	}

	w = doRegister(t, h, `{"name":"doc","content":"second"}`)
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Replaced {
		t.Error("re-registration reported replaced=false")
	}

	if docs := doLookup(t, h, "first").Documents; len(docs) != 0 {
		t.Errorf("stale token still indexed after replacement: %v", docs)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"content":"text"}`, http.StatusBadRequest},
		{"missing content", `{"name":"doc"}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
		{"empty name ok", `{"name":"","content":"text"}`, http.StatusOK},
		{"empty content ok", `{"name":"doc","content":""}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			if w := doRegister(t, h, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	h := newTestHandler()
	doRegister(t, h, `{"name":"doc","content":"ephemeral"}`)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents?name=doc", nil)
	w := httptest.NewRecorder()
	h.Remove(w, req)

	var resp RemoveResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Removed {
		t.Error("remove of registered document reported removed=false")
	}
	if docs := doLookup(t, h, "ephemeral").Documents; len(docs) != 0 {
		t.Errorf("document still indexed after removal: %v", docs)
	}

	// Second remove is a no-op, not an error.
	w = httptest.NewRecorder()
	h.Remove(w, httptest.NewRequest(http.MethodDelete, "/api/v1/documents?name=doc", nil))
	if w.Code != http.StatusOK {
		t.Errorf("idempotent remove status = %d, want 200", w.Code)
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Removed {
		t.Error("second remove reported removed=true")
	}
}

func TestRemoveRequiresNameParameter(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()
	h.Remove(w, httptest.NewRequest(http.MethodDelete, "/api/v1/documents", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	// An empty name is still a valid document identifier.
	doRegister(t, h, `{"name":"","content":"nameless"}`)
	w = httptest.NewRecorder()
	h.Remove(w, httptest.NewRequest(http.MethodDelete, "/api/v1/documents?name=", nil))
	if w.Code != http.StatusOK {
		t.Errorf("empty-name remove status = %d, want 200", w.Code)
	}
	if docs := doLookup(t, h, "nameless").Documents; len(docs) != 0 {
		t.Errorf("empty-name document still indexed: %v", docs)
	}
}

func TestLookupRequiresWordParameter(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()
	h.Lookup(w, httptest.NewRequest(http.MethodGet, "/api/v1/lookup", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLookupNormalizesWord(t *testing.T) {
	h := newTestHandler()
	doRegister(t, h, `{"name":"doc","content":"Hello"}`)

	for _, word := range []string{"HELLO", "Hello", "hello"} {
		resp := doLookup(t, h, word)
		if !reflect.DeepEqual(resp.Documents, []string{"doc"}) {
			t.Errorf("lookup %q = %v, want [doc]", word, resp.Documents)
		}
		if resp.Token != "hello" {
			t.Errorf("token for %q = %q, want %q", word, resp.Token, "hello")
		}
	}
}

func TestClearEndpoint(t *testing.T) {
	h := newTestHandler()
	doRegister(t, h, `{"name":"doc","content":"something"}`)

	w := httptest.NewRecorder()
	h.Clear(w, httptest.NewRequest(http.MethodPost, "/api/v1/index/clear", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", w.Code)
	}
	if docs := doLookup(t, h, "something").Documents; len(docs) != 0 {
		t.Errorf("index not empty after clear: %v", docs)
	}
}

func TestStats(t *testing.T) {
	h := newTestHandler()
	doRegister(t, h, `{"name":"doc1","content":"alpha beta"}`)
	doRegister(t, h, `{"name":"doc2","content":"beta gamma"}`)

	w := httptest.NewRecorder()
	h.Stats(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	var resp StatsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if resp.Documents != 2 {
		t.Errorf("documents = %d, want 2", resp.Documents)
	}
	if resp.Terms != 3 {
		t.Errorf("terms = %d, want 3", resp.Terms)
	}
}
