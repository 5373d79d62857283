package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStubGenerator(t *testing.T) {
	got := StubGenerator{}.Generate(context.Background(), "prompt")
	if !strings.Contains(got, "disabled") {
		t.Errorf("stub should report disabled state, got %q", got)
	}
}

func TestRemoteGenerator_success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: "the answer [1]"}}}})
	}))
	defer srv.Close()

	g := NewRemoteGenerator(RemoteConfig{BaseURL: srv.URL, Model: "m"})
	if got := g.Generate(context.Background(), "p"); got != "the answer [1]" {
		t.Errorf("got %q", got)
	}
}

func TestRemoteGenerator_failureReturnsDescriptiveString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewRemoteGenerator(RemoteConfig{BaseURL: srv.URL})
	got := g.Generate(context.Background(), "p")
	if !strings.Contains(got, "failed") {
		t.Errorf("expected descriptive failure string, got %q", got)
	}
}
