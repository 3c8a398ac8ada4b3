package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient("test-key", "test-user", WithBaseURL(server.URL))
}

func TestCreateAgent(t *testing.T) {
	t.Run("prerequisites checked before network", func(t *testing.T) {
		var calls int
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
		})

		if _, err := client.CreateAgent(context.Background(), ""); !errors.Is(err, ErrNoDocumentText) {
			t.Errorf("expected ErrNoDocumentText, got %v", err)
		}

		missing := NewClient("", "", WithBaseURL("http://unused.invalid"))
		if _, err := missing.CreateAgent(context.Background(), "text"); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		if calls != 0 {
			t.Errorf("expected no requests, got %d", calls)
		}
	})

	t.Run("sends persona and knowledge", func(t *testing.T) {
		var got createAgentRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/agents" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("unexpected auth header %q", auth)
			}
			if uid := r.Header.Get("X-User-Id"); uid != "test-user" {
				t.Errorf("unexpected user header %q", uid)
			}

			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": "agent-abc123"}`))
		})

		id, err := client.CreateAgent(context.Background(), "page one text")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "agent-abc123" {
			t.Errorf("expected agent-abc123, got %q", id)
		}

		if got.DisplayName != "PDF Assistant" {
			t.Errorf("unexpected display name %q", got.DisplayName)
		}
		if got.CriticalKnowledge != "page one text" {
			t.Errorf("unexpected knowledge %q", got.CriticalKnowledge)
		}
		if got.Visibility != "private" {
			t.Errorf("unexpected visibility %q", got.Visibility)
		}
		if !got.AnswerOnlyFromCriticalKnowledge {
			t.Error("expected answerOnlyFromCriticalKnowledge true")
		}
		if got.VoiceSpeed != 1.0 {
			t.Errorf("unexpected voice speed %v", got.VoiceSpeed)
		}
		if !strings.HasPrefix(got.Voice, "s3://voice-cloning-zero-shot/") {
			t.Errorf("unexpected voice %q", got.Voice)
		}
		if !strings.Contains(got.Prompt, "critical knowledge") {
			t.Errorf("unexpected prompt %q", got.Prompt)
		}
		if !strings.Contains(got.Greeting, "press speak") {
			t.Errorf("unexpected greeting %q", got.Greeting)
		}
	})

	t.Run("api error carries status and body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("quota exceeded"))
		})

		_, err := client.CreateAgent(context.Background(), "text")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != 403 || !apiErr.IsUnauthorized() {
			t.Errorf("unexpected status %d", apiErr.StatusCode)
		}
		if !strings.Contains(apiErr.Message, "quota exceeded") {
			t.Errorf("expected body in message, got %q", apiErr.Message)
		}
	})
}

func TestGetAgent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/agents/agent-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "agent-1", "displayName": "PDF Assistant", "visibility": "private"}`))
	})

	agent, err := client.GetAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agent.ID != "agent-1" || agent.DisplayName != "PDF Assistant" {
		t.Errorf("unexpected agent %+v", agent)
	}

	t.Run("missing id", func(t *testing.T) {
		if _, err := client.GetAgent(context.Background(), ""); !errors.Is(err, ErrNoAgentID) {
			t.Errorf("expected ErrNoAgentID, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := client.GetAgent(context.Background(), "gone")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsNotFound() {
			t.Errorf("expected 404 APIError, got %v", err)
		}
	})
}

func TestUpdateAgent(t *testing.T) {
	var got updateAgentRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/agents/agent-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Write([]byte(`{"id": "agent-1"}`))
	})

	if err := client.UpdateAgent(context.Background(), "agent-1", "new knowledge"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CriticalKnowledge != "new knowledge" {
		t.Errorf("unexpected knowledge %q", got.CriticalKnowledge)
	}
	if len(got.Prompt) > maxPromptLength {
		t.Errorf("prompt exceeds limit: %d bytes", len(got.Prompt))
	}
	if got.Prompt == "" {
		t.Error("expected prompt to be resent")
	}

	t.Run("empty text rejected", func(t *testing.T) {
		if err := client.UpdateAgent(context.Background(), "agent-1", ""); !errors.Is(err, ErrNoDocumentText) {
			t.Errorf("expected ErrNoDocumentText, got %v", err)
		}
	})
}

func TestDeleteAgent(t *testing.T) {
	var called bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.Method != http.MethodDelete || r.URL.Path != "/agents/agent-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteAgent(context.Background(), "agent-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected a delete request")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("short string changed: %q", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
	// Multi-byte runes are never split.
	if got := truncate("héllo", 2); got != "h" {
		t.Errorf("expected h, got %q", got)
	}
}
