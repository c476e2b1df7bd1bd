// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jeranaias/aniket-tui/internal/cloud"
	"github.com/jeranaias/aniket-tui/internal/model"
	"github.com/jeranaias/aniket-tui/internal/storage"
	"github.com/jeranaias/aniket-tui/internal/store"
)

// capturedRequest records what the fake endpoint received.
type capturedRequest struct {
	auth     string
	messages []cloud.ChatMessage
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	return store.New(kv, store.Options{})
}

func completionJSON(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` +
		string(mustJSON(content)) + `}}]}`
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func decodeRequest(t *testing.T, r *http.Request) capturedRequest {
	t.Helper()
	var body cloud.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return capturedRequest{
		auth:     r.Header.Get("Authorization"),
		messages: body.Messages,
	}
}

func TestSend_Success(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = decodeRequest(t, r)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON("Hello! How can I help?")))
	}))
	defer server.Close()

	st := newTestStore(t)
	th := st.CreateThread()
	client := cloud.NewClient("").WithBaseURL(server.URL)
	ctrl := NewController(st, client, Config{APIKey: "sk-test"})

	res := ctrl.Send(context.Background(), th.ID, "What is Go?")
	if res.Err != nil {
		t.Fatalf("Send: %v", res.Err)
	}
	if res.Reply.Content != "Hello! How can I help?" {
		t.Errorf("reply = %q", res.Reply.Content)
	}
	if res.Notice != "" || res.UsedFallback {
		t.Errorf("unexpected fallback: notice=%q usedFallback=%v", res.Notice, res.UsedFallback)
	}

	if captured.auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", captured.auth)
	}
	if len(captured.messages) < 2 {
		t.Fatalf("got %d outbound messages", len(captured.messages))
	}
	if captured.messages[0].Role != "system" {
		t.Errorf("first outbound role = %q, want system", captured.messages[0].Role)
	}
	last := captured.messages[len(captured.messages)-1]
	if last.Role != "user" || !strings.Contains(last.Content, "What is Go?") {
		t.Errorf("final prompt = %+v", last)
	}

	got, _ := st.Thread(th.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("thread has %d messages, want user + assistant", len(got.Messages))
	}
	if got.Messages[0].Role != model.RoleUser || got.Messages[1].Role != model.RoleAssistant {
		t.Errorf("roles = %v, %v", got.Messages[0].Role, got.Messages[1].Role)
	}
}

func TestSend_EmptyMessage(t *testing.T) {
	st := newTestStore(t)
	th := st.CreateThread()
	ctrl := NewController(st, cloud.NewClient("x"), Config{APIKey: "x"})

	res := ctrl.Send(context.Background(), th.ID, "   \n\t ")
	if !errors.Is(res.Err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", res.Err)
	}
	got, _ := st.Thread(th.ID)
	if len(got.Messages) != 0 {
		t.Errorf("thread mutated on empty send: %d messages", len(got.Messages))
	}
}

func TestSend_UnknownThread(t *testing.T) {
	st := newTestStore(t)
	ctrl := NewController(st, cloud.NewClient("x"), Config{APIKey: "x"})

	res := ctrl.Send(context.Background(), "chat_nope", "hello")
	if !errors.Is(res.Err, ErrUnknownThread) {
		t.Fatalf("err = %v, want ErrUnknownThread", res.Err)
	}
}

func TestSend_ContextWindow(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = decodeRequest(t, r)
		w.Write([]byte(completionJSON("ok")))
	}))
	defer server.Close()

	st := newTestStore(t)
	th := st.CreateThread()
	for i := 0; i < 20; i++ {
		st.AppendMessage(th.ID, model.RoleUser, "filler")
		st.AppendMessage(th.ID, model.RoleAssistant, "ack")
	}

	client := cloud.NewClient("").WithBaseURL(server.URL)
	ctrl := NewController(st, client, Config{APIKey: "sk-test"})

	res := ctrl.Send(context.Background(), th.ID, "latest question")
	if res.Err != nil {
		t.Fatalf("Send: %v", res.Err)
	}

	// System prompt + the 10 most recent committed messages + final prompt.
	if len(captured.messages) != 12 {
		t.Fatalf("got %d outbound messages, want 12", len(captured.messages))
	}
	// The committed user message is inside the window; the final entry is
	// the heuristic-built prompt.
	window := captured.messages[1 : len(captured.messages)-1]
	if window[len(window)-1].Content != "latest question" {
		t.Errorf("newest window entry = %q", window[len(window)-1].Content)
	}
}

func TestSend_FallbackSuccess(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("Authorization") == "Bearer sk-broken" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"bad key"}}`))
			return
		}
		w.Write([]byte(completionJSON("fallback reply")))
	}))
	defer server.Close()

	st := newTestStore(t)
	th := st.CreateThread()
	client := cloud.NewClient("").WithBaseURL(server.URL)
	ctrl := NewController(st, client, Config{
		APIKey:      "sk-broken",
		FallbackKey: "sk-fallback",
	})

	res := ctrl.Send(context.Background(), th.ID, "hello")
	if res.Err != nil {
		t.Fatalf("Send: %v", res.Err)
	}
	if !res.UsedFallback {
		t.Error("UsedFallback = false")
	}
	if res.Notice == "" {
		t.Error("fallback success must carry a notice")
	}
	if res.Notice == res.Reply.Content {
		t.Error("notice must be distinguishable from the reply")
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("endpoint saw %d requests, want 2", got)
	}

	// Exactly one assistant message, not two; the notice is not persisted.
	got, _ := st.Thread(th.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("thread has %d messages, want 2", len(got.Messages))
	}
	if got.Messages[1].Content != "fallback reply" {
		t.Errorf("persisted reply = %q", got.Messages[1].Content)
	}
	for _, m := range got.Messages {
		if strings.Contains(m.Content, "fallback key was used") {
			t.Error("notice leaked into the thread")
		}
	}
}

func TestSend_FallbackFailureReportsFallbackError(t *testing.T) {
	// Primary key rejected with 401, fallback key rejected with 429: the
	// reported error and the persisted message reflect the fallback
	// attempt, the later of the two responses.
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("Authorization") == "Bearer sk-broken" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	st := newTestStore(t)
	th := st.CreateThread()
	client := cloud.NewClient("").WithBaseURL(server.URL)
	ctrl := NewController(st, client, Config{
		APIKey:      "sk-broken",
		FallbackKey: "sk-fallback",
	})

	res := ctrl.Send(context.Background(), th.ID, "hello")
	if !errors.Is(res.Err, cloud.ErrRateLimited) {
		t.Fatalf("Err = %v, want rate-limit classification from the fallback attempt", res.Err)
	}
	if res.UsedFallback {
		t.Error("UsedFallback = true on a failed fallback")
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("endpoint saw %d requests, want 2", got)
	}

	got, _ := st.Thread(th.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("thread has %d messages, want 2", len(got.Messages))
	}
	if !strings.Contains(got.Messages[1].Content, "Rate limit") {
		t.Errorf("persisted error = %q, want the rate-limit message", got.Messages[1].Content)
	}
}

func TestSend_NoFallbackWhenKeysMatch(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	st := newTestStore(t)
	th := st.CreateThread()
	client := cloud.NewClient("").WithBaseURL(server.URL)
	ctrl := NewController(st, client, Config{
		APIKey:      "sk-shared",
		FallbackKey: "sk-shared",
	})

	res := ctrl.Send(context.Background(), th.ID, "hello")
	if res.Err == nil {
		t.Fatal("expected failure")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("endpoint saw %d requests, want 1", got)
	}
}

func TestSend_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"invalid key", http.StatusUnauthorized, "Invalid API key"},
		{"rate limited", http.StatusTooManyRequests, "Rate limit exceeded"},
		{"server error", http.StatusBadGateway, "Server error"},
		{"other status", http.StatusNotFound, "API request failed with status 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			st := newTestStore(t)
			th := st.CreateThread()
			client := cloud.NewClient("").WithBaseURL(server.URL)
			ctrl := NewController(st, client, Config{APIKey: "sk-test"})

			res := ctrl.Send(context.Background(), th.ID, "hello")
			if res.Err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(res.Reply.Content, tt.want) {
				t.Errorf("reply = %q, want substring %q", res.Reply.Content, tt.want)
			}

			// The error text is the final committed mutation.
			got, _ := st.Thread(th.ID)
			if len(got.Messages) != 2 {
				t.Fatalf("thread has %d messages, want 2", len(got.Messages))
			}
			last := got.Messages[len(got.Messages)-1]
			if last.Role != model.RoleAssistant || last.Content != res.Reply.Content {
				t.Errorf("persisted error = %+v", last)
			}
		})
	}
}

func TestSend_NoCredential(t *testing.T) {
	st := newTestStore(t)
	th := st.CreateThread()
	ctrl := NewController(st, cloud.NewClient(""), Config{})

	res := ctrl.Send(context.Background(), th.ID, "hello")
	if !errors.Is(res.Err, cloud.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", res.Err)
	}
	if !strings.Contains(res.Reply.Content, "aniket auth") {
		t.Errorf("reply = %q, want setup instructions", res.Reply.Content)
	}
}

func TestSend_TransportErrorSkipsFallback(t *testing.T) {
	// A server that closes immediately produces a transport error, which
	// must not engage the fallback credential.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	st := newTestStore(t)
	th := st.CreateThread()
	client := cloud.NewClient("").WithBaseURL(server.URL)
	ctrl := NewController(st, client, Config{
		APIKey:      "sk-primary",
		FallbackKey: "sk-fallback",
	})

	res := ctrl.Send(context.Background(), th.ID, "hello")
	if res.Err == nil {
		t.Fatal("expected transport error")
	}
	if res.UsedFallback {
		t.Error("fallback engaged on a transport error")
	}
	if !strings.Contains(res.Reply.Content, "check your connection") {
		t.Errorf("reply = %q", res.Reply.Content)
	}
}

func TestHasCredential(t *testing.T) {
	st := newTestStore(t)
	client := cloud.NewClient("")

	if NewController(st, client, Config{}).HasCredential() {
		t.Error("empty config reports a credential")
	}
	if !NewController(st, client, Config{APIKey: "k"}).HasCredential() {
		t.Error("primary key not detected")
	}
	if !NewController(st, client, Config{FallbackKey: "k"}).HasCredential() {
		t.Error("fallback key not detected")
	}
}
