// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// completionBody is a minimal valid completion response.
const completionBody = `{
	"id": "gen-1",
	"model": "deepseek/deepseek-chat-v3.1:free",
	"choices": [{
		"message": {"role": "assistant", "content": "hello from the model"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func newTestClient(serverURL string) *Client {
	return NewClient("sk-or-test-key").WithBaseURL(serverURL)
}

// =============================================================================
// REQUEST SHAPE TESTS
// =============================================================================

func TestChat_RequestShape(t *testing.T) {
	var captured ChatRequest
	var auth, referer, title string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		referer = r.Header.Get("HTTP-Referer")
		title = r.Header.Get("X-Title")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	messages := []ChatMessage{
		NewSystemMessage("you are a helpful assistant"),
		NewUserMessage("hi"),
	}

	resp, err := client.Chat(context.Background(), messages)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if auth != "Bearer sk-or-test-key" {
		t.Errorf("Authorization = %q, want bearer key", auth)
	}
	if referer == "" || title == "" {
		t.Error("expected HTTP-Referer and X-Title headers to be set")
	}
	if captured.Stream {
		t.Error("stream must always be false")
	}
	if captured.Model != DefaultModel {
		t.Errorf("model = %q, want %q", captured.Model, DefaultModel)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Errorf("unexpected message roles: %+v", captured.Messages)
	}

	if got := resp.Content(); got != "hello from the model" {
		t.Errorf("Content = %q, want first choice text", got)
	}
}

func TestChat_NotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestChatWithKey_OverridesKey(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ChatWithKey(context.Background(), "sk-or-fallback", []ChatMessage{NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("ChatWithKey failed: %v", err)
	}
	if auth != "Bearer sk-or-fallback" {
		t.Errorf("Authorization = %q, want fallback key", auth)
	}
}

// =============================================================================
// ERROR TAXONOMY TESTS
// =============================================================================

func TestChat_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, ErrInvalidCredential},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ``, ErrServerError},
		{"bad gateway", http.StatusBadGateway, `oops`, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestChat_GenericFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"model_not_found","message":"no such model"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError", err)
	}
	if reqErr.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", reqErr.Status)
	}
	if reqErr.Code != "model_not_found" {
		t.Errorf("Code = %q, want %q", reqErr.Code, "model_not_found")
	}
}

func TestChat_NoAutomaticRetry(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})

	if requests != 1 {
		t.Errorf("server saw %d requests, want exactly 1 (no retries)", requests)
	}
}

func TestChat_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(completionBody))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	client := newTestClient(server.URL)
	_, err := client.Chat(ctx, []ChatMessage{NewUserMessage("hi")})
	if err == nil {
		t.Error("expected an error after context deadline")
	}
}

// =============================================================================
// MISC TESTS
// =============================================================================

func TestFingerprint(t *testing.T) {
	if Fingerprint("") != "none" {
		t.Errorf("Fingerprint(\"\") = %q, want %q", Fingerprint(""), "none")
	}

	fp := Fingerprint("sk-or-secret")
	if len(fp) != 8 {
		t.Errorf("fingerprint length = %d, want 8 hex chars", len(fp))
	}
	if fp == "sk-or-se" {
		t.Error("fingerprint must not leak key material")
	}
	if Fingerprint("sk-or-secret") != fp {
		t.Error("fingerprint must be deterministic")
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want /models", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"deepseek/deepseek-chat-v3.1:free","name":"DeepSeek V3.1","context_length":64000}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 1 || models[0].ID != "deepseek/deepseek-chat-v3.1:free" {
		t.Errorf("unexpected models: %+v", models)
	}
}
