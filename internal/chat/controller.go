// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation controller.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/aniket-tui/internal/cloud"
	"github.com/jeranaias/aniket-tui/internal/model"
	"github.com/jeranaias/aniket-tui/internal/store"
)

// DefaultContextWindow is the number of recent messages sent as context.
const DefaultContextWindow = 10

// Controller errors.
var (
	// ErrEmptyMessage indicates the message was empty after trimming.
	ErrEmptyMessage = errors.New("empty message")

	// ErrUnknownThread indicates the thread ID does not exist.
	ErrUnknownThread = errors.New("unknown thread")
)

// fallbackNotice is shown when the custom credential failed but the
// fallback succeeded. It is reported alongside the reply, distinguishable
// from normal assistant output, and is not persisted to the thread.
const fallbackNotice = "Note: your custom API key failed, so the fallback key was used. " +
	"For better performance, please update your API key."

// Config configures a Controller.
type Config struct {
	// Persona is the assistant's name, used by the addressing heuristic.
	// Empty means DefaultPersona.
	Persona string

	// SystemPrompt is the fixed instruction prepended to every request.
	// Empty means DefaultSystemPrompt.
	SystemPrompt string

	// ContextWindow is how many recent messages accompany each request.
	// <= 0 means DefaultContextWindow.
	ContextWindow int

	// APIKey is the credential used for the first attempt.
	APIKey string

	// FallbackKey, when set and different from APIKey, is tried once after
	// a rejected first attempt. There is no further retry.
	FallbackKey string

	// Logger receives request diagnostics. The zero value discards.
	Logger zerolog.Logger
}

// Result reports the outcome of a send.
type Result struct {
	// Reply is the message appended to the thread: the assistant's answer
	// on success, or the user-facing error text on failure.
	Reply model.Message

	// Notice is an informational line for the UI (fallback credential
	// engaged). Empty when nothing noteworthy happened.
	Notice string

	// UsedFallback reports whether the fallback credential produced the
	// reply.
	UsedFallback bool

	// Err is the classified failure, nil on success. The reply text
	// already describes it for display.
	Err error
}

// Controller drives a conversation against the completion endpoint.
type Controller struct {
	store  *store.Store
	client *cloud.Client

	persona       string
	systemPrompt  string
	contextWindow int
	apiKey        string
	fallbackKey   string

	log zerolog.Logger
}

// NewController creates a conversation controller bound to a store and a
// cloud client.
func NewController(st *store.Store, client *cloud.Client, cfg Config) *Controller {
	persona := cfg.Persona
	if persona == "" {
		persona = DefaultPersona
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	window := cfg.ContextWindow
	if window <= 0 {
		window = DefaultContextWindow
	}

	return &Controller{
		store:         st,
		client:        client,
		persona:       persona,
		systemPrompt:  systemPrompt,
		contextWindow: window,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		fallbackKey:   strings.TrimSpace(cfg.FallbackKey),
		log:           cfg.Logger,
	}
}

// Persona returns the assistant's name.
func (c *Controller) Persona() string {
	return c.persona
}

// SetAPIKey replaces the primary credential (after the user updates it).
func (c *Controller) SetAPIKey(key string) {
	c.apiKey = strings.TrimSpace(key)
}

// HasCredential reports whether any credential is available for sends.
func (c *Controller) HasCredential() bool {
	return c.apiKey != "" || c.fallbackKey != ""
}

// =============================================================================
// SEND
// =============================================================================

// Send commits the user's message to the thread, dispatches one completion
// request (with at most one fallback-credential attempt), and appends the
// reply or the user-facing error text. The returned Result mirrors what was
// appended.
func (c *Controller) Send(ctx context.Context, threadID, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Err: ErrEmptyMessage}
	}

	// Commit the user message before anything goes on the wire, so the
	// thread is never missing what the user said.
	if _, ok := c.store.AppendMessage(threadID, model.RoleUser, text); !ok {
		return Result{Err: ErrUnknownThread}
	}

	messages := c.buildRequest(threadID, text)

	resp, usedFallback, err := c.dispatch(ctx, messages)
	if err != nil {
		reply, _ := c.store.AppendMessage(threadID, model.RoleAssistant, errorText(err))
		return Result{Reply: reply, Err: err}
	}

	content := resp.Content()
	if content == "" {
		err := errors.New("empty completion")
		reply, _ := c.store.AppendMessage(threadID, model.RoleAssistant, errorText(err))
		return Result{Reply: reply, Err: err}
	}

	reply, _ := c.store.AppendMessage(threadID, model.RoleAssistant, content)

	result := Result{Reply: reply, UsedFallback: usedFallback}
	if usedFallback {
		result.Notice = fallbackNotice
	}
	return result
}

// buildRequest assembles the outbound message sequence: the persona
// instruction, the recent history window (role and content only), and the
// final prompt - rewritten by the addressing heuristic when needed.
func (c *Controller) buildRequest(threadID, text string) []cloud.ChatMessage {
	messages := make([]cloud.ChatMessage, 0, c.contextWindow+2)
	messages = append(messages, cloud.NewSystemMessage(c.systemPrompt))

	if th, ok := c.store.Thread(threadID); ok {
		for _, msg := range th.Recent(c.contextWindow) {
			messages = append(messages, cloud.ChatMessage{
				Role:    msg.Role.String(),
				Content: msg.Content,
			})
		}
	}

	messages = append(messages, cloud.NewUserMessage(buildPrompt(text, c.persona)))
	return messages
}

// dispatch performs the two-attempt credential sequence: the primary key
// first, then - only when the endpoint rejected a custom key and a distinct
// fallback exists - exactly one attempt with the fallback. Transport
// failures never engage the fallback.
func (c *Controller) dispatch(ctx context.Context, messages []cloud.ChatMessage) (*cloud.ChatResponse, bool, error) {
	primary := c.apiKey
	if primary == "" {
		primary = c.fallbackKey
	}

	resp, err := c.client.ChatWithKey(ctx, primary, messages)
	if err == nil {
		return resp, false, nil
	}

	if !isStatusError(err) || c.fallbackKey == "" || primary == c.fallbackKey {
		return nil, false, err
	}

	c.log.Info().
		Str("key", cloud.Fingerprint(primary)).
		Str("fallback", cloud.Fingerprint(c.fallbackKey)).
		Msg("custom key rejected, trying fallback key")

	resp, fbErr := c.client.ChatWithKey(ctx, c.fallbackKey, messages)
	if fbErr != nil {
		// Both attempts failed; the fallback response is the one the user
		// acted on last, so its classification is what gets reported.
		return nil, false, fbErr
	}
	return resp, true, nil
}

// isStatusError reports whether the error came from a non-success HTTP
// status (as opposed to a transport or encoding failure).
func isStatusError(err error) bool {
	var reqErr *cloud.RequestError
	return errors.Is(err, cloud.ErrInvalidCredential) ||
		errors.Is(err, cloud.ErrRateLimited) ||
		errors.Is(err, cloud.ErrServerError) ||
		errors.As(err, &reqErr)
}

// errorText maps a failure to the user-facing message appended to the
// thread. Every failure path ends in visible text, never a silent drop.
func errorText(err error) string {
	var reqErr *cloud.RequestError
	switch {
	case errors.Is(err, cloud.ErrNotConfigured):
		return "No API key is configured. Get a free key from https://openrouter.ai/keys " +
			"and run 'aniket auth' to store it."
	case errors.Is(err, cloud.ErrInvalidCredential):
		return "Invalid API key. Please get a new API key from OpenRouter and update it " +
			"with 'aniket auth'."
	case errors.Is(err, cloud.ErrRateLimited):
		return "Rate limit exceeded. Please wait a moment and try again, or use your own API key."
	case errors.Is(err, cloud.ErrServerError):
		return "Server error. Please try again later."
	case errors.As(err, &reqErr):
		return fmt.Sprintf("API request failed with status %d. Please check your connection "+
			"and try again.", reqErr.Status)
	default:
		return "Sorry, I encountered an error. Please check your connection and try again."
	}
}
