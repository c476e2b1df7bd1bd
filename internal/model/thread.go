// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat threads and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/jeranaias/aniket-tui/internal/util"
)

// DefaultTitle is the title given to a freshly created thread, before the
// first user message derives a real one.
const DefaultTitle = "New Chat"

// DefaultMaxMessages is the maximum number of messages retained per thread.
// When exceeded, the oldest messages are evicted first.
const DefaultMaxMessages = 30

// titleMaxRunes is the derived-title length before the ellipsis is appended.
const titleMaxRunes = 20

// =============================================================================
// THREAD TYPE
// =============================================================================

// Thread holds a single chat conversation with its history and metadata.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	Pinned    bool      `json:"pinned"`
}

// NewThread creates a new thread with a generated ID, the default title,
// an empty history and the pin flag cleared.
func NewThread() *Thread {
	return &Thread{
		ID:        generateThreadID(),
		Title:     DefaultTitle,
		Messages:  make([]Message, 0),
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the thread, applying the title-derivation rule and
// the eviction cap. maxMessages <= 0 means DefaultMaxMessages.
//
// Eviction is oldest-first and drops only as many messages as needed to
// restore the bound. The title derives exactly once: from the first user
// message, while the title is still the default and at most one prior
// message exists.
func (t *Thread) Append(msg Message, maxMessages int) {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}

	t.Messages = append(t.Messages, msg)

	if excess := len(t.Messages) - maxMessages; excess > 0 {
		t.Messages = t.Messages[excess:]
	}

	if msg.Role == RoleUser && t.Title == DefaultTitle && len(t.Messages) <= 2 {
		t.Title = DeriveTitle(msg.Content)
	}
}

// DeriveTitle produces a thread title from message content: the raw
// content itself, or its first 20 runes plus an ellipsis when longer.
// No whitespace normalization here; displays collapse line breaks at
// render time.
func DeriveTitle(content string) string {
	if len([]rune(content)) <= titleMaxRunes {
		return content
	}
	return util.TruncateRunesNoEllipsis(content, titleMaxRunes) + "..."
}

// LastMessage returns the most recent message, or a zero Message when empty.
func (t *Thread) LastMessage() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// Recent returns up to n of the most recent messages in original order.
// The returned slice shares backing storage with the thread; callers must
// not mutate it.
func (t *Thread) Recent(n int) []Message {
	if n <= 0 || len(t.Messages) <= n {
		return t.Messages
	}
	return t.Messages[len(t.Messages)-n:]
}

// MessageCount returns the number of messages in the thread.
func (t *Thread) MessageCount() int {
	return len(t.Messages)
}

// IsEmpty reports whether the thread has no messages.
func (t *Thread) IsEmpty() bool {
	return len(t.Messages) == 0
}

// Preview returns a short single-line preview of the thread, based on the
// first user message.
func (t *Thread) Preview(maxRunes int) string {
	for _, msg := range t.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return msg.Preview(maxRunes)
		}
	}
	return "Empty chat"
}

// Clone creates a deep copy of the thread. Used to hand snapshots to the UI
// without exposing the store's internal state.
func (t *Thread) Clone() *Thread {
	clone := *t
	clone.Messages = make([]Message, len(t.Messages))
	copy(clone.Messages, t.Messages)
	return &clone
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateThreadID creates a unique thread ID. The ID is derived from the
// creation time (millisecond precision, like the IDs this store historically
// used) with a random suffix so threads created in the same millisecond
// stay distinct.
func generateThreadID() string {
	bytes := make([]byte, 4)
	rand.Read(bytes)
	millis := time.Now().UnixMilli()
	return "chat_" + strconv.FormatInt(millis, 10) + "_" + hex.EncodeToString(bytes)
}
