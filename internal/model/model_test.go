// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// THREAD TESTS
// =============================================================================

func TestNewThread(t *testing.T) {
	th := NewThread()

	if th.ID == "" {
		t.Error("expected non-empty ID")
	}
	if !strings.HasPrefix(th.ID, "chat_") {
		t.Errorf("ID should start with 'chat_', got %q", th.ID)
	}
	if th.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", th.Title, DefaultTitle)
	}
	if len(th.Messages) != 0 {
		t.Errorf("expected empty messages, got %d", len(th.Messages))
	}
	if th.Pinned {
		t.Error("expected Pinned to be false")
	}
	if th.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestNewThread_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		th := NewThread()
		if seen[th.ID] {
			t.Fatalf("duplicate thread ID: %s", th.ID)
		}
		seen[th.ID] = true
	}
}

func TestThread_Append_Eviction(t *testing.T) {
	th := NewThread()
	cap := 5

	for i := 0; i < 12; i++ {
		th.Append(NewMessage(RoleAssistant, "msg"+string(rune('a'+i))), cap)
	}

	if len(th.Messages) != cap {
		t.Fatalf("Messages length = %d, want %d", len(th.Messages), cap)
	}

	// Survivors must be exactly the most recent ones, in original order.
	want := []string{"msgh", "msgi", "msgj", "msgk", "msgl"}
	for i, msg := range th.Messages {
		if msg.Content != want[i] {
			t.Errorf("Messages[%d] = %q, want %q", i, msg.Content, want[i])
		}
	}
}

func TestThread_Append_NeverExceedsCap(t *testing.T) {
	th := NewThread()
	for i := 0; i < 100; i++ {
		th.Append(NewMessage(RoleUser, "x"), DefaultMaxMessages)
		if len(th.Messages) > DefaultMaxMessages {
			t.Fatalf("length %d exceeds cap %d after append %d", len(th.Messages), DefaultMaxMessages, i)
		}
	}
}

func TestThread_Append_DefaultCap(t *testing.T) {
	th := NewThread()
	for i := 0; i < DefaultMaxMessages+10; i++ {
		th.Append(NewMessage(RoleUser, "x"), 0)
	}
	if len(th.Messages) != DefaultMaxMessages {
		t.Errorf("length = %d, want %d", len(th.Messages), DefaultMaxMessages)
	}
}

// =============================================================================
// TITLE DERIVATION TESTS
// =============================================================================

func TestThread_TitleDerivation(t *testing.T) {
	th := NewThread()

	// 25 characters: title becomes the first 20 plus an ellipsis.
	content := "abcdefghijklmnopqrstuvwxy"
	th.Append(NewMessage(RoleUser, content), 0)

	want := "abcdefghijklmnopqrst..."
	if th.Title != want {
		t.Errorf("Title = %q, want %q", th.Title, want)
	}

	// A second user message does not change the title.
	th.Append(NewMessage(RoleAssistant, "reply"), 0)
	th.Append(NewMessage(RoleUser, "something completely different"), 0)
	if th.Title != want {
		t.Errorf("Title changed to %q after later messages, want %q", th.Title, want)
	}
}

func TestThread_TitleDerivation_ShortMessage(t *testing.T) {
	th := NewThread()
	th.Append(NewMessage(RoleUser, "short title"), 0)
	if th.Title != "short title" {
		t.Errorf("Title = %q, want %q", th.Title, "short title")
	}
}

func TestThread_TitleDerivation_NotFromAssistant(t *testing.T) {
	th := NewThread()
	th.Append(NewMessage(RoleAssistant, "greeting from the assistant"), 0)
	if th.Title != DefaultTitle {
		t.Errorf("Title = %q, want default after assistant message", th.Title)
	}

	// A user message following one assistant message still derives.
	th.Append(NewMessage(RoleUser, "hello"), 0)
	if th.Title != "hello" {
		t.Errorf("Title = %q, want %q", th.Title, "hello")
	}
}

func TestThread_TitleDerivation_TooLate(t *testing.T) {
	th := NewThread()
	th.Append(NewMessage(RoleAssistant, "one"), 0)
	th.Append(NewMessage(RoleAssistant, "two"), 0)

	// More than one prior message: the default title stays.
	th.Append(NewMessage(RoleUser, "late user message"), 0)
	if th.Title != DefaultTitle {
		t.Errorf("Title = %q, want default when derivation window passed", th.Title)
	}
}

func TestThread_TitleDerivation_RenamedThreadKeepsName(t *testing.T) {
	th := NewThread()
	th.Title = "my custom name"
	th.Append(NewMessage(RoleUser, "first user message"), 0)
	if th.Title != "my custom name" {
		t.Errorf("Title = %q, want custom name preserved", th.Title)
	}
}

func TestDeriveTitle_RawContentPreserved(t *testing.T) {
	// Titles come from the raw message content: no trimming, no newline
	// collapsing. Displays normalize at render time instead.
	tests := []struct {
		content string
		want    string
	}{
		{"first\nsecond", "first\nsecond"},
		{"  padded  ", "  padded  "},
		{"  a leading-space message beyond the cap", "  a leading-space me..."},
	}

	for _, tt := range tests {
		if got := DeriveTitle(tt.content); got != tt.want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

// =============================================================================
// ACCESSOR TESTS
// =============================================================================

func TestThread_Recent(t *testing.T) {
	th := NewThread()
	for i := 0; i < 15; i++ {
		th.Append(NewMessage(RoleUser, "m"), 0)
	}

	recent := th.Recent(10)
	if len(recent) != 10 {
		t.Errorf("Recent(10) length = %d, want 10", len(recent))
	}

	all := th.Recent(100)
	if len(all) != 15 {
		t.Errorf("Recent(100) length = %d, want 15", len(all))
	}
}

func TestThread_Clone(t *testing.T) {
	th := NewThread()
	th.Append(NewMessage(RoleUser, "original"), 0)

	clone := th.Clone()
	clone.Messages[0].Content = "mutated"
	clone.Title = "mutated title"

	if th.Messages[0].Content != "original" {
		t.Error("mutating clone affected original messages")
	}
	if th.Title == "mutated title" {
		t.Error("mutating clone affected original title")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewMessage(RoleUser, "line one\nline two that is fairly long")
	preview := msg.Preview(20)
	if strings.Contains(preview, "\n") {
		t.Errorf("preview contains newline: %q", preview)
	}
	if len([]rune(preview)) > 20 {
		t.Errorf("preview too long: %q", preview)
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem} {
		if !r.IsValid() {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if Role("tool").IsValid() {
		t.Error("expected unknown role to be invalid")
	}
}
