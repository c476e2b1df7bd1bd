// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
)

func TestAddressesPersona(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"aniket, what time is it?", true},
		{"Hey Aniket", true},
		{"ANIKET HELP", true},
		{"tell aniket I said hi", true},
		{"hey there", true},
		{"hello world", true},
		{"hi", true},
		{"Hi, quick question", true},
		{"what is the capital of France?", false},
		// Prefix matching is deliberately naive: "hi" matches "high".
		{"high hopes", true},
		{"this is my thesis", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := addressesPersona(tt.text, DefaultPersona); got != tt.want {
			t.Errorf("addressesPersona(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestBuildPrompt_Verbatim(t *testing.T) {
	text := "Hey Aniket, summarize this for me"
	if got := buildPrompt(text, DefaultPersona); got != text {
		t.Errorf("buildPrompt = %q, want verbatim", got)
	}
}

func TestBuildPrompt_Wrapped(t *testing.T) {
	got := buildPrompt("what is Go?", DefaultPersona)
	want := `Respond as Aniket, an AI assistant. User says: "what is Go?"`
	if got != want {
		t.Errorf("buildPrompt = %q, want %q", got, want)
	}
}

func TestBuildPrompt_WrappedKeepsTextIntact(t *testing.T) {
	text := `she said "maybe" and left`
	got := buildPrompt(text, DefaultPersona)
	if !strings.Contains(got, text) {
		t.Errorf("wrapped prompt %q does not embed the text verbatim", got)
	}
}

func TestBuildPrompt_CustomPersona(t *testing.T) {
	got := buildPrompt("status report", "Nova")
	want := `Respond as Nova, an AI assistant. User says: "status report"`
	if got != want {
		t.Errorf("buildPrompt = %q, want %q", got, want)
	}

	if buildPrompt("nova, status report", "Nova") != "nova, status report" {
		t.Error("custom persona name not matched case-insensitively")
	}
}
