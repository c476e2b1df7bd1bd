// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation controller.
package chat

import (
	"fmt"
	"strings"
)

// DefaultPersona is the assistant's name.
const DefaultPersona = "Aniket"

// DefaultSystemPrompt is the fixed instruction sent with every request.
const DefaultSystemPrompt = "You are Aniket, a helpful AI assistant. " +
	"Provide well-structured responses with clear paragraphs, bullet points " +
	"where appropriate, and summaries when relevant. Always respond as " +
	"Aniket when addressed by name."

// greetingTokens are the prefixes that count as addressing the assistant
// directly. The set is deliberately small and fixed.
var greetingTokens = []string{"hey", "hello", "hi"}

// addressesPersona reports whether the message addresses the assistant:
// it mentions the persona name anywhere, or opens with a greeting token.
func addressesPersona(text, persona string) bool {
	lower := strings.ToLower(text)
	if persona != "" && strings.Contains(lower, strings.ToLower(persona)) {
		return true
	}
	for _, token := range greetingTokens {
		if strings.HasPrefix(lower, token) {
			return true
		}
	}
	return false
}

// buildPrompt returns the final user prompt for the request. Messages that
// address the persona go out verbatim; anything else is wrapped in an
// in-persona instruction embedding the original text unchanged.
func buildPrompt(text, persona string) string {
	if addressesPersona(text, persona) {
		return text
	}
	return fmt.Sprintf(`Respond as %s, an AI assistant. User says: "%s"`, persona, text)
}
