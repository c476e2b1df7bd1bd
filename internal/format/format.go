// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format renders assistant replies for terminal display.
package format

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// defaultWrap is the word-wrap width for rendered markdown.
const defaultWrap = 80

// Renderer renders markdown content for terminal display. The zero value is
// not usable; call NewRenderer.
type Renderer struct {
	term *glamour.TermRenderer
	wrap int
}

// NewRenderer constructs a markdown renderer. A nil glamour renderer (init
// failure, dumb terminal) degrades to plain text rather than erroring.
func NewRenderer(wrap int) *Renderer {
	if wrap <= 0 {
		wrap = defaultWrap
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		tr = nil
	}

	return &Renderer{term: tr, wrap: wrap}
}

// Render renders markdown content for terminal display.
// Returns the original content if rendering fails or no renderer is available.
func (r *Renderer) Render(content string) string {
	if r.term == nil {
		return content
	}

	rendered, err := r.term.Render(content)
	if err != nil {
		return content
	}
	// Glamour pads output with blank lines; the transcript supplies its own
	// spacing.
	return strings.Trim(rendered, "\n")
}

// RenderPlain returns content unchanged. Used when markdown rendering is
// disabled in config or output is piped.
func (r *Renderer) RenderPlain(content string) string {
	return content
}

// IsStdoutTTY reports whether stdout is a terminal. Markdown styling is only
// applied on a TTY to avoid corrupting piped output.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
