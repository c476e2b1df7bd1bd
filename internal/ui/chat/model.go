// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/aniket-tui/internal/chat"
	"github.com/jeranaias/aniket-tui/internal/format"
	"github.com/jeranaias/aniket-tui/internal/model"
	"github.com/jeranaias/aniket-tui/internal/store"
	"github.com/jeranaias/aniket-tui/internal/ui/styles"
)

// =============================================================================
// INPUT MODES
// =============================================================================

// inputMode selects what the text input edits.
type inputMode int

const (
	// modeCompose: typing a message to send.
	modeCompose inputMode = iota
	// modeRename: editing the selected thread's title.
	modeRename
)

// =============================================================================
// MODEL
// =============================================================================

// Options configures the chat TUI.
type Options struct {
	// Persona is the assistant's display name.
	Persona string
	// Markdown renders assistant replies as styled markdown.
	Markdown bool
	// ShowTimestamps displays message timestamps in the transcript.
	ShowTimestamps bool
	// Logger receives UI diagnostics.
	Logger zerolog.Logger
}

// Model is the Bubble Tea model for the chat interface: a thread sidebar,
// a transcript viewport, and a message input.
type Model struct {
	store *store.Store
	ctrl  *chat.Controller
	opts  Options

	theme    *styles.Theme
	renderer *format.Renderer
	keys     KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// threads is the sidebar cache in display order (pinned first, newest
	// first). Refreshed from the store after every mutation.
	threads  []*model.Thread
	selected int

	mode     inputMode
	thinking bool
	// pendingUser echoes the just-sent message until the store commit is
	// visible in the send result.
	pendingUser string
	notice      string
	showHelp    bool
	ready       bool

	width  int
	height int

	log zerolog.Logger
}

// New creates the chat TUI model. The store must already have its active
// thread ensured.
func New(st *store.Store, ctrl *chat.Controller, opts Options) *Model {
	if opts.Persona == "" {
		opts.Persona = chat.DefaultPersona
	}

	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		store:    st,
		ctrl:     ctrl,
		opts:     opts,
		theme:    styles.NewTheme(),
		renderer: format.NewRenderer(0),
		keys:     DefaultKeyMap(),
		input:    input,
		spinner:  sp,
		log:      opts.Logger,
	}
	m.spinner.Style = m.theme.Spinner
	m.refreshThreads()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// refreshThreads reloads the sidebar from the store and re-selects the
// active thread.
func (m *Model) refreshThreads() {
	m.threads = m.store.ListThreads()
	activeID := m.store.ActiveID()
	m.selected = 0
	for i, th := range m.threads {
		if th.ID == activeID {
			m.selected = i
			break
		}
	}
}

// selectedThread returns the thread under the sidebar cursor, or nil.
func (m *Model) selectedThread() *model.Thread {
	if m.selected < 0 || m.selected >= len(m.threads) {
		return nil
	}
	return m.threads[m.selected]
}

// selectThread moves the sidebar cursor by delta and activates the thread
// under it. The transcript follows the active thread.
func (m *Model) selectThread(delta int) {
	if len(m.threads) == 0 {
		return
	}
	m.selected = (m.selected + delta + len(m.threads)) % len(m.threads)
	m.store.SetActive(m.threads[m.selected].ID)
	m.notice = ""
	m.syncViewport()
}
