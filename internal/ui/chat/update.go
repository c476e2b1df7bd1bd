// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sendResultMsg:
		return m.handleSendResult(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	transcriptWidth := m.transcriptWidth()
	transcriptHeight := msg.Height - chromeHeight
	if transcriptHeight < 1 {
		transcriptHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(transcriptWidth, transcriptHeight)
		m.ready = true
	} else {
		m.viewport.Width = transcriptWidth
		m.viewport.Height = transcriptHeight
	}
	m.input.Width = msg.Width - 6

	m.syncViewport()
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit always wins, even mid-request.
	if key.Matches(msg, m.keys.Quit) {
		m.store.Flush()
		return m, tea.Quit
	}

	if m.mode == modeRename {
		return m.handleRenameKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.showHelp = false
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.NewThread):
		m.store.CreateThread()
		m.notice = ""
		m.refreshThreads()
		m.syncViewport()
		return m, nil

	case key.Matches(msg, m.keys.DeleteThread):
		if th := m.selectedThread(); th != nil {
			m.store.DeleteThread(th.ID)
			m.notice = ""
			m.refreshThreads()
			m.syncViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.TogglePin):
		if th := m.selectedThread(); th != nil {
			m.store.TogglePin(th.ID)
			m.refreshThreads()
		}
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		if th := m.selectedThread(); th != nil {
			m.mode = modeRename
			m.input.SetValue(th.Title)
			m.input.CursorEnd()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextThread):
		m.selectThread(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevThread):
		m.selectThread(-1)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitMessage()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeCompose
		m.input.SetValue("")
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if th := m.selectedThread(); th != nil {
			m.store.RenameThread(th.ID, m.input.Value())
			m.refreshThreads()
		}
		m.mode = modeCompose
		m.input.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitMessage commits the typed message and fires the completion request.
// One request at a time; input is ignored while a reply is pending.
func (m *Model) submitMessage() (tea.Model, tea.Cmd) {
	if m.thinking {
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	th := m.store.EnsureThread()
	m.input.SetValue("")
	m.notice = ""
	m.thinking = true

	// Echo the message into the transcript immediately; the store copy
	// replaces it when the send result arrives.
	m.pendingUser = text
	m.refreshThreads()
	m.syncViewport()

	return m, tea.Batch(
		m.spinner.Tick,
		sendCmd(m.ctrl, th.ID, text),
	)
}

// handleConfigReloaded applies edited display settings and re-renders
// the transcript so persona, markdown, and timestamp changes show up
// without a restart.
func (m *Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Persona != "" {
		m.opts.Persona = msg.Persona
	}
	m.opts.Markdown = msg.Markdown
	m.opts.ShowTimestamps = msg.ShowTimestamps

	m.log.Info().Str("persona", m.opts.Persona).Msg("display settings reloaded")

	m.refreshThreads()
	m.syncViewport()
	return m, nil
}

func (m *Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.thinking = false
	m.pendingUser = ""
	m.notice = msg.result.Notice

	if msg.result.Err != nil {
		m.log.Warn().Err(msg.result.Err).Str("thread", msg.threadID).Msg("send failed")
	}

	m.refreshThreads()
	m.syncViewport()
	return m, nil
}
