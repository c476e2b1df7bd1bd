// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/aniket-tui/internal/model"
	"github.com/jeranaias/aniket-tui/internal/ui/styles"
	"github.com/jeranaias/aniket-tui/internal/util"
)

// Layout constants.
const (
	// sidebarWidth is the thread list width in the normal layout.
	sidebarWidth = 28
	// chromeHeight is the vertical space taken by header, input, and
	// status bar around the transcript.
	chromeHeight = 6
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	header := m.renderHeader()
	body := m.renderBody()
	input := m.renderInput()
	status := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, status)
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.opts.Persona + " AI Assistant")

	var meta string
	if th := m.selectedThread(); th != nil {
		meta = m.theme.HeaderMeta.Render(" - " + util.CollapseNewlines(th.Title))
	}

	return m.theme.Header.Width(m.width).Render(title + meta)
}

func (m *Model) renderBody() string {
	transcript := m.viewport.View()
	if m.showHelp {
		transcript = m.renderHelp()
	}

	if m.theme.GetLayoutMode() == styles.LayoutCompact {
		return transcript
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), transcript)
}

func (m *Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Chats"))
	b.WriteString("\n\n")

	itemWidth := sidebarWidth - 4
	for i, th := range m.threads {
		marker := "  "
		if th.Pinned {
			marker = m.theme.ThreadPinned.Render(styles.StatusIndicators.Pinned)
		}

		title := util.TruncateWidth(util.CollapseNewlines(th.Title), itemWidth)
		line := fmt.Sprintf("%s %s", marker, title)

		if i == m.selected {
			line = m.theme.ThreadSelected.Width(itemWidth + 3).Render(line)
		} else {
			line = m.theme.ThreadItem.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")

		count := m.theme.ThreadMeta.Render(fmt.Sprintf("   %d messages", len(th.Messages)))
		b.WriteString(count)
		b.WriteString("\n")
	}

	height := m.height - chromeHeight
	if height < 1 {
		height = 1
	}
	return m.theme.Sidebar.Width(sidebarWidth).Height(height).Render(b.String())
}

func (m *Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	if m.mode == modeRename {
		prompt = m.theme.InputPrompt.Render("rename: ")
	}
	return m.theme.InputContainer.Width(m.width - 2).Render(prompt + m.input.View())
}

func (m *Model) renderStatusBar() string {
	if m.thinking {
		return m.theme.StatusBar.Width(m.width).Render(
			m.spinner.View() + m.theme.ThinkingText.Render(m.opts.Persona+" is thinking..."))
	}

	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts,
			m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")

	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				m.theme.ShortcutKey.Render(util.PadWidth(h.Key, 12)),
				m.theme.ShortcutDesc.Render(h.Desc)))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.ThreadMeta.Render("  Press C-h to close help"))
	return b.String()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// transcriptWidth returns the viewport width for the current layout.
func (m *Model) transcriptWidth() int {
	w := m.width
	if m.theme.GetLayoutMode() == styles.LayoutNormal {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// syncViewport re-renders the active thread into the viewport and scrolls
// to the bottom.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript renders the active thread's messages as bubbles, plus
// the pending echo and any notice.
func (m *Model) renderTranscript() string {
	th := m.store.ActiveThread()
	if th == nil || (len(th.Messages) == 0 && m.pendingUser == "") {
		return m.theme.ThreadMeta.Render("\n  Start the conversation - say hi to " + m.opts.Persona + ".")
	}

	bubbleWidth := m.transcriptWidth() - 8
	if bubbleWidth < 16 {
		bubbleWidth = 16
	}

	var b strings.Builder
	for _, msg := range th.Messages {
		b.WriteString(m.renderMessage(msg, bubbleWidth))
		b.WriteString("\n")
	}

	if m.pendingUser != "" {
		b.WriteString(m.theme.UserBubble.MaxWidth(bubbleWidth).Render(m.pendingUser))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(m.theme.NoticeBubble.MaxWidth(bubbleWidth).Render(m.notice))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderMessage(msg model.Message, bubbleWidth int) string {
	var body string
	var bubble string

	switch msg.Role {
	case model.RoleUser:
		body = msg.Content
		bubble = m.theme.UserBubble.MaxWidth(bubbleWidth).Render(body)
	case model.RoleAssistant:
		if m.opts.Markdown {
			body = m.renderer.Render(msg.Content)
		} else {
			body = msg.Content
		}
		bubble = m.theme.AssistantBubble.MaxWidth(bubbleWidth).Render(body)
	default:
		bubble = m.theme.NoticeBubble.MaxWidth(bubbleWidth).Render(msg.Content)
	}

	if m.opts.ShowTimestamps {
		stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
		return stamp + "\n" + bubble
	}
	return bubble
}
