// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/aniket-tui/internal/chat"
)

// =============================================================================
// TEA MESSAGES
// =============================================================================

// sendResultMsg carries the outcome of a completion request back into the
// update loop.
type sendResultMsg struct {
	threadID string
	result   chat.Result
}

// ConfigReloadedMsg delivers edited display settings into the running
// program. main sends one whenever the config file watcher sees a valid
// change; credential, model, and storage settings still need a restart.
type ConfigReloadedMsg struct {
	Persona        string
	Markdown       bool
	ShowTimestamps bool
}

// sendCmd dispatches the user's message through the conversation controller
// off the UI goroutine. The controller commits every mutation to the store;
// the UI only re-reads state when the result arrives.
func sendCmd(ctrl *chat.Controller, threadID, text string) tea.Cmd {
	return func() tea.Msg {
		result := ctrl.Send(context.Background(), threadID, text)
		return sendResultMsg{threadID: threadID, result: result}
	}
}
