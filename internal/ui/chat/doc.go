// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat interface for aniket.
//
// The layout is a thread sidebar (pinned threads first, then newest first),
// a transcript viewport for the active thread, a message input, and a status
// bar. All conversation state lives in the store; the view is re-derived
// from it after every mutation, so the TUI never carries its own copy of a
// thread.
//
// Message sends run through the conversation controller off the UI
// goroutine. While a request is in flight the status bar shows a thinking
// indicator and the just-sent message is echoed into the transcript; the
// send result swaps the echo for the committed store copy and surfaces any
// fallback notice.
package chat
