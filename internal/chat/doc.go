// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation controller.
//
// The controller sits between the session store and the cloud client: it
// commits the user's message, assembles the outbound request (persona
// instruction, recent history window, final prompt), dispatches exactly one
// completion request - with a single fallback-credential attempt when a
// custom key fails - and turns the response or error into the one
// additional message appended to the thread.
//
// The thread is never left half-updated: the user message commits before
// the request goes out, and the assistant reply (or the user-facing error
// text) is the only further mutation.
package chat
