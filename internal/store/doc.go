// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the collection of chat threads.
//
// The Store keeps every thread in memory, tracks which one is active, and
// synchronously persists the whole collection to the key-value layer on
// every mutation. It is constructed once at application start, passed by
// reference to whatever drives UI events, and flushed at shutdown - there
// is no package-level singleton.
//
// Invariants maintained here:
//   - thread IDs are unique and never reused
//   - the active ID, when set, always refers to an existing thread
//   - deleting the active thread atomically activates another thread, or
//     creates a fresh one when none remain
//   - per-thread history stays within the configured message cap
//
// A missing or corrupted persistence blob degrades to an empty store; it
// never crashes the application.
package store
