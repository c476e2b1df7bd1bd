// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat threads and messages.
//
// A Thread is a single persisted conversation: an ordered message history,
// a title, a creation timestamp and a pin flag. Messages are append-only
// except for bounded eviction - when the history cap is exceeded, the oldest
// messages are dropped first, never more than necessary.
//
// Thread identity is assigned at creation time and never changes or gets
// reused. Titles derive once from the first user message and are otherwise
// only changed by an explicit rename.
package model
