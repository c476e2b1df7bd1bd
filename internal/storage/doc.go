// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable key-value layer for aniket-tui.
//
// The application persists two blobs: the serialized thread collection under
// the "chats" key, and an optional override API credential under the
// "api-key" key. Two backends implement the KV interface:
//
//   - FileKV: one file per key under a base directory, written atomically
//     with fsync so a crash never leaves a partially written blob.
//   - SQLiteKV: a single-table SQLite store, useful when the state should
//     live in one file.
//
// Missing keys are not errors; corrupted backends degrade to empty reads at
// the caller's discretion. The application must stay usable with a broken
// storage layer.
package storage
