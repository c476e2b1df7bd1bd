// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud implements the OpenRouter chat-completions client.
//
// OpenRouter fronts many hosted models behind one OpenAI-compatible API.
// The client sends a single non-streaming completion request per call and
// classifies failures into a small taxonomy the conversation layer can turn
// into user-facing messages:
//
//   - ErrInvalidCredential: the bearer key was rejected (HTTP 401)
//   - ErrRateLimited: too many requests (HTTP 429)
//   - ErrServerError: upstream failure (HTTP 5xx)
//   - RequestError: any other non-success status
//
// The client never retries on its own; the conversation layer owns the
// one-shot fallback-credential policy. Credentials are logged only as
// SHA-256 fingerprints, never as key material.
package cloud
