// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable key-value layer for aniket-tui.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jeranaias/aniket-tui/internal/util"
)

// Well-known storage keys.
const (
	// KeyChats holds the serialized thread collection.
	KeyChats = "chats"

	// KeyAPIKey holds the user-supplied override credential.
	KeyAPIKey = "api-key"
)

// ErrInvalidKey is returned when a key contains characters that cannot be
// mapped safely onto the backing store.
var ErrInvalidKey = errors.New("invalid storage key")

// validKey restricts keys to names that are safe as file names and SQL
// parameters alike.
var validKey = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// KV is a durable key-value store. Implementations must make Set durable
// before returning: a successful Set survives a process crash.
type KV interface {
	// Get returns the value for key. The second return is false when the
	// key does not exist; that is not an error.
	Get(key string) ([]byte, bool, error)

	// Set durably stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string) error

	// Close releases any resources held by the store.
	Close() error
}

// =============================================================================
// FILE-BACKED STORE
// =============================================================================

// FileKV stores each key as a file under a base directory.
type FileKV struct {
	baseDir string
}

// NewFileKV creates a file-backed store rooted at baseDir, creating the
// directory if needed.
func NewFileKV(baseDir string) (*FileKV, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileKV{baseDir: baseDir}, nil
}

// BaseDir returns the directory backing the store.
func (s *FileKV) BaseDir() string {
	return s.baseDir
}

// Get implements KV.
func (s *FileKV) Get(key string) ([]byte, bool, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return data, true, nil
}

// Set implements KV. The write is atomic with fsync, so a crash never leaves
// a partially written value.
func (s *FileKV) Set(key string, value []byte) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, value, 0600); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (s *FileKV) Delete(key string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Close implements KV. File stores hold no resources.
func (s *FileKV) Close() error {
	return nil
}

// keyPath maps a key to its backing file.
func (s *FileKV) keyPath(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, key+".json"), nil
}
