// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the collection of chat threads.
package store

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/aniket-tui/internal/model"
	"github.com/jeranaias/aniket-tui/internal/storage"
)

// blobVersion marks the persisted schema so later versions can migrate.
const blobVersion = 1

// chatsBlob is the persisted form of the store: the full thread mapping
// plus the active thread reference.
type chatsBlob struct {
	Version  int                      `json:"version"`
	ActiveID string                   `json:"active_id,omitempty"`
	Threads  map[string]*model.Thread `json:"threads"`
}

// Options configures a Store.
type Options struct {
	// MaxMessages is the per-thread history cap; <= 0 means
	// model.DefaultMaxMessages.
	MaxMessages int

	// Logger receives persistence diagnostics. The zero value discards.
	Logger zerolog.Logger
}

// Store holds all chat threads and the active-thread pointer.
//
// All methods are safe for concurrent use; a single mutex serializes
// mutation and persistence so readers never observe a half-applied change.
type Store struct {
	mu sync.Mutex

	kv       storage.KV
	threads  map[string]*model.Thread
	activeID string

	maxMessages int
	log         zerolog.Logger
}

// New creates a Store backed by kv and loads any previously persisted
// threads. A missing or corrupted blob logs a warning and yields an empty
// store; the caller can then create the first thread.
func New(kv storage.KV, opts Options) *Store {
	maxMessages := opts.MaxMessages
	if maxMessages <= 0 {
		maxMessages = model.DefaultMaxMessages
	}

	s := &Store{
		kv:          kv,
		threads:     make(map[string]*model.Thread),
		maxMessages: maxMessages,
		log:         opts.Logger,
	}
	s.load()
	return s
}

// load reads the chats blob from storage. Failures degrade to empty state.
func (s *Store) load() {
	data, ok, err := s.kv.Get(storage.KeyChats)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read chats from storage, starting empty")
		return
	}
	if !ok {
		return
	}

	var blob chatsBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		s.log.Warn().Err(err).Msg("corrupted chats blob, starting empty")
		return
	}

	for id, th := range blob.Threads {
		if th == nil || id == "" {
			continue
		}
		th.ID = id
		s.threads[id] = th
	}

	// The active reference must resolve to an existing thread. Fall back to
	// the newest thread when it does not (older blobs did not record it).
	if _, ok := s.threads[blob.ActiveID]; ok {
		s.activeID = blob.ActiveID
	} else if len(s.threads) > 0 {
		s.activeID = s.sortedIDsLocked()[0]
	}
}

// persistLocked serializes the full collection to storage. Called with the
// mutex held after every mutation. Write failures are logged, never fatal:
// the in-memory state stays authoritative and the app remains usable.
func (s *Store) persistLocked() {
	blob := chatsBlob{
		Version:  blobVersion,
		ActiveID: s.activeID,
		Threads:  s.threads,
	}

	data, err := json.Marshal(blob)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to serialize chats")
		return
	}
	if err := s.kv.Set(storage.KeyChats, data); err != nil {
		s.log.Error().Err(err).Msg("failed to persist chats")
	}
}

// =============================================================================
// THREAD LIFECYCLE
// =============================================================================

// CreateThread creates a fresh default thread, makes it active, persists,
// and returns a snapshot of it.
func (s *Store) CreateThread() *model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createThreadLocked()
}

func (s *Store) createThreadLocked() *model.Thread {
	th := model.NewThread()
	// IDs are time-derived; regenerate on the (unlikely) collision so an ID
	// is never reused.
	for {
		if _, exists := s.threads[th.ID]; !exists {
			break
		}
		th = model.NewThread()
	}
	s.threads[th.ID] = th
	s.activeID = th.ID
	s.persistLocked()
	return th.Clone()
}

// DeleteThread removes a thread. When the active thread is deleted, another
// remaining thread becomes active; when none remain, a fresh default thread
// is created and activated. Unknown IDs are a no-op.
func (s *Store) DeleteThread(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[id]; !ok {
		return
	}
	delete(s.threads, id)

	if s.activeID == id {
		if ids := s.sortedIDsLocked(); len(ids) > 0 {
			s.activeID = ids[0]
		} else {
			// createThreadLocked persists; done here to keep the delete and
			// the reassignment atomic under one lock.
			s.createThreadLocked()
			return
		}
	}
	s.persistLocked()
}

// RenameThread sets a thread's title. A title that trims to empty is a
// no-op, as is an unknown ID.
func (s *Store) RenameThread(id, newTitle string) {
	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		return
	}
	th.Title = newTitle
	s.persistLocked()
}

// TogglePin flips a thread's pinned flag. Unknown IDs are a no-op.
func (s *Store) TogglePin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		return
	}
	th.Pinned = !th.Pinned
	s.persistLocked()
}

// AppendMessage appends a message with the current timestamp to a thread,
// applying the eviction cap and the title-derivation rule, and persists.
// Unknown IDs are a no-op. Returns the appended message.
func (s *Store) AppendMessage(id string, role model.Role, content string) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		return model.Message{}, false
	}

	msg := model.NewMessage(role, content)
	th.Append(msg, s.maxMessages)
	s.persistLocked()
	return msg, true
}

// =============================================================================
// ACTIVE THREAD
// =============================================================================

// SetActive makes the given thread active. Unknown IDs are a silent no-op.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[id]; !ok {
		return
	}
	s.activeID = id
	s.persistLocked()
}

// ActiveID returns the active thread ID, or "" when the store is empty.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// ActiveThread returns a snapshot of the active thread, or nil when the
// store is empty.
func (s *Store) ActiveThread() *model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[s.activeID]
	if !ok {
		return nil
	}
	return th.Clone()
}

// EnsureThread guarantees at least one thread exists and is active,
// creating a fresh one for an empty store. Returns the active thread.
func (s *Store) EnsureThread() *model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	if th, ok := s.threads[s.activeID]; ok {
		return th.Clone()
	}
	return s.createThreadLocked()
}

// =============================================================================
// QUERIES
// =============================================================================

// Thread returns a snapshot of a thread by ID.
func (s *Store) Thread(id string) (*model.Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[id]
	if !ok {
		return nil, false
	}
	return th.Clone(), true
}

// Count returns the number of threads.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// ListThreads returns snapshots of all threads in display order: pinned
// threads first, then unpinned; within each group newest first, with equal
// timestamps broken by descending ID. The order is deterministic across
// calls with no intervening mutation.
func (s *Store) ListThreads() []*model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Thread, 0, len(s.threads))
	for _, id := range s.sortedIDsLocked() {
		out = append(out, s.threads[id].Clone())
	}
	return out
}

// sortedIDsLocked returns thread IDs in display order.
func (s *Store) sortedIDsLocked() []string {
	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, b := s.threads[ids[i]], s.threads[ids[j]]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return ids
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Flush forces a persistence write of the current state. Called at shutdown.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}
