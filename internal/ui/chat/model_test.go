// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	chatctl "github.com/jeranaias/aniket-tui/internal/chat"
	"github.com/jeranaias/aniket-tui/internal/cloud"
	"github.com/jeranaias/aniket-tui/internal/model"
	"github.com/jeranaias/aniket-tui/internal/storage"
	"github.com/jeranaias/aniket-tui/internal/store"
)

func newTestModel(t *testing.T) (*Model, *store.Store) {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	st := store.New(kv, store.Options{})
	st.EnsureThread()

	ctrl := chatctl.NewController(st, cloud.NewClient(""), chatctl.Config{APIKey: "sk-test"})
	return New(st, ctrl, Options{}), st
}

func resize(m *Model, w, h int) {
	m.Update(tea.WindowSizeMsg{Width: w, Height: h})
}

func TestRefreshThreads_TracksActive(t *testing.T) {
	m, st := newTestModel(t)

	second := st.CreateThread()
	m.refreshThreads()

	sel := m.selectedThread()
	if sel == nil || sel.ID != second.ID {
		t.Fatalf("selected thread = %+v, want active %s", sel, second.ID)
	}
}

func TestSelectThread_Wraps(t *testing.T) {
	m, st := newTestModel(t)
	st.CreateThread()
	st.CreateThread()
	m.refreshThreads()
	resize(m, 100, 30)

	start := m.selected
	m.selectThread(1)
	if m.selected == start {
		t.Error("selectThread(1) did not move the cursor")
	}
	if got := m.store.ActiveID(); got != m.threads[m.selected].ID {
		t.Errorf("active thread %q does not follow cursor %q", got, m.threads[m.selected].ID)
	}

	// Wrap all the way around.
	for range m.threads {
		m.selectThread(1)
	}
	if m.selected != start+1 && m.selected >= len(m.threads) {
		t.Errorf("cursor out of range after wrap: %d", m.selected)
	}
}

func TestTranscript_ShowsMessages(t *testing.T) {
	m, st := newTestModel(t)
	resize(m, 100, 30)

	id := st.ActiveID()
	st.AppendMessage(id, model.RoleUser, "what is the weather")
	st.AppendMessage(id, model.RoleAssistant, "sunny with a chance of packets")

	out := m.renderTranscript()
	if !strings.Contains(out, "what is the weather") {
		t.Error("user message missing from transcript")
	}
	if !strings.Contains(out, "sunny with a chance of packets") {
		t.Error("assistant message missing from transcript")
	}
}

func TestTranscript_EmptyThread(t *testing.T) {
	m, _ := newTestModel(t)
	resize(m, 100, 30)

	out := m.renderTranscript()
	if !strings.Contains(out, "Start the conversation") {
		t.Errorf("empty-thread placeholder missing: %q", out)
	}
}

func TestSubmit_SetsThinkingAndEcho(t *testing.T) {
	m, _ := newTestModel(t)
	resize(m, 100, 30)

	m.input.SetValue("hello there")
	_, cmd := m.submitMessage()
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	if !m.thinking {
		t.Error("thinking flag not set")
	}
	if m.pendingUser != "hello there" {
		t.Errorf("pendingUser = %q", m.pendingUser)
	}
	if m.input.Value() != "" {
		t.Error("input not cleared after submit")
	}
	if !strings.Contains(m.renderTranscript(), "hello there") {
		t.Error("pending echo missing from transcript")
	}

	// A second submit while thinking is a no-op.
	m.input.SetValue("second")
	_, cmd = m.submitMessage()
	if cmd != nil {
		t.Error("submit while thinking dispatched a request")
	}
}

func TestSendResult_ClearsThinkingAndShowsNotice(t *testing.T) {
	m, st := newTestModel(t)
	resize(m, 100, 30)

	m.thinking = true
	m.pendingUser = "hi"

	id := st.ActiveID()
	st.AppendMessage(id, model.RoleUser, "hi")
	reply, _ := st.AppendMessage(id, model.RoleAssistant, "hello from fallback")

	m.handleSendResult(sendResultMsg{
		threadID: id,
		result:   chatctl.Result{Reply: reply, Notice: "fallback key was used", UsedFallback: true},
	})

	if m.thinking {
		t.Error("thinking flag not cleared")
	}
	if m.pendingUser != "" {
		t.Error("pending echo not cleared")
	}
	out := m.renderTranscript()
	if !strings.Contains(out, "hello from fallback") {
		t.Error("reply missing from transcript")
	}
	if !strings.Contains(out, "fallback key was used") {
		t.Error("notice missing from transcript")
	}
}

func TestConfigReloaded_AppliesDisplaySettings(t *testing.T) {
	m, st := newTestModel(t)
	resize(m, 100, 30)

	id := st.ActiveID()
	st.AppendMessage(id, model.RoleUser, "hi")
	st.AppendMessage(id, model.RoleAssistant, "hello")

	m.Update(ConfigReloadedMsg{
		Persona:        "Nova",
		Markdown:       false,
		ShowTimestamps: true,
	})

	if !strings.Contains(m.renderHeader(), "Nova AI Assistant") {
		t.Error("reloaded persona missing from header")
	}
	if m.opts.Markdown {
		t.Error("markdown setting not applied")
	}
	if !m.opts.ShowTimestamps {
		t.Error("timestamp setting not applied")
	}

	// Timestamps render in the transcript once enabled.
	stamp := st.ActiveThread().Messages[0].Timestamp.Format("15:04")
	if !strings.Contains(m.renderTranscript(), stamp) {
		t.Error("timestamps missing from transcript after reload")
	}

	// An empty persona keeps the current one rather than blanking the UI.
	m.Update(ConfigReloadedMsg{Persona: "", Markdown: false, ShowTimestamps: true})
	if m.opts.Persona != "Nova" {
		t.Errorf("persona = %q, want %q preserved", m.opts.Persona, "Nova")
	}
}

func TestStatusBar_Thinking(t *testing.T) {
	m, _ := newTestModel(t)
	resize(m, 100, 30)

	m.thinking = true
	if !strings.Contains(m.renderStatusBar(), "Aniket is thinking") {
		t.Error("thinking indicator missing from status bar")
	}

	m.thinking = false
	if strings.Contains(m.renderStatusBar(), "thinking") {
		t.Error("thinking indicator shown while idle")
	}
}
