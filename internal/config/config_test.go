// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "deepseek/deepseek-chat-v3.1:free", cfg.Cloud.Model)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Cloud.BaseURL)
	assert.Equal(t, "Aniket", cfg.Chat.Persona)
	assert.Equal(t, 10, cfg.Chat.ContextWindow)
	assert.Equal(t, 30, cfg.Chat.MaxMessages)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Empty(t, cfg.Cloud.APIKey, "defaults must not carry a credential")

	require.NoError(t, cfg.Validate())
}

func TestLoadFromPath_Missing(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Cloud.Model, cfg.Cloud.Model)
}

func TestLoadFromPath_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[chat]
persona = "Nova"
context_window = 5

[ui]
theme = "light"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "Nova", cfg.Chat.Persona)
	assert.Equal(t, 5, cfg.Chat.ContextWindow)
	assert.Equal(t, "light", cfg.UI.Theme)
	// Unset sections fall back to defaults.
	assert.Equal(t, Default().Cloud.Model, cfg.Cloud.Model)
	assert.Equal(t, Default().Chat.MaxMessages, cfg.Chat.MaxMessages)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"bad backend", "[storage]\nbackend = \"redis\"\n", "storage.backend"},
		{"bad theme", "[ui]\ntheme = \"solarized\"\n", "ui.theme"},
		{"bad window", "[chat]\ncontext_window = 500\n", "chat.context_window"},
		{"bad timeout", "[cloud]\ntimeout_secs = 9999\n", "cloud.timeout_secs"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := LoadFromPath(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadFromPath_FixesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-lowprec")
	t.Setenv("ANIKET_API_KEY", "sk-an-highprec")
	t.Setenv("ANIKET_MODEL", "meta-llama/llama-3-8b")
	t.Setenv("ANIKET_STORAGE", "sqlite")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "sk-an-highprec", cfg.Cloud.APIKey, "ANIKET_API_KEY wins over OPENROUTER_API_KEY")
	assert.Equal(t, "meta-llama/llama-3-8b", cfg.Cloud.Model)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Chat.Persona = "Nova"
	cfg.UI.CompactMode = true
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "Nova", loaded.Chat.Persona)
	assert.True(t, loaded.UI.CompactMode)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("chat.persona", "Nova"))
	got, err := cfg.Get("chat.persona")
	require.NoError(t, err)
	assert.Equal(t, "Nova", got)

	require.NoError(t, cfg.Set("chat.context_window", "15"))
	assert.Equal(t, 15, cfg.Chat.ContextWindow)

	require.NoError(t, cfg.Set("ui.compact_mode", "true"))
	assert.True(t, cfg.UI.CompactMode)

	_, err = cfg.Get("chat.no_such_field")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("nope.nope", "x"))
}

func TestGetAllKeys(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, "key %q", key)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Cloud.APIKey = "sk-secret"
	cfg.Cloud.FallbackKey = "sk-fallback"

	safe := cfg.Redacted()
	assert.Equal(t, "[REDACTED]", safe.Cloud.APIKey)
	assert.Equal(t, "[REDACTED]", safe.Cloud.FallbackKey)
	// Original untouched.
	assert.Equal(t, "sk-secret", cfg.Cloud.APIKey)

	rendered := cfg.String()
	assert.NotContains(t, rendered, "sk-secret")
	if !strings.Contains(rendered, "[REDACTED]") {
		t.Errorf("rendering does not mark redacted fields:\n%s", rendered)
	}
}
