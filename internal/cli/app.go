// app.go - Application wiring shared by every aniket entry point.
//
// App assembles the storage backend, session store, API client, and
// conversation controller from a loaded configuration, then dispatches
// the parsed command. main.go constructs exactly one App per run.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/aniket-tui/internal/chat"
	"github.com/jeranaias/aniket-tui/internal/cloud"
	"github.com/jeranaias/aniket-tui/internal/config"
	"github.com/jeranaias/aniket-tui/internal/storage"
	"github.com/jeranaias/aniket-tui/internal/store"
)

// =============================================================================
// APP
// =============================================================================

// App holds the wired components every command operates on.
type App struct {
	Config     *config.Config
	KV         storage.KV
	Store      *store.Store
	Client     *cloud.Client
	Controller *chat.Controller
	Log        zerolog.Logger
}

// NewApp wires up storage, store, client, and controller from cfg.
// The credential resolution order is: environment / config file first,
// then the key stored via 'aniket auth login'.
func NewApp(cfg *config.Config, log zerolog.Logger) (*App, error) {
	kv, err := openKV(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	st := store.New(kv, store.Options{
		MaxMessages: cfg.Chat.MaxMessages,
		Logger:      log,
	})

	apiKey := resolveAPIKey(cfg, kv, log)

	client := cloud.NewClient(apiKey).
		WithBaseURL(cfg.Cloud.BaseURL).
		WithModel(cfg.Cloud.Model).
		WithTimeout(time.Duration(cfg.Cloud.TimeoutSecs) * time.Second).
		WithLogger(log)

	ctrl := chat.NewController(st, client, chat.Config{
		Persona:       cfg.Chat.Persona,
		SystemPrompt:  cfg.Chat.SystemPrompt,
		ContextWindow: cfg.Chat.ContextWindow,
		APIKey:        apiKey,
		FallbackKey:   cfg.Cloud.FallbackKey,
		Logger:        log,
	})

	log.Debug().
		Str("backend", cfg.Storage.Backend).
		Str("model", cfg.Cloud.Model).
		Str("key_fingerprint", cloud.Fingerprint(apiKey)).
		Msg("application wired")

	return &App{
		Config:     cfg,
		KV:         kv,
		Store:      st,
		Client:     client,
		Controller: ctrl,
		Log:        log,
	}, nil
}

// Close flushes pending writes and releases the storage backend.
func (a *App) Close() error {
	a.Store.Flush()
	return a.KV.Close()
}

// openKV creates the storage backend named by the config.
func openKV(cfg *config.Config) (storage.KV, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Storage.Backend) {
	case "sqlite":
		path := cfg.Storage.Path
		if path == "" {
			path = filepath.Join(dir, "aniket.db")
		}
		return storage.NewSQLiteKV(path)
	default:
		path := cfg.Storage.Path
		if path == "" {
			path = filepath.Join(dir, "data")
		}
		return storage.NewFileKV(path)
	}
}

// resolveAPIKey picks the credential for this run. Environment and
// config file values win over the key stored through 'aniket auth'.
func resolveAPIKey(cfg *config.Config, kv storage.KV, log zerolog.Logger) string {
	if cfg.Cloud.APIKey != "" {
		return cfg.Cloud.APIKey
	}

	data, ok, err := kv.Get(storage.KeyAPIKey)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read stored API key")
		return ""
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch runs the parsed command and returns its error, if any.
// CmdTUI is handled by the caller because it owns the terminal.
func (a *App) Dispatch(parsed ParsedArgs) error {
	switch parsed.Command {
	case CmdChat:
		return a.HandleChatCommand()
	case CmdSession:
		return a.HandleSessionCommand(parsed.Args)
	case CmdAuth:
		return a.HandleAuthCommand(parsed.Args)
	case CmdConfig:
		return a.HandleConfigCommand(parsed.Args)
	case CmdStatus:
		return a.HandleStatusCommand()
	case CmdVersion:
		PrintVersion()
		return nil
	case CmdHelp:
		PrintUsage()
		return nil
	case CmdUnknown:
		PrintUsage()
		return NewValidationError("command", strings.Join(parsed.Args, " "), "unknown command")
	default:
		return nil
	}
}
