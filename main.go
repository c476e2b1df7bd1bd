// aniket - A terminal chat client for the Aniket AI assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/aniket-tui/internal/cli"
	"github.com/jeranaias/aniket-tui/internal/config"
	uichat "github.com/jeranaias/aniket-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	parsed := cli.Parse()

	// Version and help need no wiring at all.
	switch parsed.Command {
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitConfigError)
	}

	log, logFile := newLogger(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	app, err := cli.NewApp(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitGeneralError)
	}
	defer app.Close()

	if parsed.Command == cli.CmdTUI {
		runTUI(app, cfg, log)
		return
	}

	if err := app.Dispatch(parsed); err != nil {
		cli.DisplayError(err)
		os.Exit(cli.GetExitCode(err))
	}
}

// runTUI starts the full-screen bubbletea interface. The config file
// is watched while the TUI runs; valid edits to display settings are
// delivered into the program and take effect immediately.
func runTUI(app *cli.App, cfg *config.Config, log zerolog.Logger) {
	m := uichat.New(app.Store, app.Controller, uichat.Options{
		Persona:        cfg.Chat.Persona,
		Markdown:       cfg.UI.Markdown,
		ShowTimestamps: cfg.UI.ShowTimestamps,
		Logger:         log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	if path, err := config.ConfigPath(); err == nil {
		watcher, err := config.NewWatcher(path, func(next *config.Config) {
			log.Info().Msg("configuration reloaded")
			p.Send(uichat.ConfigReloadedMsg{
				Persona:        next.Chat.Persona,
				Markdown:       next.UI.Markdown,
				ShowTimestamps: next.UI.ShowTimestamps,
			})
		}, log)
		if err == nil {
			if err := watcher.Watch(); err == nil {
				defer watcher.Close()
			}
		}
	}

	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("tui exited with error")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitGeneralError)
	}
}

// newLogger builds the zerolog logger from the log config. Output goes
// to a file so it never corrupts the TUI; level "off" discards all.
func newLogger(cfg *config.Config) (zerolog.Logger, *os.File) {
	level := parseLevel(cfg.Log.Level)
	if level == zerolog.Disabled {
		return zerolog.Nop(), nil
	}

	path := cfg.Log.Path
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return zerolog.New(io.Discard), nil
		}
		path = filepath.Join(dir, "aniket.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return zerolog.New(io.Discard), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.New(io.Discard), nil
	}

	log := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return log, f
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
