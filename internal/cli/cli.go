// Package cli implements aniket's command-line interface: the plain
// REPL, session management, credential storage, and config commands.
// Running aniket with no arguments launches the full-screen TUI.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"
)

// Build metadata, injected at link time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMAND TYPES
// =============================================================================

// Command represents a parsed CLI command.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdSession
	CmdAuth
	CmdConfig
	CmdStatus
	CmdVersion
	CmdHelp
	CmdUnknown
)

// ParsedArgs holds the parsed command-line arguments.
type ParsedArgs struct {
	Command Command
	Args    []string // remaining args after the command word
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args into a command. No arguments means the TUI.
func Parse() ParsedArgs {
	args := os.Args[1:]

	if len(args) == 0 {
		return ParsedArgs{Command: CmdTUI}
	}

	cmd := strings.ToLower(args[0])
	rest := args[1:]

	switch cmd {
	case "chat", "repl":
		return ParsedArgs{Command: CmdChat, Args: rest}
	case "session", "sessions":
		return ParsedArgs{Command: CmdSession, Args: rest}
	case "auth":
		return ParsedArgs{Command: CmdAuth, Args: rest}
	case "config":
		return ParsedArgs{Command: CmdConfig, Args: rest}
	case "status":
		return ParsedArgs{Command: CmdStatus, Args: rest}
	case "version", "--version", "-v":
		return ParsedArgs{Command: CmdVersion}
	case "help", "--help", "-h":
		return ParsedArgs{Command: CmdHelp}
	default:
		return ParsedArgs{Command: CmdUnknown, Args: args}
	}
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `aniket - terminal AI assistant

USAGE:
  aniket                     Launch the full-screen chat TUI
  aniket chat                Plain-terminal chat REPL
  aniket session <cmd>       Manage chat sessions
  aniket auth <cmd>          Manage the OpenRouter API key
  aniket config <cmd>        View and edit configuration
  aniket status              Show credential and storage status
  aniket version             Show version information
  aniket help                Show this help

SESSION COMMANDS:
  aniket session list                List all sessions
  aniket session show <id>           Print a session transcript
  aniket session export <id>         Export a session (--format json|md|txt)
  aniket session delete <id>         Delete a session (--confirm)
  aniket session delete-all          Delete all sessions (--confirm)
  aniket session stats               Show session statistics

AUTH COMMANDS:
  aniket auth status                 Show whether a key is configured
  aniket auth login                  Store an OpenRouter API key
  aniket auth logout                 Remove the stored key
  aniket auth validate               Check the stored key against the API

CONFIG COMMANDS:
  aniket config show                 Show current configuration
  aniket config path                 Print the config file path
  aniket config get <key>            Get a configuration value
  aniket config set <key> <value>    Set a configuration value

Get a free API key at https://openrouter.ai/keys, then run
'aniket auth login' to store it.
`

// PrintUsage prints the top-level usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version and build information.
func PrintVersion() {
	fmt.Printf("aniket %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
}
