// config_cmd.go - Configuration CLI commands for aniket.
//
// Command: config [subcommand]
// Short:   View and edit configuration
//
// Subcommands:
//   show (default)      Show current configuration (secrets redacted)
//   path                Print the config file path
//   get <key>           Get a configuration value
//   set <key> <value>   Set a configuration value and save
//   keys                List all configuration keys
//
// Examples:
//   aniket config show
//   aniket config get cloud.model
//   aniket config set chat.persona Nova
//   aniket config set ui.markdown false
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/aniket-tui/internal/config"
)

// =============================================================================
// CONFIG COMMAND HANDLER
// =============================================================================

// HandleConfigCommand dispatches the "config" subcommands.
func (a *App) HandleConfigCommand(args []string) error {
	parsed := NewArgParser(args)

	switch parsed.Subcommand() {
	case "", "show":
		return a.configShow()
	case "path":
		return a.configPath()
	case "get":
		return a.configGet(parsed)
	case "set":
		return a.configSet(parsed)
	case "keys":
		return a.configKeys()
	default:
		return NewValidationError("subcommand", parsed.Subcommand(),
			"expected show, path, get, set, or keys")
	}
}

// configShow prints the configuration with secrets redacted.
func (a *App) configShow() error {
	fmt.Println()
	fmt.Println(TitleStyle.Render("Configuration"))
	fmt.Println(a.Config.String())
	return nil
}

func (a *App) configPath() error {
	path, err := config.ConfigPath()
	if err != nil {
		return NewCommandError("config", "path", "failed to resolve config path", err)
	}
	fmt.Println(path)
	return nil
}

func (a *App) configGet(parsed *ArgParser) error {
	key := parsed.Positional(1)
	if key == "" {
		return ErrMissingArgument("key", "aniket config get cloud.model")
	}

	value, err := a.Config.Get(key)
	if err != nil {
		return err
	}

	// Never print key material, even through get.
	lower := strings.ToLower(key)
	if strings.Contains(lower, "key") {
		value = "[REDACTED]"
	}

	fmt.Printf("%v\n", value)
	return nil
}

func (a *App) configSet(parsed *ArgParser) error {
	key := parsed.Positional(1)
	if key == "" {
		return ErrMissingArgument("key", "aniket config set chat.persona Nova")
	}

	value := strings.Join(parsed.PositionalFrom(2), " ")
	if value == "" {
		// --flag=value styles end up in the flag map, not positionals.
		value = parsed.Flag(key)
	}
	if value == "" {
		return ErrMissingArgument("value", "aniket config set chat.persona Nova")
	}

	if err := a.Config.Set(key, value); err != nil {
		return err
	}

	if err := a.Config.Validate(); err != nil {
		return err
	}

	if err := config.Save(a.Config); err != nil {
		return NewCommandError("config", "set", "failed to save configuration", err)
	}

	fmt.Printf("%s %s = %v\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

func (a *App) configKeys() error {
	for _, key := range config.GetAllKeys() {
		fmt.Println(key)
	}
	return nil
}
