// auth_cmd.go - API key management CLI commands for aniket.
//
// Command: auth [subcommand]
// Short:   Manage the OpenRouter API key
//
// Subcommands:
//   status (default)    Show whether a key is configured
//   login               Store an API key (prompted without echo)
//   logout              Remove the stored key
//   validate            Check the stored key against the API
//
// The key is stored in the local storage backend, never in plain
// config output. Only SHA-256 fingerprints are ever displayed or
// logged, never key material.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/aniket-tui/internal/cloud"
	"github.com/jeranaias/aniket-tui/internal/storage"
)

// =============================================================================
// AUTH COMMAND HANDLER
// =============================================================================

// HandleAuthCommand dispatches the "auth" subcommands.
func (a *App) HandleAuthCommand(args []string) error {
	parsed := NewArgParser(args)

	switch parsed.Subcommand() {
	case "", "status":
		return a.authStatus()
	case "login":
		return a.authLogin(parsed)
	case "logout":
		return a.authLogout()
	case "validate":
		return a.authValidate()
	default:
		return NewValidationError("subcommand", parsed.Subcommand(),
			"expected status, login, logout, or validate")
	}
}

// =============================================================================
// STATUS
// =============================================================================

func (a *App) authStatus() error {
	fmt.Println()
	fmt.Println(TitleStyle.Render("Credential Status"))

	if a.Config.Cloud.APIKey != "" {
		fmt.Printf("%s %s\n", LabelStyle.Render("Source:"),
			ValueStyle.Render("environment / config file"))
		fmt.Printf("%s %s\n", LabelStyle.Render("Fingerprint:"),
			DimStyle.Render(cloud.Fingerprint(a.Config.Cloud.APIKey)))
		fmt.Println()
		return nil
	}

	stored, ok, err := a.KV.Get(storage.KeyAPIKey)
	if err != nil {
		return NewCommandError("auth", "status", "failed to read stored key", err)
	}
	if ok && strings.TrimSpace(string(stored)) != "" {
		fmt.Printf("%s %s\n", LabelStyle.Render("Source:"),
			ValueStyle.Render("stored via 'aniket auth login'"))
		fmt.Printf("%s %s\n", LabelStyle.Render("Fingerprint:"),
			DimStyle.Render(cloud.Fingerprint(strings.TrimSpace(string(stored)))))
		fmt.Println()
		return nil
	}

	fmt.Printf("%s %s\n", LabelStyle.Render("Source:"),
		WarningStyle.Render("not configured"))
	fmt.Println()
	fmt.Println(DimStyle.Render("Get a free key at https://openrouter.ai/keys, then run 'aniket auth login'."))
	fmt.Println()
	return nil
}

// =============================================================================
// LOGIN
// =============================================================================

func (a *App) authLogin(parsed *ArgParser) error {
	apiKey := parsed.Flag("key")

	if apiKey == "" {
		if err := RequiresTTY("enter an API key"); err != nil {
			return err
		}

		fmt.Println()
		fmt.Print("Enter API key: ")
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return NewCommandError("auth", "login", "failed to read API key", err)
		}
		fmt.Println() // newline after hidden input
		apiKey = strings.TrimSpace(string(keyBytes))
	}

	if apiKey == "" {
		return NewValidationError("api key", "", "cannot be empty")
	}

	if !strings.HasPrefix(apiKey, "sk-or-") {
		fmt.Printf("%s Key does not look like an OpenRouter key (sk-or-...), storing anyway\n",
			WarningStyle.Render("[WARNING]"))
	}

	if err := a.KV.Set(storage.KeyAPIKey, []byte(apiKey)); err != nil {
		return NewCommandError("auth", "login", "failed to store API key", err)
	}

	a.Controller.SetAPIKey(apiKey)
	a.Log.Info().Str("key_fingerprint", cloud.Fingerprint(apiKey)).Msg("api key stored")

	fmt.Println()
	fmt.Printf("%s API key stored\n", SuccessStyle.Render("[OK]"))
	fmt.Printf("%s %s\n", LabelStyle.Render("Fingerprint:"),
		DimStyle.Render(cloud.Fingerprint(apiKey)))
	fmt.Println()
	return nil
}

// =============================================================================
// LOGOUT
// =============================================================================

func (a *App) authLogout() error {
	_, ok, err := a.KV.Get(storage.KeyAPIKey)
	if err != nil {
		return NewCommandError("auth", "logout", "failed to read stored key", err)
	}
	if !ok {
		fmt.Println()
		fmt.Println(DimStyle.Render("No stored API key to remove."))
		fmt.Println()
		return nil
	}

	if err := a.KV.Delete(storage.KeyAPIKey); err != nil {
		return NewCommandError("auth", "logout", "failed to remove API key", err)
	}

	a.Log.Info().Msg("api key removed")

	fmt.Println()
	fmt.Printf("%s API key removed\n", SuccessStyle.Render("[OK]"))
	fmt.Println()
	return nil
}

// =============================================================================
// VALIDATE
// =============================================================================

// authValidate checks the configured key by listing available models.
func (a *App) authValidate() error {
	if !a.Client.IsConfigured() {
		fmt.Println()
		fmt.Printf("%s No API key configured\n", ErrorStyle.Render("[ERROR]"))
		fmt.Println(DimStyle.Render("Run 'aniket auth login' to store one."))
		fmt.Println()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	models, err := a.Client.ListModels(ctx)
	if err != nil {
		fmt.Println()
		fmt.Printf("%s Key validation failed: %v\n", ErrorStyle.Render("[ERROR]"), err)
		fmt.Println()
		return nil
	}

	fmt.Println()
	fmt.Printf("%s API key is valid\n", SuccessStyle.Render("[OK]"))
	fmt.Printf("%s %s\n", LabelStyle.Render("Fingerprint:"),
		DimStyle.Render(a.Client.KeyFingerprint()))
	fmt.Printf("%s %d available\n", LabelStyle.Render("Models:"), len(models))
	fmt.Println()
	return nil
}
