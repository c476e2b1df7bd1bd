// status.go - Status command for aniket.
//
// Shows a one-screen summary of credentials, model, storage, and
// session counts so users can check their setup at a glance.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/aniket-tui/internal/config"
)

// HandleStatusCommand prints the setup summary.
func (a *App) HandleStatusCommand() error {
	fmt.Println()
	fmt.Println(TitleStyle.Render("aniket status"))

	fmt.Println(SectionStyle.Render("Cloud"))
	if a.Controller.HasCredential() {
		fmt.Printf("%s %s %s\n",
			LabelStyle.Render("API key:"),
			SuccessStyle.Render("[OK]"),
			DimStyle.Render(a.Client.KeyFingerprint()))
	} else {
		fmt.Printf("%s %s\n",
			LabelStyle.Render("API key:"),
			WarningStyle.Render("not configured (run 'aniket auth login')"))
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("Model:"), ValueStyle.Render(a.Client.Model()))
	fmt.Printf("%s %s\n", LabelStyle.Render("Base URL:"), ValueStyle.Render(a.Config.Cloud.BaseURL))

	fmt.Println(SectionStyle.Render("Storage"))
	fmt.Printf("%s %s\n", LabelStyle.Render("Backend:"), ValueStyle.Render(a.Config.Storage.Backend))
	fmt.Printf("%s %d\n", LabelStyle.Render("Sessions:"), a.Store.Count())

	if path, err := config.ConfigPath(); err == nil {
		fmt.Println(SectionStyle.Render("Config"))
		fmt.Printf("%s %s\n", LabelStyle.Render("File:"), DimStyle.Render(path))
	}

	fmt.Println()
	return nil
}
