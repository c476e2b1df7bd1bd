// session_cmd.go - Session management CLI commands for aniket.
//
// Command: session [subcommand]
// Short:   Manage saved chat sessions
// Aliases: sessions
//
// Subcommands:
//   list (default)      List all saved sessions (aliases: ls, l)
//   show <id>           Print a session transcript
//   export <id>         Export a session transcript
//   delete <id>         Delete a session
//   delete-all          Delete all sessions
//   stats               Show session statistics
//
// Examples:
//   aniket session                          List all sessions (default)
//   aniket session show 1                   Show first session
//   aniket session show abc123              Show session by ID prefix
//   aniket session export 1 --format json   Export as JSON
//   aniket session export 1 --format md     Export as Markdown
//   aniket session export 1 --output t.md   Write export to a file
//   aniket session delete 1 --confirm       Delete first session
//   aniket session delete-all --confirm     Delete all sessions
//
// Flags:
//   --format FORMAT     Export format: json, md, txt (default: txt)
//   --output FILE       Write export to a file instead of stdout
//   --confirm           Required for delete operations
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jeranaias/aniket-tui/internal/model"
	"github.com/jeranaias/aniket-tui/internal/util"
)

var exportFormats = []string{"json", "md", "txt"}

// =============================================================================
// SESSION COMMAND HANDLER
// =============================================================================

// HandleSessionCommand dispatches the "session" subcommands.
func (a *App) HandleSessionCommand(args []string) error {
	parsed := NewArgParser(args)

	switch parsed.Subcommand() {
	case "", "list", "ls", "l":
		return a.sessionList()
	case "show":
		return a.sessionShow(parsed)
	case "export":
		return a.sessionExport(parsed)
	case "delete":
		return a.sessionDelete(parsed)
	case "delete-all":
		return a.sessionDeleteAll(parsed)
	case "stats":
		return a.sessionStats()
	default:
		return NewValidationError("subcommand", parsed.Subcommand(),
			"expected list, show, export, delete, delete-all, or stats")
	}
}

// resolveThread finds a thread by list index (1-based) or ID prefix.
func (a *App) resolveThread(ref string) (*model.Thread, error) {
	if ref == "" {
		return nil, ErrMissingArgument("session id", "aniket session show 1")
	}

	threads := a.Store.ListThreads()

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(threads) {
			return nil, ErrNotFound("session", ref)
		}
		return threads[n-1], nil
	}

	for _, t := range threads {
		if strings.HasPrefix(t.ID, ref) {
			return t, nil
		}
	}

	return nil, ErrNotFound("session", ref)
}

// =============================================================================
// LIST
// =============================================================================

func (a *App) sessionList() error {
	threads := a.Store.ListThreads()

	fmt.Println()
	fmt.Println(TitleStyle.Render("Chat Sessions"))

	if len(threads) == 0 {
		fmt.Println(DimStyle.Render("No sessions yet. Run 'aniket' or 'aniket chat' to start one."))
		return nil
	}

	activeID := a.Store.ActiveID()

	for i, t := range threads {
		marker := " "
		if t.ID == activeID {
			marker = HighlightStyle.Render(">")
		}
		pin := " "
		if t.Pinned {
			pin = WarningStyle.Render("*")
		}
		fmt.Printf("%s %s %2d. %-24s %s %s\n",
			marker, pin, i+1,
			util.CollapseNewlines(t.Title),
			DimStyle.Render(fmt.Sprintf("%3d msgs", len(t.Messages))),
			DimStyle.Render(t.CreatedAt.Format("2006-01-02 15:04")))
	}

	fmt.Println()
	fmt.Printf("%s %d\n", LabelStyle.Render("Total:"), len(threads))
	return nil
}

// =============================================================================
// SHOW
// =============================================================================

func (a *App) sessionShow(parsed *ArgParser) error {
	thread, err := a.resolveThread(parsed.Positional(1))
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render(util.CollapseNewlines(thread.Title)))
	fmt.Printf("%s %s\n", LabelStyle.Render("ID:"), ValueStyle.Render(thread.ID))
	fmt.Printf("%s %s\n", LabelStyle.Render("Created:"),
		ValueStyle.Render(thread.CreatedAt.Format("2006-01-02 15:04:05")))
	fmt.Printf("%s %d\n", LabelStyle.Render("Messages:"), len(thread.Messages))
	if thread.Pinned {
		fmt.Printf("%s %s\n", LabelStyle.Render("Pinned:"), WarningStyle.Render("yes"))
	}
	fmt.Println(RenderSeparator())

	for _, msg := range thread.Messages {
		name := roleName(msg.Role, a.Controller.Persona())
		fmt.Printf("\n%s %s\n%s\n",
			SectionStyle.Render(name),
			DimStyle.Render(msg.Timestamp.Format("15:04:05")),
			msg.Content)
	}

	fmt.Println()
	return nil
}

func roleName(role model.Role, persona string) string {
	switch role {
	case model.RoleUser:
		return "You"
	case model.RoleAssistant:
		return persona
	default:
		return string(role)
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func (a *App) sessionExport(parsed *ArgParser) error {
	thread, err := a.resolveThread(parsed.Positional(1))
	if err != nil {
		return err
	}

	format := strings.ToLower(parsed.FlagOrDefault("format", "txt"))

	var out string
	switch format {
	case "json":
		data, err := json.MarshalIndent(thread, "", "  ")
		if err != nil {
			return NewCommandError("session", "export", "failed to encode session", err)
		}
		out = string(data)
	case "md":
		out = exportMarkdown(thread, a.Controller.Persona())
	case "txt":
		out = exportText(thread, a.Controller.Persona())
	default:
		return ErrUnsupportedFormat(format, exportFormats)
	}

	if path := parsed.Flag("output"); path != "" {
		if err := os.WriteFile(path, []byte(out+"\n"), 0600); err != nil {
			return NewCommandError("session", "export", "failed to write file", err)
		}
		fmt.Printf("%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)
		return nil
	}

	fmt.Println(out)
	return nil
}

func exportMarkdown(t *model.Thread, persona string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	fmt.Fprintf(&b, "- Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Messages: %d\n\n", len(t.Messages))

	for _, msg := range t.Messages {
		fmt.Fprintf(&b, "## %s (%s)\n\n%s\n\n",
			roleName(msg.Role, persona),
			msg.Timestamp.Format("15:04:05"),
			msg.Content)
	}

	return strings.TrimRight(b.String(), "\n")
}

func exportText(t *model.Thread, persona string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", t.Title)
	fmt.Fprintf(&b, "Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("-", 40))

	for _, msg := range t.Messages {
		fmt.Fprintf(&b, "[%s] %s:\n%s\n\n",
			msg.Timestamp.Format("15:04:05"),
			roleName(msg.Role, persona),
			msg.Content)
	}

	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// DELETE
// =============================================================================

func (a *App) sessionDelete(parsed *ArgParser) error {
	thread, err := a.resolveThread(parsed.Positional(1))
	if err != nil {
		return err
	}

	if !parsed.BoolFlag("confirm") {
		fmt.Printf("%s This will delete %q (%d messages).\n",
			WarningStyle.Render("[WARNING]"), thread.Title, len(thread.Messages))
		fmt.Println(DimStyle.Render("Re-run with --confirm to proceed."))
		return nil
	}

	a.Store.DeleteThread(thread.ID)
	fmt.Printf("%s Deleted session %q\n", SuccessStyle.Render("[OK]"), thread.Title)
	return nil
}

func (a *App) sessionDeleteAll(parsed *ArgParser) error {
	count := a.Store.Count()
	if count == 0 {
		fmt.Println(DimStyle.Render("No sessions to delete."))
		return nil
	}

	if !parsed.BoolFlag("confirm") {
		fmt.Printf("%s This will delete all %d sessions.\n",
			WarningStyle.Render("[WARNING]"), count)
		fmt.Println(DimStyle.Render("Re-run with --confirm to proceed."))
		return nil
	}

	for _, t := range a.Store.ListThreads() {
		a.Store.DeleteThread(t.ID)
	}
	fmt.Printf("%s Deleted %d sessions\n", SuccessStyle.Render("[OK]"), count)
	return nil
}

// =============================================================================
// STATS
// =============================================================================

func (a *App) sessionStats() error {
	threads := a.Store.ListThreads()

	var totalMessages, userMessages, assistantMessages, pinned int
	for _, t := range threads {
		totalMessages += len(t.Messages)
		if t.Pinned {
			pinned++
		}
		for _, msg := range t.Messages {
			switch msg.Role {
			case model.RoleUser:
				userMessages++
			case model.RoleAssistant:
				assistantMessages++
			}
		}
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Session Statistics"))
	fmt.Printf("%s %d\n", LabelStyle.Render("Sessions:"), len(threads))
	fmt.Printf("%s %d\n", LabelStyle.Render("Pinned:"), pinned)
	fmt.Printf("%s %d\n", LabelStyle.Render("Messages:"), totalMessages)
	fmt.Printf("%s %d\n", LabelStyle.Render("From you:"), userMessages)
	fmt.Printf("%s %d\n", LabelStyle.Render("Replies:"), assistantMessages)
	fmt.Println()
	return nil
}
