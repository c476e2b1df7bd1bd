// chat.go - Interactive chat command handler for the aniket CLI.
//
// Handles "aniket chat", a plain-terminal REPL for conversing with the
// assistant. Input goes through liner for readline-style line editing
// and persistent history; replies render as markdown when stdout is a
// terminal.
//
// Interactive commands (during chat):
//   /help, /h           Show available commands
//   /new                Start a new session
//   /list, /l           List sessions
//   /switch <n>         Switch to session number n from /list
//   /pin                Pin or unpin the current session
//   /rename <title>     Rename the current session
//   /delete             Delete the current session
//   /history            Show the current session transcript
//   /quit, /q           Exit chat
//   Ctrl+C, Ctrl+D      Exit chat
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/aniket-tui/internal/config"
	"github.com/jeranaias/aniket-tui/internal/format"
	"github.com/jeranaias/aniket-tui/internal/model"
	"github.com/jeranaias/aniket-tui/internal/ui/styles"
	"github.com/jeranaias/aniket-tui/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	noticeStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	replyNameStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()

	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Non-empty input is added to history for arrow-key navigation.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the interactive REPL against the active session.
func (a *App) HandleChatCommand() error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	thread := a.Store.EnsureThread()
	input := NewChatCLI()
	defer input.Close()

	renderer := format.NewRenderer(GetTerminalWidth())
	useMarkdown := a.Config.UI.Markdown && IsStdoutTTY()

	printChatWelcome(a, thread)

	for {
		line, err := input.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C (ErrPromptAborted), Ctrl+D (EOF): exit gracefully.
			fmt.Println()
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			shouldContinue, err := a.handleSlashCommand(line)
			if err != nil {
				DisplayError(err)
			}
			if !shouldContinue {
				fmt.Println(infoStyle.Render("Goodbye!"))
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		a.processChatMessage(line, renderer, useMarkdown)
	}
}

// processChatMessage sends one message and prints the reply.
// Errors surface as the assistant's reply text, matching the TUI.
func (a *App) processChatMessage(text string, renderer *format.Renderer, useMarkdown bool) {
	threadID := a.Store.ActiveID()

	fmt.Println()
	result := a.Controller.Send(context.Background(), threadID, text)

	if result.Notice != "" {
		fmt.Println(noticeStyle.Render(result.Notice))
		fmt.Println()
	}

	reply := result.Reply.Content
	if reply == "" && result.Err != nil {
		DisplayError(result.Err)
		return
	}

	fmt.Printf("%s\n", replyNameStyle.Render(a.Controller.Persona()+":"))
	if useMarkdown {
		fmt.Println(renderer.Render(reply))
	} else {
		fmt.Println(reply)
	}
	fmt.Println()
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns shouldContinue=false when the REPL should exit.
func (a *App) handleSlashCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/new", "/n":
		thread := a.Store.CreateThread()
		fmt.Printf("%s Started new session %s\n",
			commandStyle.Render("[OK]"), thread.ID)
		return true, nil

	case "/list", "/l":
		a.printThreadList()
		return true, nil

	case "/switch", "/sw":
		return true, a.switchThread(args)

	case "/pin", "/p":
		a.Store.TogglePin(a.Store.ActiveID())
		thread := a.Store.ActiveThread()
		if thread != nil && thread.Pinned {
			fmt.Println(commandStyle.Render("[OK] Session pinned"))
		} else {
			fmt.Println(commandStyle.Render("[OK] Session unpinned"))
		}
		return true, nil

	case "/rename", "/r":
		if len(args) == 0 {
			return true, ErrMissingArgument("title", "/rename My project chat")
		}
		a.Store.RenameThread(a.Store.ActiveID(), strings.Join(args, " "))
		fmt.Println(commandStyle.Render("[OK] Session renamed"))
		return true, nil

	case "/delete", "/d":
		a.Store.DeleteThread(a.Store.ActiveID())
		thread := a.Store.EnsureThread()
		fmt.Printf("%s Session deleted, now in %q\n",
			commandStyle.Render("[OK]"), thread.Title)
		return true, nil

	case "/history":
		a.printThreadHistory()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// switchThread switches the active session to the given /list index.
func (a *App) switchThread(args []string) error {
	if len(args) == 0 {
		return ErrMissingArgument("session number", "/switch 2")
	}

	threads := a.Store.ListThreads()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(threads) {
		return NewValidationError("session number", args[0],
			fmt.Sprintf("must be between 1 and %d", len(threads)))
	}

	thread := threads[n-1]
	a.Store.SetActive(thread.ID)
	fmt.Printf("%s Switched to %q\n",
		commandStyle.Render("[OK]"), thread.Title)
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func printChatWelcome(a *App, thread *model.Thread) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("aniket interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(a.Client.Model()))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Session:"),
		commandStyle.Render(util.CollapseNewlines(thread.Title)))

	if !a.Controller.HasCredential() {
		fmt.Printf("%s %s\n",
			infoStyle.Render("API key:"),
			noticeStyle.Render("not configured (run 'aniket auth login')"))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func printChatHelp() {
	fmt.Println()
	fmt.Println(promptStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new", "Start a new session"},
		{"/list, /l", "List sessions"},
		{"/switch <n>", "Switch to session n from /list"},
		{"/pin", "Pin or unpin the current session"},
		{"/rename <title>", "Rename the current session"},
		{"/delete", "Delete the current session"},
		{"/history", "Show the current transcript"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-16s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+D exits and keeps your sessions"))
	fmt.Println()
}

// printThreadList lists sessions, pinned first.
func (a *App) printThreadList() {
	threads := a.Store.ListThreads()
	if len(threads) == 0 {
		fmt.Println(infoStyle.Render("[No sessions yet]"))
		return
	}

	activeID := a.Store.ActiveID()

	fmt.Println()
	for i, t := range threads {
		marker := "  "
		if t.ID == activeID {
			marker = commandStyle.Render("> ")
		}
		pin := ""
		if t.Pinned {
			pin = noticeStyle.Render(" [*]")
		}
		fmt.Printf("%s%d. %s%s %s\n",
			marker, i+1, util.CollapseNewlines(t.Title), pin,
			infoStyle.Render(fmt.Sprintf("(%d messages)", len(t.Messages))))
	}
	fmt.Println()
}

// printThreadHistory prints the active session transcript, one line
// per message with content truncated for scanning.
func (a *App) printThreadHistory() {
	thread := a.Store.ActiveThread()
	if thread == nil || len(thread.Messages) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(promptStyle.Render(thread.Title))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range thread.Messages {
		role := "?"
		switch msg.Role {
		case model.RoleUser:
			role = lipgloss.NewStyle().Foreground(styles.Cyan).Render("You")
		case model.RoleAssistant:
			role = lipgloss.NewStyle().Foreground(styles.Purple).Render(a.Controller.Persona())
		}

		fmt.Printf("  %d. %s: %s\n", i+1, role, msg.Preview(100))
	}

	fmt.Println()
}
