// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat.
//
// Command: chat
// Aliases: repl
//
// Examples:
//   sessionchat chat                 Reactive variant, streamed replies
//   sessionchat --plain chat         Plain variant, no login
//   sessionchat chat --model llama3  Model for this run only
//
// Interactive Commands (during chat):
//   /sessions, /ls         List sessions
//   /new [TITLE]           Create a session
//   /use ID                Switch to a session
//   /rename ID TITLE       Rename a session
//   /delete ID             Delete a session (asks first)
//   /history, /reload      Show or refetch the current session's messages
//   /model [NAME]          Show or switch model
//   /export [FORMAT]       Save the current session (markdown, json, html)
//   /login [USER]          Log in (reactive variant)
//   /register [USER]       Create an account (reactive variant)
//   /logout, /whoami
//   /help, /quit
//   Ctrl+C                 Stop the reply being received
//   Ctrl+D                 Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/sessionchat/internal/export"
	"github.com/jeranaias/sessionchat/internal/model"
)

// =============================================================================
// INPUT
// =============================================================================

// LineReader is the line editor the REPL reads from. *liner.State
// implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
}

// ChatCLI wraps liner with a history file.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line editor and loads history from historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Prompt reads a line and records non-empty input in history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// PasswordPrompt reads a line without echo. Passwords never enter history.
func (c *ChatCLI) PasswordPrompt(prompt string) (string, error) {
	return c.line.PasswordPrompt(prompt)
}

// Close saves history with 0600 permissions and restores the terminal.
func (c *ChatCLI) Close() {
	if c.historyFile != "" {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// ChatREPL holds the state of one interactive chat.
type ChatREPL struct {
	r     *Runner
	input LineReader

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewChatREPL creates a REPL reading from input.
func NewChatREPL(r *Runner, input LineReader) *ChatREPL {
	return &ChatREPL{r: r, input: input}
}

// HandleChat handles the "chat" command.
func HandleChat(ctx context.Context, r *Runner) error {
	if !r.Interactive {
		return fmt.Errorf("chat needs a terminal; use 'sessionchat ask' for scripts")
	}

	lineCLI := NewChatCLI(r.App.Config.Client.HistoryPath)
	defer lineCLI.Close()

	repl := NewChatREPL(r, lineCLI)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if repl.CancelReply() {
				fmt.Fprintln(r.Err, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	return repl.Run(ctx)
}

// Run performs the startup fetch and reads lines until /quit or EOF.
func (c *ChatREPL) Run(ctx context.Context) error {
	if err := c.r.App.Start(ctx); err != nil {
		c.printError(err)
	}
	c.printWelcome()

	for {
		input, err := c.input.Prompt(c.prompt())
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or a closed stdin all exit.
			fmt.Fprintln(c.r.Out)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := c.handleSlashCommand(ctx, input)
			c.printError(err)
			if !shouldContinue {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		c.printError(c.sendMessage(ctx, input))
	}
}

// CancelReply stops the reply being received. It reports whether one was.
func (c *ChatREPL) CancelReply() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	return true
}

func (c *ChatREPL) sendMessage(ctx context.Context, text string) error {
	if _, ok := c.r.App.Directory.Current(); !ok {
		return fmt.Errorf("no session selected; use /new or /use ID")
	}

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	fmt.Fprintln(c.r.Out)
	_, err := c.r.streamReply(ctx, text)
	fmt.Fprintln(c.r.Out)
	if err != nil && ctx.Err() != nil {
		// Cancelled by Ctrl+C; the partial reply stays.
		return nil
	}
	return err
}

func (c *ChatREPL) prompt() string {
	label := "chat"
	if cur, ok := c.r.App.Directory.Current(); ok {
		label = fmt.Sprintf("#%d", cur.ID)
	}
	return label + "> "
}

// printError prints err unless it is nil or a skipped operation.
func (c *ChatREPL) printError(err error) {
	if err == nil || errors.Is(err, model.ErrSkipped) {
		return
	}
	DisplayError(c.r.Err, err, false)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func (c *ChatREPL) handleSlashCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.Join(args, " ")
	r := c.r

	switch command {
	case "/help", "/h", "/?", "/":
		c.printHelp()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/sessions", "/ls":
		if err := r.requireLogin(); err != nil {
			return true, err
		}
		if _, err := r.App.Directory.List(ctx); err != nil {
			return true, err
		}
		return true, r.sessionList()

	case "/new":
		if err := r.requireLogin(); err != nil {
			return true, err
		}
		s, err := r.App.Directory.Create(ctx, rest)
		if err != nil {
			return true, err
		}
		if cur, ok := r.App.Directory.Current(); !ok || cur.ID != s.ID {
			if _, err := r.App.Directory.Select(ctx, s.ID); err != nil {
				return true, err
			}
		}
		fmt.Fprintf(r.Out, "%s Created and switched to session %d: %s\n",
			SuccessStyle.Render("[OK]"), s.ID, s.DisplayTitle())
		return true, nil

	case "/use", "/switch":
		id, err := ParseSessionID(firstArg(args))
		if err != nil {
			return true, err
		}
		msgs, err := r.App.Directory.Select(ctx, id)
		if err != nil {
			return true, err
		}
		s, _ := r.App.Directory.Current()
		fmt.Fprintln(r.Out, TitleStyle.Render(fmt.Sprintf("Session %d: %s", s.ID, s.DisplayTitle())))
		printMessages(r.Out, msgs)
		return true, nil

	case "/rename":
		id, err := ParseSessionID(firstArg(args))
		if err != nil {
			return true, err
		}
		return true, r.sessionRename(ctx, id, strings.Join(args[1:], " "))

	case "/delete", "/rm":
		id, err := ParseSessionID(firstArg(args))
		if err != nil {
			return true, err
		}
		err = r.App.Directory.Remove(ctx, id, c.confirmRemoval)
		if errors.Is(err, model.ErrSkipped) {
			fmt.Fprintln(r.Out, DimStyle.Render("Cancelled."))
			return true, nil
		}
		if err != nil {
			return true, err
		}
		fmt.Fprintf(r.Out, "%s Deleted session %d\n", SuccessStyle.Render("[OK]"), id)
		return true, nil

	case "/history":
		printMessages(r.Out, r.App.State.Snapshot().Messages)
		return true, nil

	case "/reload":
		msgs, err := r.App.Directory.Reload(ctx)
		if err != nil {
			return true, err
		}
		printMessages(r.Out, msgs)
		return true, nil

	case "/model", "/m":
		if rest == "" {
			fmt.Fprintf(r.Out, "Current model: %s\n", r.App.State.Model())
			return true, nil
		}
		if err := r.App.SetModel(rest); err != nil {
			return true, err
		}
		fmt.Fprintf(r.Out, "%s Switched to model: %s\n", SuccessStyle.Render("[OK]"), rest)
		return true, nil

	case "/export":
		return true, c.exportSession(firstArg(args))

	case "/login":
		return true, c.login(ctx, firstArg(args))

	case "/register":
		return true, c.register(ctx, firstArg(args))

	case "/logout":
		if err := r.App.Logout(); err != nil {
			return true, err
		}
		fmt.Fprintf(r.Out, "%s Logged out\n", SuccessStyle.Render("[OK]"))
		return true, nil

	case "/whoami":
		return true, r.authStatus()

	default:
		if suggestion := SuggestSlashCommand(command); suggestion != "" {
			return true, fmt.Errorf("unknown command: %s (did you mean %s?)", command, suggestion)
		}
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// exportSession writes the current session's cached messages to a file in the
// working directory.
func (c *ChatREPL) exportSession(format string) error {
	snap := c.r.App.State.Snapshot()
	s, ok := snap.Current()
	if !ok {
		return errors.New("no session selected (use /use ID)")
	}
	exporter, err := export.ForFormat(format, nil)
	if err != nil {
		return err
	}
	path, err := export.ToFile(export.NewTranscript(s, snap.Model, snap.Messages), exporter, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.r.Out, "%s Saved to %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (c *ChatREPL) confirmRemoval(s model.Session) bool {
	answer, err := c.input.Prompt(fmt.Sprintf("Delete session %d (%s)? [y/N]: ", s.ID, s.DisplayTitle()))
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (c *ChatREPL) credentials(username string) (string, string, error) {
	var err error
	if username == "" {
		if username, err = c.input.Prompt("Username: "); err != nil {
			return "", "", err
		}
	}
	password, err := c.input.PasswordPrompt("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (c *ChatREPL) login(ctx context.Context, username string) error {
	if c.r.App.Plain() {
		return c.r.App.Login(ctx, "", "")
	}
	username, password, err := c.credentials(username)
	if err != nil {
		return err
	}
	if err := c.r.App.Login(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintf(c.r.Out, "%s Logged in as %s\n", SuccessStyle.Render("[OK]"), c.r.App.State.Auth().Username)
	printSessions(c.r.Out, c.r.App.Directory.Sessions(), 0, false)
	return nil
}

func (c *ChatREPL) register(ctx context.Context, username string) error {
	if c.r.App.Plain() {
		return c.r.App.Register(ctx, "", "")
	}
	username, password, err := c.credentials(username)
	if err != nil {
		return err
	}
	if err := c.r.App.Register(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintf(c.r.Out, "%s Registered %s. Now /login %s\n", SuccessStyle.Render("[OK]"), username, username)
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (c *ChatREPL) printWelcome() {
	if c.r.Args.Quiet {
		return
	}
	out := c.r.Out
	snap := c.r.App.State.Snapshot()

	fmt.Fprintln(out, TitleStyle.Render("sessionchat"))
	fmt.Fprintln(out, RenderField("Server:", c.r.App.Client.BaseURL()))
	fmt.Fprintln(out, RenderField("Variant:", c.r.App.Config.Client.Variant))
	fmt.Fprintln(out, RenderField("Model:", snap.Model))
	switch {
	case c.r.App.Plain():
	case snap.Auth.LoggedIn():
		fmt.Fprintln(out, RenderField("User:", snap.Auth.Username))
	default:
		fmt.Fprintln(out, WarningStyle.Render("Not logged in. Use /login or /register."))
	}
	if len(snap.Sessions) > 0 {
		fmt.Fprintln(out)
		printSessions(out, snap.Sessions, snap.CurrentID, snap.HasCurrent)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, DimStyle.Render("Pick a session with /use ID or /new, then type a message. /help for commands."))
}

func (c *ChatREPL) printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/sessions, /ls", "List sessions"},
		{"/new [TITLE]", "Create a session and switch to it"},
		{"/use ID", "Switch to a session"},
		{"/rename ID TITLE", "Rename a session"},
		{"/delete ID", "Delete a session"},
		{"/history", "Show messages of the current session"},
		{"/reload", "Refetch messages of the current session"},
		{"/model [NAME]", "Show or switch model"},
		{"/export [FORMAT]", "Save the session as markdown, json or html"},
		{"/login [USER]", "Log in"},
		{"/register [USER]", "Create an account"},
		{"/logout, /whoami", "Forget credentials, show login"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Fprintln(c.r.Out, TitleStyle.Render("Available Commands"))
	for _, cmd := range commands {
		fmt.Fprintf(c.r.Out, "  %-20s %s\n", cmd.cmd, DimStyle.Render(cmd.desc))
	}
	fmt.Fprintln(c.r.Out)
	fmt.Fprintln(c.r.Out, DimStyle.Render("Ctrl+C stops a reply, Ctrl+D exits"))
}
