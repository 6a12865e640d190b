// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - The command runner and output helpers shared by handlers.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/sessionchat/internal/app"
	"github.com/jeranaias/sessionchat/internal/auth"
	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/util"
)

// =============================================================================
// RUNNER
// =============================================================================

// Runner carries what every command handler needs. Handlers write to Out and
// Err instead of the process streams so they can be tested.
type Runner struct {
	App  *app.App
	Args Args

	Out io.Writer
	Err io.Writer

	Prompt *Prompter

	// Interactive is true when stdin is a terminal and prompts are possible.
	Interactive bool

	// Markdown renders completed replies with glamour instead of streaming
	// them raw.
	Markdown bool
}

// NewRunner returns a runner over the process streams.
func NewRunner(a *app.App, args Args) *Runner {
	return &Runner{
		App:         a,
		Args:        args,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Prompt:      NewPrompter(os.Stdin, os.Stderr),
		Interactive: IsTTY(),
		Markdown:    a.Config.Client.Markdown && IsStdoutTTY() && !args.JSON,
	}
}

// info prints a status line to Err unless --quiet or --json is set.
func (r *Runner) info(format string, a ...any) {
	if r.Args.Quiet || r.Args.JSON {
		return
	}
	fmt.Fprintf(r.Err, format+"\n", a...)
}

// printJSON writes a success envelope for command.
func (r *Runner) printJSON(command string, data any) error {
	return NewJSONResponse(command, data).Print(r.Out)
}

// requireLogin fails fast when the reactive variant has no token, instead
// of letting the server answer 401.
func (r *Runner) requireLogin() error {
	if r.App.Plain() || r.App.State.Auth().LoggedIn() {
		return nil
	}
	return fmt.Errorf("%w; run 'sessionchat login' first", auth.ErrNotLoggedIn)
}

// =============================================================================
// OUTPUT FORMATTING
// =============================================================================

// printSessions prints the session list, marking the current one.
func printSessions(w io.Writer, sessions []model.Session, currentID int, hasCurrent bool) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No sessions. Create one with 'sessions create [TITLE]'."))
		return
	}
	titleWidth := GetTerminalWidth() - 12
	for _, s := range sessions {
		marker := "  "
		if hasCurrent && s.ID == currentID {
			marker = CurrentStyle.Render("* ")
		}
		fmt.Fprintf(w, "%s%s  %s\n",
			marker,
			util.PadRight(fmt.Sprintf("%d", s.ID), 5),
			util.TruncateWidth(util.SingleLine(s.DisplayTitle()), titleWidth))
	}
}

// printMessages prints a transcript with role prefixes.
func printMessages(w io.Writer, msgs []model.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No messages yet."))
		return
	}
	for _, m := range msgs {
		style := AssistantRoleStyle
		if m.IsUser() {
			style = UserRoleStyle
		}
		fmt.Fprintf(w, "%s %s\n", style.Render(m.Role.DisplayName()+":"), m.Content)
	}
}

// =============================================================================
// MARKDOWN
// =============================================================================

var markdownRenderer *glamour.TermRenderer

// renderMarkdown renders content for the terminal, returning it unchanged
// when the renderer cannot be built.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(GetTerminalWidth()-4),
		)
		if err != nil {
			return content
		}
		markdownRenderer = r
	}
	out, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
