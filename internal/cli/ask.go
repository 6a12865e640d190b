// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot message command.
//
// Command: ask ID TEXT...
//          ask --new TEXT...
//
// Sends TEXT to session ID (or to a freshly created session with --new) and
// streams the assistant reply to stdout. Ctrl+C stops the reply; what has
// arrived so far is kept.
//
// Examples:
//   sessionchat ask 3 "What did we decide about the venue?"
//   sessionchat ask --new -- "-5 degrees: too cold for a picnic?"
//   sessionchat --plain ask 1 hello --json

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jeranaias/sessionchat/internal/model"
)

const askUsage = "sessionchat ask ID TEXT | sessionchat ask --new TEXT"

// HandleAsk handles the "ask" command.
func HandleAsk(ctx context.Context, r *Runner) error {
	p := r.Args.Parser()

	var text string
	var id int
	newSession := p.BoolFlag("new")
	if newSession {
		text = JoinPositionalArgs(p, 0)
	} else {
		if p.PositionalCount() < 2 {
			return ErrMissingArgument("ask", askUsage)
		}
		var err error
		if id, err = ParseSessionID(p.Positional(0)); err != nil {
			return err
		}
		text = JoinPositionalArgs(p, 1)
	}
	if text == "" {
		return ErrMissingArgument("ask", askUsage)
	}

	if err := r.App.Start(ctx); err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	if newSession {
		s, err := r.App.Directory.Create(ctx, "")
		if err != nil {
			return err
		}
		id = s.ID
		r.info("%s", DimStyle.Render("Created session "+strconv.Itoa(id)))
	}
	if cur, ok := r.App.Directory.Current(); !ok || cur.ID != id {
		if _, err := r.App.Directory.Select(ctx, id); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reply, err := r.streamReply(ctx, text)
	cancelled := err != nil && ctx.Err() != nil
	if err != nil && !cancelled {
		return err
	}
	if r.Args.JSON {
		return r.printJSON("ask", AskData{SessionID: id, Model: r.App.State.Model(), Reply: reply})
	}
	if cancelled {
		fmt.Fprintln(r.Err, WarningStyle.Render("[Cancelled]"))
	}
	return nil
}

// streamReply sends text to the current session and writes the reply to
// Out as it arrives, or renders it as markdown once complete.
func (r *Runner) streamReply(ctx context.Context, text string) (string, error) {
	var onFragment func(string)
	if !r.Markdown && !r.Args.JSON {
		onFragment = func(fragment string) {
			fmt.Fprint(r.Out, fragment)
		}
	}

	reply, err := r.App.Send(ctx, text, onFragment)
	if errors.Is(err, model.ErrSkipped) {
		return "", nil
	}

	switch {
	case r.Args.JSON:
	case r.Markdown:
		if reply != "" {
			fmt.Fprintln(r.Out, renderMarkdown(reply))
		}
	case reply != "":
		fmt.Fprintln(r.Out)
	}
	return reply, err
}
