// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - Session management commands.
//
// Command: sessions [subcommand]
// Aliases: session, s
//
// Subcommands:
//   list (default)      List sessions (aliases: ls, l)
//   create [TITLE]      Create a session (alias: new)
//   rename ID TITLE     Rename a session
//   delete ID           Delete a session (aliases: rm, remove)
//   show ID             Print a session's messages
//   export ID           Write a session to Markdown, JSON or HTML
//
// Examples:
//   sessionchat sessions
//   sessionchat sessions create "Trip planning"
//   sessionchat sessions rename 3 Groceries
//   sessionchat sessions delete 3 --confirm
//   sessionchat sessions show 3 --json
//   sessionchat sessions export 3 --format html --dir exports
//   sessionchat sessions export 3 --output -
//
// Every subcommand fetches the list first; IDs not in it are rejected
// before any request is made.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/sessionchat/internal/export"
	"github.com/jeranaias/sessionchat/internal/model"
)

const sessionsUsage = "sessionchat sessions [list|create [TITLE]|rename ID TITLE|delete ID [--confirm]|show ID|export ID [--format md|json|html] [--output PATH|-]]"

// HandleSessions handles the "sessions" command.
func HandleSessions(ctx context.Context, r *Runner) error {
	p := r.Args.Parser()

	if err := r.App.Start(ctx); err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	switch p.Subcommand() {
	case "", "list", "ls", "l":
		return r.sessionList()
	case "create", "new":
		return r.sessionCreate(ctx, JoinPositionalArgs(p, 1))
	case "rename", "mv":
		id, err := ParseSessionID(p.Positional(1))
		if err != nil {
			return err
		}
		return r.sessionRename(ctx, id, JoinPositionalArgs(p, 2))
	case "delete", "rm", "remove":
		id, err := ParseSessionID(p.Positional(1))
		if err != nil {
			return err
		}
		return r.sessionDelete(ctx, id, p.BoolFlag("confirm") || p.BoolFlag("y") || p.BoolFlag("yes"))
	case "show", "view":
		id, err := ParseSessionID(p.Positional(1))
		if err != nil {
			return err
		}
		return r.sessionShow(ctx, id)
	case "export":
		id, err := ParseSessionID(p.Positional(1))
		if err != nil {
			return err
		}
		return r.sessionExport(ctx, id, p)
	default:
		return &UsageError{Command: "sessions " + p.Subcommand(), Usage: sessionsUsage}
	}
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func (r *Runner) sessionList() error {
	snap := r.App.State.Snapshot()
	if r.Args.JSON {
		data := SessionListData{Sessions: snap.Sessions}
		if snap.Sessions == nil {
			data.Sessions = []model.Session{}
		}
		if snap.HasCurrent {
			id := snap.CurrentID
			data.CurrentID = &id
		}
		return r.printJSON("sessions list", data)
	}
	printSessions(r.Out, snap.Sessions, snap.CurrentID, snap.HasCurrent)
	return nil
}

func (r *Runner) sessionCreate(ctx context.Context, title string) error {
	s, err := r.App.Directory.Create(ctx, title)
	if err != nil {
		return err
	}
	if r.Args.JSON {
		return r.printJSON("sessions create", s)
	}
	fmt.Fprintf(r.Out, "%s Created session %d: %s\n", SuccessStyle.Render("[OK]"), s.ID, s.DisplayTitle())
	return nil
}

func (r *Runner) sessionRename(ctx context.Context, id int, title string) error {
	err := r.App.Directory.Rename(ctx, id, title)
	if errors.Is(err, model.ErrSkipped) {
		r.info("%s", DimStyle.Render("Title unchanged; nothing to do."))
		return r.jsonSkipped("sessions rename", id)
	}
	if err != nil {
		return err
	}
	s, _ := r.App.State.Session(id)
	if r.Args.JSON {
		return r.printJSON("sessions rename", s)
	}
	fmt.Fprintf(r.Out, "%s Renamed session %d: %s\n", SuccessStyle.Render("[OK]"), id, s.DisplayTitle())
	return nil
}

func (r *Runner) sessionDelete(ctx context.Context, id int, confirmFlag bool) error {
	var promptErr error
	err := r.App.Directory.Remove(ctx, id, r.removalConfirmer(confirmFlag, &promptErr))
	if promptErr != nil {
		return promptErr
	}
	if errors.Is(err, model.ErrSkipped) {
		r.info("Cancelled.")
		return r.jsonSkipped("sessions delete", id)
	}
	if err != nil {
		return err
	}
	if r.Args.JSON {
		return r.printJSON("sessions delete", map[string]any{"id": id, "deleted": true})
	}
	fmt.Fprintf(r.Out, "%s Deleted session %d\n", SuccessStyle.Render("[OK]"), id)
	return nil
}

func (r *Runner) sessionShow(ctx context.Context, id int) error {
	msgs, err := r.App.Directory.Select(ctx, id)
	if err != nil {
		return err
	}
	s, _ := r.App.State.Session(id)
	if r.Args.JSON {
		if msgs == nil {
			msgs = []model.Message{}
		}
		return r.printJSON("sessions show", SessionShowData{Session: s, Messages: msgs})
	}
	fmt.Fprintln(r.Out, TitleStyle.Render(fmt.Sprintf("Session %d: %s", s.ID, s.DisplayTitle())))
	printMessages(r.Out, msgs)
	return nil
}

func (r *Runner) sessionExport(ctx context.Context, id int, p *ArgParser) error {
	opts := export.DefaultOptions()
	opts.OutputDir = p.FlagOrDefault("dir", ".")
	opts.Theme = p.FlagOrDefault("theme", opts.Theme)
	opts.IncludeMetadata = !p.BoolFlag("no-metadata")

	format := p.FlagOrDefault("format", "markdown")
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return &ValidationError{Field: "format", Value: format, Reason: err.Error(), Example: "--format html"}
	}

	msgs, err := r.App.Directory.Select(ctx, id)
	if err != nil {
		return err
	}
	s, _ := r.App.State.Session(id)
	t := export.NewTranscript(s, r.App.State.Model(), msgs)

	var path string
	switch output := p.Flag("output"); output {
	case "-":
		content, err := exporter.Export(t)
		if err != nil {
			return err
		}
		_, err = r.Out.Write(content)
		return err
	case "":
		path, err = export.ToFile(t, exporter, opts)
	default:
		path, err = output, export.ToPath(t, exporter, output)
	}
	if err != nil {
		return err
	}

	if r.Args.JSON {
		return r.printJSON("sessions export", map[string]any{
			"id":       id,
			"path":     path,
			"mime":     exporter.MimeType(),
			"messages": len(t.Messages),
		})
	}
	fmt.Fprintf(r.Out, "%s Exported session %d (%d messages) to %s\n",
		SuccessStyle.Render("[OK]"), id, len(t.Messages), path)
	return nil
}

// jsonSkipped reports a skipped operation in JSON mode.
func (r *Runner) jsonSkipped(command string, id int) error {
	if !r.Args.JSON {
		return nil
	}
	return r.printJSON(command, map[string]any{"id": id, "skipped": true})
}
