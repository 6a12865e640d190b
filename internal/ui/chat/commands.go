// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sessionchat/internal/model"
)

// =============================================================================
// OPERATION COMMANDS
// =============================================================================
//
// Each command runs one core operation off the event loop and reports back
// with an opDoneMsg. State changes reach the view through the observer.

// run wraps fn as a command reporting op.
func (m Model) run(op opKind, fn func(ctx context.Context) (status string, sessionID int, err error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		status, id, err := fn(ctx)
		return opDoneMsg{op: op, err: err, status: status, sessionID: id}
	}
}

func (m Model) startCmd() tea.Cmd {
	a := m.app
	return m.run(opStart, func(ctx context.Context) (string, int, error) {
		if err := a.Start(ctx); err != nil {
			return "", 0, err
		}
		if !a.Plain() && !a.State.Auth().LoggedIn() {
			return "Not logged in. Press L to log in or R to register.", 0, nil
		}
		return fmt.Sprintf("%d sessions", len(a.Directory.Sessions())), 0, nil
	})
}

func (m Model) createCmd(title string) tea.Cmd {
	dir := m.app.Directory
	return m.run(opCreate, func(ctx context.Context) (string, int, error) {
		s, err := dir.Create(ctx, title)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("Created session %d", s.ID), s.ID, nil
	})
}

func (m Model) renameCmd(id int, title string) tea.Cmd {
	dir := m.app.Directory
	return m.run(opRename, func(ctx context.Context) (string, int, error) {
		if err := dir.Rename(ctx, id, title); err != nil {
			return "", id, err
		}
		return fmt.Sprintf("Renamed session %d", id), id, nil
	})
}

// deleteCmd removes id. The user already answered the y/n question.
func (m Model) deleteCmd(id int) tea.Cmd {
	dir := m.app.Directory
	return m.run(opDelete, func(ctx context.Context) (string, int, error) {
		err := dir.Remove(ctx, id, func(model.Session) bool { return true })
		if err != nil {
			return "", id, err
		}
		return fmt.Sprintf("Deleted session %d", id), id, nil
	})
}

func (m Model) selectCmd(id int) tea.Cmd {
	dir := m.app.Directory
	return m.run(opSelect, func(ctx context.Context) (string, int, error) {
		msgs, err := dir.Select(ctx, id)
		if err != nil {
			return "", id, err
		}
		return fmt.Sprintf("%d messages", len(msgs)), id, nil
	})
}

func (m Model) reloadCmd() tea.Cmd {
	dir := m.app.Directory
	return m.run(opReload, func(ctx context.Context) (string, int, error) {
		msgs, err := dir.Reload(ctx)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("Reloaded %d messages", len(msgs)), 0, nil
	})
}

// sendCmd streams a reply under ctx. A reply stopped by cancel keeps what
// arrived and is not an error.
func (m Model) sendCmd(ctx context.Context, cancel context.CancelFunc, text string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		defer cancel()
		_, err := a.Send(ctx, text, nil)
		if err != nil && ctx.Err() != nil {
			return opDoneMsg{op: opSend, status: "Reply stopped"}
		}
		return opDoneMsg{op: opSend, err: err}
	}
}

func (m Model) loginCmd(username, password string) tea.Cmd {
	a := m.app
	return m.run(opLogin, func(ctx context.Context) (string, int, error) {
		if err := a.Login(ctx, username, password); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("Logged in as %s", a.State.Auth().Username), 0, nil
	})
}

func (m Model) registerCmd(username, password string) tea.Cmd {
	a := m.app
	return m.run(opRegister, func(ctx context.Context) (string, int, error) {
		if err := a.Register(ctx, username, password); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("Registered %s. Press L to log in.", username), 0, nil
	})
}

func (m Model) logoutCmd() tea.Cmd {
	a := m.app
	return m.run(opLogout, func(context.Context) (string, int, error) {
		if err := a.Logout(); err != nil {
			return "", 0, err
		}
		return "Logged out", 0, nil
	})
}

func (m Model) modelCmd(name string) tea.Cmd {
	a := m.app
	name = strings.TrimSpace(name)
	return m.run(opModel, func(context.Context) (string, int, error) {
		if err := a.SetModel(name); err != nil {
			return "", 0, err
		}
		return "Model set to " + name, 0, nil
	})
}
