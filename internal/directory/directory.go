// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory manages the session list and the current selection.
//
// Every write (create, rename, remove) is followed by a fresh list fetch;
// the cached list is never edited locally. There is no concurrency control
// between operations: the last response processed wins.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/state"
)

// ErrSkipped is returned when an operation declines to run. No request is
// made and state is untouched.
var ErrSkipped = model.ErrSkipped

// ErrUnknownSession is returned for an ID that is not in the cached list.
var ErrUnknownSession = errors.New("unknown session")

// SessionAPI is the subset of the API client the directory needs.
type SessionAPI interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
	CreateSession(ctx context.Context, title string) (model.Session, error)
	RenameSession(ctx context.Context, id int, title string) error
	DeleteSession(ctx context.Context, id int) error
	ListMessages(ctx context.Context, sessionID int) ([]model.Message, error)
}

// Confirmer asks the user whether a session may be removed.
type Confirmer func(model.Session) bool

// Options tunes directory behavior per front end.
type Options struct {
	// DefaultTitle names sessions created with a blank title.
	DefaultTitle string

	// SelectOnCreate selects a newly created session and loads its
	// (empty) history.
	SelectOnCreate bool
}

// Directory lists, creates, renames, removes and selects sessions.
type Directory struct {
	api   SessionAPI
	state *state.State
	opts  Options
}

// New creates a directory over api that records results in st.
func New(api SessionAPI, st *state.State, opts Options) *Directory {
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = model.DefaultSessionTitle
	}
	return &Directory{api: api, state: st, opts: opts}
}

// List fetches the session list and replaces the cache wholesale. On
// failure the cache is left as it was.
func (d *Directory) List(ctx context.Context) ([]model.Session, error) {
	sessions, err := d.api.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	d.state.ReplaceSessions(sessions)
	slog.Debug("sessions listed", "count", len(sessions))
	return sessions, nil
}

// Create creates a session and re-fetches the list. A blank title is
// replaced with the default title.
func (d *Directory) Create(ctx context.Context, title string) (model.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = d.opts.DefaultTitle
	}

	created, err := d.api.CreateSession(ctx, title)
	if err != nil {
		return model.Session{}, err
	}
	slog.Info("session created", "session_id", created.ID)

	if _, err := d.List(ctx); err != nil {
		return created, fmt.Errorf("session created but refresh failed: %w", err)
	}

	if d.opts.SelectOnCreate {
		if _, err := d.Select(ctx, created.ID); err != nil {
			return created, err
		}
	}
	return created, nil
}

// Rename changes a session title. A blank title, or one equal to the
// current title after trimming, is skipped without a request.
func (d *Directory) Rename(ctx context.Context, id int, newTitle string) error {
	existing, ok := d.state.Session(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSession, id)
	}

	newTitle = strings.TrimSpace(newTitle)
	if newTitle == "" || newTitle == existing.Title {
		return ErrSkipped
	}

	if err := d.api.RenameSession(ctx, id, newTitle); err != nil {
		return err
	}
	slog.Info("session renamed", "session_id", id)

	_, err := d.List(ctx)
	return err
}

// Remove deletes a session after confirm approves it. A nil confirm means
// the caller already obtained consent. Removing the current session clears
// the selection and message cache.
func (d *Directory) Remove(ctx context.Context, id int, confirm Confirmer) error {
	existing, ok := d.state.Session(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSession, id)
	}
	if confirm != nil && !confirm(existing) {
		return ErrSkipped
	}

	if err := d.api.DeleteSession(ctx, id); err != nil {
		return err
	}
	slog.Info("session removed", "session_id", id)

	d.state.ClearSelectionIf(id)
	_, err := d.List(ctx)
	return err
}

// Select fetches a session's history and, only on success, makes it current
// with that history.
func (d *Directory) Select(ctx context.Context, id int) ([]model.Message, error) {
	if _, ok := d.state.Session(id); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSession, id)
	}

	msgs, err := d.api.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	d.state.Select(id, msgs)
	slog.Debug("session selected", "session_id", id, "messages", len(msgs))
	return msgs, nil
}

// Reload re-fetches the history of the current session.
func (d *Directory) Reload(ctx context.Context) ([]model.Message, error) {
	id, ok := d.state.CurrentID()
	if !ok {
		return nil, ErrSkipped
	}
	msgs, err := d.api.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	d.state.ReplaceMessages(id, msgs)
	return msgs, nil
}

// Current returns the selected session.
func (d *Directory) Current() (model.Session, bool) {
	return d.state.Snapshot().Current()
}

// Sessions returns the cached session list.
func (d *Directory) Sessions() []model.Session {
	return d.state.Snapshot().Sessions
}
