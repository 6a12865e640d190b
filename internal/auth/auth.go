// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements login, registration and logout for the reactive
// client. The access token is kept in state for the API client and in the
// preference store across runs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jeranaias/sessionchat/internal/api"
	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/prefs"
	"github.com/jeranaias/sessionchat/internal/state"
)

// ErrSkipped is returned when a username or password is blank.
var ErrSkipped = model.ErrSkipped

// ErrNotLoggedIn is returned by Claims when no token is held.
var ErrNotLoggedIn = errors.New("not logged in")

// AccountAPI is the subset of the API client the gate needs.
type AccountAPI interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (api.TokenResponse, error)
}

// SessionLister refreshes the session list after login.
type SessionLister interface {
	List(ctx context.Context) ([]model.Session, error)
}

// Gate owns the auth session.
type Gate struct {
	api      AccountAPI
	sessions SessionLister
	state    *state.State
	store    prefs.Store
}

// New creates a gate. store may be nil, in which case nothing persists.
func New(api AccountAPI, sessions SessionLister, st *state.State, store prefs.Store) *Gate {
	if store == nil {
		store = prefs.NewMemoryStore()
	}
	return &Gate{api: api, sessions: sessions, state: st, store: store}
}

// Restore loads a stored token and username into state. It reports whether
// a token was found.
func (g *Gate) Restore() bool {
	token := prefs.GetOr(g.store, prefs.KeyToken, "")
	if token == "" {
		return false
	}
	g.state.SetAuth(model.AuthSession{
		Token:    token,
		Username: prefs.GetOr(g.store, prefs.KeyUsername, ""),
	})
	slog.Debug("auth restored")
	return true
}

// Register creates an account. It does not log in.
func (g *Gate) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrSkipped
	}
	if err := g.api.Register(ctx, username, password); err != nil {
		return err
	}
	slog.Info("account registered", "username", username)
	return nil
}

// Login exchanges credentials for a token, stores it, and fetches the
// session list with it. When only the list fetch fails the login stands and
// the error is returned wrapped.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrSkipped
	}

	tok, err := g.api.Login(ctx, username, password)
	if err != nil {
		return err
	}

	g.state.SetAuth(model.AuthSession{Token: tok.AccessToken, Username: username})
	if err := g.store.Set(prefs.KeyToken, tok.AccessToken); err != nil {
		slog.Warn("token not persisted", "error", err)
	}
	if err := g.store.Set(prefs.KeyUsername, username); err != nil {
		slog.Warn("username not persisted", "error", err)
	}
	slog.Info("logged in", "username", username)

	if _, err := g.sessions.List(ctx); err != nil {
		return fmt.Errorf("logged in but listing sessions failed: %w", err)
	}
	return nil
}

// Logout forgets the token, the username and every cached session and
// message. No request is made.
func (g *Gate) Logout() {
	g.state.Reset()
	if err := g.store.Delete(prefs.KeyToken, prefs.KeyUsername); err != nil {
		slog.Warn("stored credentials not removed", "error", err)
	}
	slog.Info("logged out")
}

// Token returns the current bearer token, or "".
func (g *Gate) Token() string {
	return g.state.Token()
}

// Session returns the current auth session.
func (g *Gate) Session() model.AuthSession {
	return g.state.Auth()
}

// Claims decodes the subject and expiry of the held token for display.
// The signature is not checked; the server is the only party that trusts
// the token.
func (g *Gate) Claims() (model.TokenClaims, error) {
	token := g.state.Token()
	if token == "" {
		return model.TokenClaims{}, ErrNotLoggedIn
	}
	return ParseClaims(token)
}

// ParseClaims reads the registered claims of a JWT without verifying it.
func ParseClaims(token string) (model.TokenClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return model.TokenClaims{}, fmt.Errorf("decode token: %w", err)
	}

	out := model.TokenClaims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
