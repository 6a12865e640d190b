// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sessionchat/internal/api"
	"github.com/jeranaias/sessionchat/internal/apitest"
	"github.com/jeranaias/sessionchat/internal/directory"
	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/prefs"
	"github.com/jeranaias/sessionchat/internal/state"
)

type fixture struct {
	gate  *Gate
	state *state.State
	store *prefs.MemoryStore
	srv   *apitest.Server
}

func setup(t *testing.T) fixture {
	t.Helper()
	srv := apitest.NewServer(t)
	srv.RequireAuth = true

	st := state.New()
	client := api.NewClient(api.ClientConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Token:   st.Token,
	})
	store := prefs.NewMemoryStore()
	dir := directory.New(client, st, directory.Options{})
	return fixture{
		gate:  New(client, dir, st, store),
		state: st,
		store: store,
		srv:   srv,
	}
}

func TestGate_LoginStoresTokenAndListsSessions(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret")
	f.srv.AddSession("first")

	require.NoError(t, f.gate.Login(context.Background(), " alice ", "secret"))

	snap := f.state.Snapshot()
	assert.True(t, snap.Auth.LoggedIn())
	assert.Equal(t, "alice", snap.Auth.Username)
	assert.Equal(t, []model.Session{{ID: 1, Title: "first"}}, snap.Sessions)

	assert.Equal(t, snap.Auth.Token, prefs.GetOr(f.store, prefs.KeyToken, ""))
	assert.Equal(t, "alice", prefs.GetOr(f.store, prefs.KeyUsername, ""))

	reqs := f.srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/token", reqs[0].Path)
	assert.Empty(t, reqs[0].Authorization, "login never carries a bearer token")
	assert.Equal(t, "/sessions/", reqs[1].Path)
	assert.Equal(t, "Bearer "+snap.Auth.Token, reqs[1].Authorization)
}

func TestGate_LoginFailure(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret")

	err := f.gate.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.Contains(t, api.UserMessage(err), "Incorrect username or password")

	assert.False(t, f.state.Snapshot().Auth.LoggedIn())
	_, getErr := f.store.Get(prefs.KeyToken)
	assert.ErrorIs(t, getErr, prefs.ErrNotFound)
}

func TestGate_BlankCredentialsSkip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.gate.Login(ctx, "  ", "pw"), ErrSkipped)
	assert.ErrorIs(t, f.gate.Login(ctx, "bob", ""), ErrSkipped)
	assert.ErrorIs(t, f.gate.Register(ctx, "", "pw"), ErrSkipped)
	assert.ErrorIs(t, f.gate.Register(ctx, "bob", ""), ErrSkipped)
	assert.Zero(t, f.srv.RequestCount())
}

func TestGate_LogoutClearsEverythingOffline(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("alice", "secret")
	id := f.srv.AddSession("chat", "hi", "hello")
	ctx := context.Background()

	require.NoError(t, f.gate.Login(ctx, "alice", "secret"))
	f.state.Select(id, []model.Message{model.NewUserMessage("hi")})
	f.state.SetModel("gemma3:1b")
	f.srv.ResetRequests()

	f.gate.Logout()

	snap := f.state.Snapshot()
	assert.False(t, snap.Auth.LoggedIn())
	assert.Empty(t, snap.Auth.Username)
	assert.Empty(t, snap.Sessions)
	assert.Empty(t, snap.Messages)
	assert.False(t, snap.HasCurrent)
	assert.Equal(t, "gemma3:1b", snap.Model)
	assert.Zero(t, f.srv.RequestCount(), "logout makes no request")

	_, err := f.store.Get(prefs.KeyToken)
	assert.ErrorIs(t, err, prefs.ErrNotFound)
	_, err = f.store.Get(prefs.KeyUsername)
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func TestGate_Register(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.gate.Register(ctx, "bob", "pw"))
	assert.False(t, f.state.Snapshot().Auth.LoggedIn(), "register does not log in")

	err := f.gate.Register(ctx, "bob", "pw")
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, api.UserMessage(err), "Username exists")
}

func TestGate_Restore(t *testing.T) {
	f := setup(t)
	assert.False(t, f.gate.Restore())

	require.NoError(t, f.store.Set(prefs.KeyToken, "stored-token"))
	require.NoError(t, f.store.Set(prefs.KeyUsername, "carol"))

	assert.True(t, f.gate.Restore())
	assert.Equal(t, "stored-token", f.gate.Token())
	assert.Equal(t, "carol", f.gate.Session().Username)
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	claims, err := ParseClaims(signed)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.True(t, exp.Equal(claims.ExpiresAt))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Minute)))

	_, err = ParseClaims("not-a-jwt")
	assert.Error(t, err)
}

func TestGate_ClaimsRequiresLogin(t *testing.T) {
	f := setup(t)
	_, err := f.gate.Claims()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
