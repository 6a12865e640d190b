// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sessionchat/internal/apitest"
	"github.com/jeranaias/sessionchat/internal/app"
	"github.com/jeranaias/sessionchat/internal/auth"
	"github.com/jeranaias/sessionchat/internal/config"
	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/prefs"
	"github.com/jeranaias/sessionchat/internal/ui/styles"
)

// =============================================================================
// HARNESS
// =============================================================================

type tui struct {
	t   *testing.T
	m   Model
	app *app.App
	srv *apitest.Server
}

func newTUI(t *testing.T, variant string) *tui {
	t.Helper()
	srv := apitest.NewServer(t)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.Client.Variant = variant

	a, err := app.New(context.Background(), cfg, app.Options{Prefs: prefs.NewMemoryStore(), SkipLogging: true})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	m := New(context.Background(), a, styles.NewTheme())
	// A static cursor keeps Focus from returning blink timers.
	m.input.Cursor.SetMode(cursor.CursorStatic)

	h := &tui{t: t, m: m, app: a, srv: srv}
	h.update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return h
}

// update feeds msg to the model and runs any operation it starts.
func (h *tui) update(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.runOps(cmd)
}

// runOps executes cmd and feeds operation results back. Other messages,
// such as spinner ticks, are dropped.
func (h *tui) runOps(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case opDoneMsg:
		h.update(msg)
	case tea.BatchMsg:
		for _, c := range msg {
			h.runOps(c)
		}
	}
}

func (h *tui) start() {
	h.runOps(h.m.Init())
}

func (h *tui) press(keys ...string) {
	for _, k := range keys {
		h.update(keyMsg(k))
	}
}

func (h *tui) typeText(s string) {
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// =============================================================================
// STARTUP
// =============================================================================

func TestStart_PlainListsSessions(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.srv.AddSession("Groceries")
	h.srv.AddSession("Trip")

	h.start()

	require.Len(t, h.m.snap.Sessions, 2)
	view := h.m.View()
	assert.Contains(t, view, "Groceries")
	assert.Contains(t, view, "Trip")
	assert.Contains(t, view, "2 sessions")
}

func TestStart_ReactiveWithoutTokenMakesNoRequests(t *testing.T) {
	h := newTUI(t, config.VariantReactive)
	h.srv.AddSession("hidden")

	h.start()

	assert.Zero(t, h.srv.RequestCount())
	assert.Contains(t, h.m.View(), "L to log in")
}

func TestView_BeforeResize(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.m.ready = false
	assert.Equal(t, "Loading...", h.m.View())
}

// =============================================================================
// AUTH
// =============================================================================

func TestLogin_PromptsForUsernameThenPassword(t *testing.T) {
	h := newTUI(t, config.VariantReactive)
	h.srv.RequireAuth = true
	h.srv.AddUser("alice", "pw")
	h.srv.AddSession("mine")
	h.start()

	h.press("L")
	require.Equal(t, promptUsername, h.m.prompt)
	h.typeText("alice")
	h.press("enter")

	require.Equal(t, promptPassword, h.m.prompt)
	assert.Equal(t, textinput.EchoPassword, h.m.input.EchoMode)
	h.typeText("pw")
	h.press("enter")

	assert.Equal(t, promptNone, h.m.prompt)
	assert.Equal(t, textinput.EchoNormal, h.m.input.EchoMode)
	assert.Equal(t, "alice", h.m.snap.Auth.Username)
	require.Len(t, h.m.snap.Sessions, 1)
	view := h.m.View()
	assert.Contains(t, view, "Logged in as alice")
	assert.Contains(t, view, "mine")
}

func TestLogin_FailureIsShownProminently(t *testing.T) {
	h := newTUI(t, config.VariantReactive)
	h.srv.AddUser("alice", "pw")
	h.start()

	h.press("L")
	h.typeText("alice")
	h.press("enter")
	h.typeText("nope")
	h.press("enter")

	require.Error(t, h.m.err)
	assert.True(t, h.m.authErr)
	assert.Contains(t, h.m.View(), "Incorrect username or password")
	assert.False(t, h.m.snap.Auth.LoggedIn())
}

func TestRegister_ThenStatusHint(t *testing.T) {
	h := newTUI(t, config.VariantReactive)
	h.start()

	h.press("R")
	h.typeText("bob")
	h.press("enter")
	h.typeText("secret")
	h.press("enter")

	assert.NoError(t, h.m.err)
	assert.Contains(t, h.m.status, "Registered bob")
	assert.Equal(t, 1, h.srv.Count(http.MethodPost, "/register"))
}

func TestLogout_ClearsSessions(t *testing.T) {
	h := newTUI(t, config.VariantReactive)
	h.srv.AddSession("mine")
	require.NoError(t, h.app.Prefs.Set(prefs.KeyToken, h.srv.IssueToken("alice")))
	require.NoError(t, h.app.Prefs.Set(prefs.KeyUsername, "alice"))
	h.start()
	require.Len(t, h.m.snap.Sessions, 1)
	h.srv.ResetRequests()

	h.press("O")

	assert.Empty(t, h.m.snap.Sessions)
	assert.False(t, h.m.snap.Auth.LoggedIn())
	assert.Zero(t, h.srv.RequestCount())
}

func TestPlain_RejectsAuthKeys(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.start()

	for _, k := range []string{"L", "R", "O"} {
		h.press(k)
		assert.ErrorIs(t, h.m.err, app.ErrPlainVariant, k)
		assert.Equal(t, promptNone, h.m.prompt, k)
	}
	assert.NotContains(t, h.m.View(), "register")
}

func TestReactive_NewNeedsLogin(t *testing.T) {
	h := newTUI(t, config.VariantReactive)
	h.start()

	h.press("n")

	assert.ErrorIs(t, h.m.err, auth.ErrNotLoggedIn)
	assert.Equal(t, promptNone, h.m.prompt)
	assert.Zero(t, h.srv.RequestCount())
}

// =============================================================================
// SESSIONS AND MESSAGES
// =============================================================================

func TestCreateSelectAndSend(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.start()

	h.press("n")
	h.typeText("Trip")
	h.press("enter")
	require.Equal(t, []string{"Trip"}, h.srv.Titles())

	h.press("enter")
	require.Equal(t, focusInput, h.m.focus)

	h.typeText("hi")
	h.press("enter")

	assert.Equal(t, []string{"hi", "echo: hi"}, h.srv.History(1))
	assert.Zero(t, h.m.busy)
	assert.False(t, h.m.Streaming())
	assert.Empty(t, h.m.input.Value())
	assert.Contains(t, h.m.View(), "echo: hi")
}

func TestBlankMessageSendsNothing(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.srv.AddSession("s")
	h.start()
	h.press("enter")
	h.srv.ResetRequests()

	h.typeText("   ")
	h.press("enter")

	assert.Zero(t, h.srv.RequestCount())
	assert.NoError(t, h.m.err)
}

func TestCursorMovesAndClamps(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.srv.AddSession("a")
	h.srv.AddSession("b")
	h.start()

	h.press("up")
	assert.Equal(t, 0, h.m.cursor)
	h.press("j", "j", "j")
	assert.Equal(t, 1, h.m.cursor)
	h.press("k")
	assert.Equal(t, 0, h.m.cursor)
}

func TestDelete_AsksFirst(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.srv.AddSession("keep")
	h.srv.AddSession("drop")
	h.start()
	h.press("down")

	h.press("d")
	assert.Contains(t, h.m.View(), "Delete session 2 (drop)? y/n")
	h.press("n")
	assert.Equal(t, "Cancelled", h.m.status)
	assert.Zero(t, h.srv.Count(http.MethodDelete, "/sessions/2"))

	h.press("d", "y")
	assert.Equal(t, []string{"keep"}, h.srv.Titles())
	assert.Equal(t, 0, h.m.cursor)
}

func TestRename_PrefillsTitle(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.srv.AddSession("Old")
	h.start()

	h.press("r")
	require.Equal(t, "Old", h.m.input.Value())
	h.typeText(" plan")
	h.press("enter")

	assert.Equal(t, []string{"Old plan"}, h.srv.Titles())
	assert.Equal(t, "Renamed session 1", h.m.status)
}

func TestEscCancelsPromptAndKeepsDraft(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.start()

	h.press("tab")
	h.typeText("half a thought")
	h.press("tab")
	h.press("m")
	require.Equal(t, promptModel, h.m.prompt)

	h.press("esc")

	assert.Equal(t, promptNone, h.m.prompt)
	assert.Equal(t, "half a thought", h.m.input.Value())
	assert.Equal(t, messagePrompt, h.m.input.Prompt)
}

func TestModelPrompt_PersistsChoice(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.start()

	h.press("m")
	require.Equal(t, "gemma3:1b", h.m.input.Value())
	h.m.input.SetValue("llama3")
	h.press("enter")

	assert.Equal(t, "llama3", h.m.snap.Model)
	assert.Equal(t, "llama3", prefs.GetOr(h.app.Prefs, prefs.KeySelectedModel, ""))
}

func TestStateMsg_RendersStreamingReply(t *testing.T) {
	h := newTUI(t, config.VariantReactive)
	h.app.State.ReplaceSessions([]model.Session{{ID: 1, Title: "s"}})
	reply := model.NewStreamingMessage()
	reply.Content = "Hi th"
	h.app.State.Select(1, []model.Message{model.NewUserMessage("hello"), reply})

	h.update(StateMsg{Snapshot: h.app.State.Snapshot()})

	view := h.m.View()
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "Hi th")
}

func TestSend_EscStopsReply(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	h.srv.AddSession("s")
	h.srv.Reply = apitest.Chunks("first ", "second")
	h.srv.ChunkDelay = 300 * time.Millisecond
	h.start()
	h.press("enter")
	h.typeText("go")

	next, cmd := h.m.Update(keyMsg("enter"))
	h.m = next.(Model)
	require.True(t, h.m.Streaming())

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	h.update(keyMsg("esc"))
	msg := <-done
	h.update(msg)

	assert.NoError(t, h.m.err)
	assert.Equal(t, "Reply stopped", h.m.status)
	assert.False(t, h.m.Streaming())
}

func TestQuit(t *testing.T) {
	h := newTUI(t, config.VariantPlain)
	_, cmd := h.m.Update(keyMsg("ctrl+c"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
