// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sessionchat/internal/app"
	"github.com/jeranaias/sessionchat/internal/auth"
	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/state"
	"github.com/jeranaias/sessionchat/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

type focusArea int

const (
	focusList focusArea = iota
	focusInput
)

// promptMode is what the input line is currently collecting.
type promptMode int

const (
	promptNone promptMode = iota
	promptTitle
	promptRename
	promptUsername
	promptPassword
	promptModel
)

const messagePrompt = "> "

// Model is the bubbletea model of the TUI.
type Model struct {
	app   *app.App
	ctx   context.Context
	theme *styles.Theme
	keys  KeyMap
	md    *styles.Markdown

	snap   state.Snapshot
	cursor int
	focus  focusArea

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model

	prompt      promptMode
	authOp      opKind
	pendingUser string
	renameID    int
	confirmID   int
	draft       string

	busy       int
	cancelSend context.CancelFunc

	status  string
	err     error
	authErr bool

	width  int
	height int
	ready  bool
}

// New creates the TUI model. ctx bounds every operation it starts.
func New(ctx context.Context, a *app.App, theme *styles.Theme) Model {
	input := textinput.New()
	input.Prompt = messagePrompt
	input.Placeholder = "Type a message"
	input.PromptStyle = theme.InputPrompt
	input.CharLimit = 0

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Spinner

	m := Model{
		app:      a,
		ctx:      ctx,
		theme:    theme,
		keys:     DefaultKeyMap(),
		md:       styles.NewMarkdown(theme.IsDark),
		input:    input,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		help:     help.New(),
		snap:     a.State.Snapshot(),
	}
	return m
}

// Init starts the startup fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.spinner.Tick)
}

// Update handles a message and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refreshViewport(true)
		return m, nil

	case StateMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case opDoneMsg:
		return m.handleOpDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// STATE
// =============================================================================

func (m *Model) applySnapshot(snap state.Snapshot) {
	sessionChanged := snap.CurrentID != m.snap.CurrentID || snap.HasCurrent != m.snap.HasCurrent
	m.snap = snap
	if m.cursor >= len(snap.Sessions) {
		m.cursor = len(snap.Sessions) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.refreshViewport(sessionChanged)
}

// selectedSession returns the session under the list cursor.
func (m Model) selectedSession() (model.Session, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Sessions) {
		return model.Session{}, false
	}
	return m.snap.Sessions[m.cursor], true
}

func (m *Model) moveCursorTo(id int) {
	for i, s := range m.snap.Sessions {
		if s.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if m.busy > 0 {
		m.busy--
	}
	if msg.op == opSend {
		m.cancelSend = nil
	}
	m.applySnapshot(m.app.State.Snapshot())

	if msg.err != nil {
		if !errors.Is(msg.err, model.ErrSkipped) {
			m.err = msg.err
			m.authErr = msg.op == opLogin || msg.op == opRegister
			m.status = ""
		}
		return m, nil
	}

	m.err = nil
	m.status = msg.status
	switch msg.op {
	case opCreate:
		m.moveCursorTo(msg.sessionID)
	case opSelect:
		m.moveCursorTo(msg.sessionID)
		m.focus = focusInput
		return m, m.input.Focus()
	case opLogin:
		m.cursor = 0
		m.focus = focusList
	}
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.cancelSend != nil {
			m.cancelSend()
		}
		return m, tea.Quit
	}
	if m.confirmID != 0 {
		return m.handleConfirmKey(msg)
	}
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}

	m.err = nil
	if key.Matches(msg, m.keys.Focus) {
		return m.toggleFocus()
	}
	if m.focus == focusList {
		return m.handleListKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) toggleFocus() (tea.Model, tea.Cmd) {
	if m.focus == focusList {
		m.focus = focusInput
		return m, m.input.Focus()
	}
	m.focus = focusList
	m.input.Blur()
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Sessions)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if s, ok := m.selectedSession(); ok {
			return m.begin(m.selectCmd(s.ID))
		}
	case key.Matches(msg, m.keys.New):
		if err := m.needLogin(); err != nil {
			m.err = err
			return m, nil
		}
		return m.startPrompt(promptTitle, "Title: ", "")
	case key.Matches(msg, m.keys.Rename):
		if s, ok := m.selectedSession(); ok {
			m.renameID = s.ID
			return m.startPrompt(promptRename, fmt.Sprintf("Rename %d: ", s.ID), s.Title)
		}
	case key.Matches(msg, m.keys.Delete):
		if s, ok := m.selectedSession(); ok {
			m.confirmID = s.ID
		}
	case key.Matches(msg, m.keys.Login), key.Matches(msg, m.keys.Register):
		if m.app.Plain() {
			m.err = app.ErrPlainVariant
			return m, nil
		}
		m.authOp = opLogin
		if key.Matches(msg, m.keys.Register) {
			m.authOp = opRegister
		}
		return m.startPrompt(promptUsername, "Username: ", "")
	case key.Matches(msg, m.keys.Logout):
		if m.app.Plain() {
			m.err = app.ErrPlainVariant
			return m, nil
		}
		return m.begin(m.logoutCmd())
	case key.Matches(msg, m.keys.Model):
		return m.startPrompt(promptModel, "Model: ", m.snap.Model)
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		if m.cancelSend != nil {
			return m, nil
		}
		text := m.input.Value()
		m.input.Reset()
		return m.send(text)
	case key.Matches(msg, m.keys.Cancel):
		if m.cancelSend != nil {
			m.cancelSend()
			return m, nil
		}
		return m.toggleFocus()
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.confirmID
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.confirmID = 0
		return m.begin(m.deleteCmd(id))
	case key.Matches(msg, m.keys.No):
		m.confirmID = 0
		m.status = "Cancelled"
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.endPrompt()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		mode := m.prompt
		m.endPrompt()

		switch mode {
		case promptTitle:
			return m.begin(m.createCmd(value))
		case promptRename:
			return m.begin(m.renameCmd(m.renameID, value))
		case promptUsername:
			m.pendingUser = value
			return m.startPrompt(promptPassword, "Password: ", "")
		case promptPassword:
			user := m.pendingUser
			m.pendingUser = ""
			if m.authOp == opRegister {
				return m.begin(m.registerCmd(user, value))
			}
			return m.begin(m.loginCmd(user, value))
		case promptModel:
			return m.begin(m.modelCmd(value))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// PROMPTS
// =============================================================================

// startPrompt turns the input line into a prompt, keeping any message draft.
func (m Model) startPrompt(mode promptMode, label, initial string) (tea.Model, tea.Cmd) {
	if m.prompt == promptNone {
		m.draft = m.input.Value()
	}
	m.prompt = mode
	m.input.Prompt = label
	m.input.Placeholder = ""
	m.input.SetValue(initial)
	m.input.CursorEnd()
	if mode == promptPassword {
		m.input.EchoMode = textinput.EchoPassword
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
	return m, m.input.Focus()
}

// endPrompt restores the message input and its draft.
func (m *Model) endPrompt() {
	m.prompt = promptNone
	m.input.Prompt = messagePrompt
	m.input.Placeholder = "Type a message"
	m.input.EchoMode = textinput.EchoNormal
	m.input.SetValue(m.draft)
	m.draft = ""
	if m.focus == focusList {
		m.input.Blur()
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// begin counts cmd as an operation in flight.
func (m Model) begin(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy++
	m.status = ""
	return m, cmd
}

func (m Model) send(text string) (tea.Model, tea.Cmd) {
	if err := m.needLogin(); err != nil {
		m.err = err
		return m, nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelSend = cancel
	return m.begin(m.sendCmd(ctx, cancel, text))
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	if !m.snap.HasCurrent {
		return m, nil
	}
	return m.begin(m.reloadCmd())
}

// needLogin reports a missing login in the reactive variant before any
// request is made.
func (m Model) needLogin() error {
	if m.app.Plain() || m.snap.Auth.LoggedIn() {
		return nil
	}
	return fmt.Errorf("%w; press L to log in", auth.ErrNotLoggedIn)
}

// Streaming reports whether a reply is being received.
func (m Model) Streaming() bool {
	return m.cancelSend != nil
}
