// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sessionchat/internal/api"
	"github.com/jeranaias/sessionchat/internal/util"
)

// Layout: header (1) + panels + input panel (3) + status (1) + help (1).
const (
	headerHeight = 1
	inputHeight  = 3
	footerHeight = 2
	minListWidth = 20
	maxListWidth = 36
)

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) listWidth() int {
	return min(max(m.width/4, minListWidth), maxListWidth)
}

func (m Model) bodyHeight() int {
	return max(m.height-headerHeight-inputHeight-footerHeight, 3)
}

// layout sizes the viewport and input to the window. Panels draw a border
// and one column of padding on each side.
func (m *Model) layout() {
	m.viewport.Width = max(m.width-m.listWidth()-4, 10)
	m.viewport.Height = m.bodyHeight() - 2
	m.input.Width = max(m.width-4-lipgloss.Width(m.input.Prompt)-1, 10)
	m.help.Width = m.width
}

// refreshViewport re-renders the conversation. The view follows new
// content while it is scrolled to the bottom.
func (m *Model) refreshViewport(jumpToBottom bool) {
	follow := jumpToBottom || m.viewport.AtBottom()
	m.viewport.SetContent(m.renderConversation(m.viewport.Width))
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSessions(),
		m.renderMessages(),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatus(),
		m.renderHelp(),
	)
}

func (m Model) renderHeader() string {
	t := m.theme
	parts := []string{
		t.HeaderBrand.Render("sessionchat"),
		t.HeaderInfo.Render(m.app.Config.Client.Variant),
		t.HeaderInfo.Render(m.snap.Model),
	}
	switch {
	case m.app.Plain():
	case m.snap.Auth.LoggedIn():
		parts = append(parts, t.StatusOK.Render(m.snap.Auth.Username))
	default:
		parts = append(parts, t.StatusDim.Render("not logged in"))
	}
	if s, ok := m.snap.Current(); ok {
		parts = append(parts, t.HeaderInfo.Render(fmt.Sprintf("#%d %s", s.ID, util.SingleLine(s.DisplayTitle()))))
	}
	line := strings.Join(parts, t.StatusDim.Render(" | "))
	return t.Header.Width(m.width).MaxWidth(m.width).MaxHeight(headerHeight).Render(line)
}

// =============================================================================
// SESSION LIST
// =============================================================================

func (m Model) renderSessions() string {
	t := m.theme
	width, height := m.listWidth(), m.bodyHeight()
	inner := width - 4
	rows := height - 2

	style := t.SessionList
	if m.focus == focusList && m.prompt == promptNone {
		style = t.SessionListFocused
	}

	var lines []string
	switch {
	case !m.app.Plain() && !m.snap.Auth.LoggedIn():
		lines = []string{t.Placeholder.Render("L to log in"), t.Placeholder.Render("R to register")}
	case len(m.snap.Sessions) == 0:
		lines = []string{t.Placeholder.Render("No sessions."), t.Placeholder.Render("n to create one")}
	default:
		start := 0
		if m.cursor >= rows {
			start = m.cursor - rows + 1
		}
		end := min(start+rows, len(m.snap.Sessions))
		for i := start; i < end; i++ {
			lines = append(lines, m.renderSessionItem(i, inner))
		}
	}

	return style.
		Width(width - 2).
		Height(rows).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderSessionItem(i, width int) string {
	t := m.theme
	s := m.snap.Sessions[i]

	marker := "  "
	if m.snap.HasCurrent && s.ID == m.snap.CurrentID {
		marker = t.SessionItemCurrent.Render("* ")
	}
	id := t.SessionID.Render(util.PadRight(fmt.Sprintf("%d", s.ID), 4))
	title := util.TruncateWidth(util.SingleLine(s.DisplayTitle()), max(width-6, 1))

	switch {
	case i == m.cursor && m.focus == focusList:
		title = t.SessionItemSelected.Render(title)
	case i == m.cursor:
		title = t.SessionItem.Underline(true).Render(title)
	default:
		title = t.SessionItem.Render(title)
	}
	return marker + id + title
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m Model) renderMessages() string {
	width := m.width - m.listWidth()
	return m.theme.Messages.
		Width(width - 2).
		Height(m.bodyHeight() - 2).
		Render(m.viewport.View())
}

// renderConversation renders the cached messages of the current session.
func (m Model) renderConversation(width int) string {
	t := m.theme
	if !m.snap.HasCurrent {
		return t.Placeholder.Render("Select a session with enter, or press n to create one.")
	}
	if len(m.snap.Messages) == 0 {
		return t.Placeholder.Render("No messages yet. Press tab and type one.")
	}

	blocks := make([]string, 0, len(m.snap.Messages))
	for _, msg := range m.snap.Messages {
		var b strings.Builder
		if msg.IsUser() {
			b.WriteString(t.UserLabel.Render(msg.Role.DisplayName()))
			b.WriteString("\n")
			b.WriteString(t.UserText.Width(width).Render(msg.Content))
		} else {
			b.WriteString(t.AssistantLabel.Render(msg.Role.DisplayName()))
			b.WriteString("\n")
			switch {
			case msg.Streaming && msg.Content == "":
				b.WriteString(t.Placeholder.Render("..."))
			case msg.Streaming:
				b.WriteString(t.AssistantText.Width(width).Render(msg.Content))
			default:
				b.WriteString(m.md.Render(msg.Content, width))
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// =============================================================================
// INPUT AND FOOTER
// =============================================================================

func (m Model) renderInput() string {
	style := m.theme.Input
	if m.focus == focusInput || m.prompt != promptNone {
		style = m.theme.InputFocused
	}
	return style.Width(m.width - 2).Render(m.input.View())
}

func (m Model) renderStatus() string {
	t := m.theme
	var line string
	switch {
	case m.err != nil && m.authErr:
		line = t.AuthError.Render(api.UserMessage(m.err))
	case m.err != nil:
		line = t.ErrorBar.Render("[Error] " + api.UserMessage(m.err))
	case m.confirmID != 0:
		title := ""
		for _, s := range m.snap.Sessions {
			if s.ID == m.confirmID {
				title = s.DisplayTitle()
			}
		}
		line = t.ConfirmBar.Render(fmt.Sprintf("Delete session %d (%s)? y/n", m.confirmID, util.SingleLine(title)))
	case m.busy > 0:
		label := "Working"
		if m.Streaming() {
			label = "Receiving reply, esc to stop"
		}
		line = t.StatusBar.Render(m.spinner.View() + " " + label)
	default:
		line = t.StatusBar.Render(m.status)
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

func (m Model) renderHelp() string {
	var keys help.KeyMap = inputHelp{k: m.keys}
	if m.focus == focusList {
		keys = listHelp{k: m.keys, plain: m.app.Plain()}
	}
	return m.help.View(keys)
}
