// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles of every TUI region.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderInfo  lipgloss.Style

	// ==========================================================================
	// SESSION LIST
	// ==========================================================================

	SessionList         lipgloss.Style
	SessionListFocused  lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionItemCurrent  lipgloss.Style
	SessionID           lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	Messages       lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	AssistantText  lipgloss.Style
	Placeholder    lipgloss.Style

	// ==========================================================================
	// INPUT AND PROMPTS
	// ==========================================================================

	Input        lipgloss.Style
	InputFocused lipgloss.Style
	InputPrompt  lipgloss.Style
	ConfirmBar   lipgloss.Style

	// ==========================================================================
	// STATUS AND ERRORS
	// ==========================================================================

	StatusBar lipgloss.Style
	StatusOK  lipgloss.Style
	StatusDim lipgloss.Style
	ErrorBar  lipgloss.Style
	AuthError lipgloss.Style
	Spinner   lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HeaderInfo = lipgloss.NewStyle().
		Foreground(TextSecondary)

	panel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SessionList = panel
	t.SessionListFocused = panel.BorderForeground(Cyan)
	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.SessionItemSelected = lipgloss.NewStyle().
		Foreground(Purple).
		Background(SurfaceBright).
		Bold(true)
	t.SessionItemCurrent = lipgloss.NewStyle().
		Foreground(Emerald)
	t.SessionID = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Messages = panel
	t.UserLabel = lipgloss.NewStyle().
		Foreground(UserFg).
		Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.AssistantText = lipgloss.NewStyle().
		Foreground(AssistantFg)
	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Input = panel
	t.InputFocused = panel.BorderForeground(Cyan)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ConfirmBar = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusOK = lipgloss.NewStyle().
		Foreground(Emerald)
	t.StatusDim = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.ErrorBar = lipgloss.NewStyle().
		Foreground(Rose).
		Background(RoseDeep).
		Padding(0, 1)
	t.AuthError = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Bold(true).
		Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
}
