// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme()

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"SessionList", theme.SessionList},
		{"SessionItemSelected", theme.SessionItemSelected},
		{"Messages", theme.Messages},
		{"InputFocused", theme.InputFocused},
		{"StatusBar", theme.StatusBar},
		{"ErrorBar", theme.ErrorBar},
		{"AuthError", theme.AuthError},
	}

	for _, s := range styles {
		if rendered := s.style.Render("test"); !strings.Contains(rendered, "test") {
			t.Errorf("%s style lost its content: %q", s.name, rendered)
		}
	}
}

func TestPanelsHaveBorders(t *testing.T) {
	theme := NewTheme()
	for name, style := range map[string]lipgloss.Style{
		"SessionList":  theme.SessionList,
		"Messages":     theme.Messages,
		"InputFocused": theme.InputFocused,
	} {
		if got := lipgloss.Height(style.Render("x")); got != 3 {
			t.Errorf("%s height = %d, want 3 (border above and below)", name, got)
		}
	}
}

func TestMarkdownRender(t *testing.T) {
	md := NewMarkdown(true)

	out := md.Render("# Title\n\nsome **bold** text", 40)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("Render() = %q, missing content", out)
	}
	if strings.Contains(out, "**") {
		t.Errorf("Render() = %q, emphasis markers should be consumed", out)
	}

	if again := md.Render("# Title\n\nsome **bold** text", 40); again != out {
		t.Error("Render() should be stable for the same input and width")
	}
	if len(md.cache) != 1 {
		t.Errorf("cache size = %d, want 1", len(md.cache))
	}

	md.Render("other", 60)
	if len(md.cache) != 1 {
		t.Errorf("cache should be reset on width change, size = %d", len(md.cache))
	}
}

func TestMarkdownNarrowWidth(t *testing.T) {
	md := NewMarkdown(false)
	md.Render("hello", 5)
	if md.width != 20 {
		t.Errorf("width = %d, want clamp to 20", md.width)
	}
}
