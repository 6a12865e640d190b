// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders completed assistant replies. Renderers are rebuilt only
// when the wrap width changes; rendered output is cached per message.
type Markdown struct {
	dark     bool
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

// NewMarkdown returns a renderer using the dark or light glamour style.
func NewMarkdown(dark bool) *Markdown {
	return &Markdown{dark: dark, cache: make(map[string]string)}
}

// Render renders content wrapped at width. On failure the content is
// returned unchanged.
func (m *Markdown) Render(content string, width int) string {
	if width < 20 {
		width = 20
	}
	if width != m.width || m.renderer == nil {
		style := "light"
		if m.dark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		m.renderer = r
		m.width = width
		clear(m.cache)
	}

	if out, ok := m.cache[content]; ok {
		return out
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	out = strings.Trim(out, "\n")
	m.cache[content] = out
	return out
}
