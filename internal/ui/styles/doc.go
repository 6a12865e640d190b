// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling of the sessionchat TUI.

# Colors (colors.go)

Accent colors: Purple for the assistant and selections, Cyan for the brand
and focused panels, Emerald for success. Rose marks errors and Amber marks
confirmations. Every color is a lipgloss.AdaptiveColor.

# Theme (theme.go)

NewTheme detects the terminal profile with termenv and builds one
lipgloss.Style per region: header, session list, messages, input, status
bar and error bar.

# Markdown (markdown.go)

Markdown renders finished assistant replies with glamour. Replies that are
still streaming are shown as plain text.
*/
package styles
