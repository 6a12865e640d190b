// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/sessionchat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts as a standalone page with embedded CSS.
// Replies are Markdown and are converted, then sanitized; user messages are
// escaped and shown as typed.
type HTMLExporter struct {
	options  *Options
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code")
	return &HTMLExporter{
		options:  opts,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   policy,
	}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}
	title := html.EscapeString(t.Session.DisplayTitle())

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", title)
	fmt.Fprintf(&sb, "    <meta name=\"generator\" content=\"%s\">\n", generator)
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n<div class=\"container\">\n", theme)

	fmt.Fprintf(&sb, "<header class=\"header\">\n<h1>%s</h1>\n", title)
	if e.options.IncludeMetadata {
		sb.WriteString("<div class=\"meta\">")
		fmt.Fprintf(&sb, "<span>Session %d</span>", t.Session.ID)
		if t.Model != "" {
			fmt.Fprintf(&sb, "<span>Model %s</span>", html.EscapeString(t.Model))
		}
		fmt.Fprintf(&sb, "<span>%d messages</span>", len(t.Messages))
		fmt.Fprintf(&sb, "<span>Exported <time datetime=\"%s\">%s</time></span>",
			t.ExportedAt.Format(time.RFC3339), formatTimestamp(t.ExportedAt))
		sb.WriteString("</div>\n")
	}
	sb.WriteString("</header>\n<main class=\"conversation\">\n")

	for _, msg := range t.Messages {
		body, err := e.renderContent(msg)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "<article class=\"message %s\">\n", roleClass(msg.Role))
		fmt.Fprintf(&sb, "<div class=\"role\">%s</div>\n", html.EscapeString(roleLabel(msg.Role)))
		fmt.Fprintf(&sb, "<div class=\"content\">%s</div>\n</article>\n", body)
	}

	sb.WriteString("</main>\n")
	fmt.Fprintf(&sb, "<footer class=\"footer\">Exported from %s</footer>\n", generator)
	sb.WriteString("</div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// renderContent returns the safe HTML body of one message.
func (e *HTMLExporter) renderContent(msg model.Message) (string, error) {
	if msg.IsUser() {
		return "<p class=\"plain\">" + html.EscapeString(msg.Content) + "</p>", nil
	}
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(msg.Content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return string(e.policy.SanitizeBytes(buf.Bytes())), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func roleClass(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "user"
	case model.RoleAssistant:
		return "assistant"
	default:
		return "other"
	}
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `    <style>
        * { box-sizing: border-box; }
        body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.6; }
        .dark-theme { background: #1a1b26; color: #c0caf5; --accent: #bb9af7; --user: #7dcfff; --surface: #24283b; --muted: #565f89; }
        .light-theme { background: #f8f8fb; color: #24283b; --accent: #7c3aed; --user: #0e7490; --surface: #ffffff; --muted: #6b7280; }
        .container { max-width: 860px; margin: 0 auto; padding: 24px; }
        .header h1 { margin: 0 0 8px; color: var(--accent); }
        .meta { display: flex; flex-wrap: wrap; gap: 16px; color: var(--muted); font-size: 0.9em; }
        .conversation { margin-top: 24px; }
        .message { background: var(--surface); border-radius: 8px; padding: 12px 16px; margin-bottom: 16px; }
        .message.user { border-left: 3px solid var(--user); }
        .message.assistant { border-left: 3px solid var(--accent); }
        .role { font-weight: 600; margin-bottom: 4px; }
        .user .role { color: var(--user); }
        .assistant .role { color: var(--accent); }
        .plain { white-space: pre-wrap; margin: 0; }
        pre { overflow-x: auto; padding: 12px; border-radius: 6px; background: rgba(0, 0, 0, 0.25); }
        code { font-family: "JetBrains Mono", Consolas, monospace; font-size: 0.9em; }
        .footer { margin-top: 32px; color: var(--muted); font-size: 0.8em; text-align: center; }
    </style>
`
