// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/sessionchat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// frontMatter is the YAML header of a Markdown export.
type frontMatter struct {
	Title     string `yaml:"title"`
	Session   int    `yaml:"session"`
	Model     string `yaml:"model,omitempty"`
	Messages  int    `yaml:"messages"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		// yaml quotes titles that would otherwise break the header.
		header, err := yaml.Marshal(frontMatter{
			Title:     t.Session.DisplayTitle(),
			Session:   t.Session.ID,
			Model:     t.Model,
			Messages:  len(t.Messages),
			Exported:  t.ExportedAt.Format(time.RFC3339),
			Generator: generator,
		})
		if err != nil {
			return nil, fmt.Errorf("encode front matter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(header)
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(t.Session.DisplayTitle()))

	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "- **Session**: %d\n", t.Session.ID)
		if t.Model != "" {
			fmt.Fprintf(&sb, "- **Model**: %s\n", t.Model)
		}
		fmt.Fprintf(&sb, "- **Messages**: %d\n", len(t.Messages))
		fmt.Fprintf(&sb, "- **Exported**: %s\n", formatTimestamp(t.ExportedAt))
		sb.WriteString("\n---\n\n")
	}

	for i, msg := range t.Messages {
		fmt.Fprintf(&sb, "### %s\n\n", roleLabel(msg.Role))
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")
		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// roleLabel returns the heading label for a role.
func roleLabel(role model.Role) string {
	if role == "" {
		return "Unknown"
	}
	return role.DisplayName()
}

var markdownEscaper = strings.NewReplacer(
	"#", `\#`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"\n", " ",
)

// escapeMarkdown escapes characters that break formatting in headings.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
