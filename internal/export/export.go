// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/util"
)

// generator names the tool in exported metadata.
const generator = "sessionchat"

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("session has no messages")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is one session's history as shown to the user.
type Transcript struct {
	Session    model.Session
	Model      string
	Messages   []model.Message
	ExportedAt time.Time
}

// NewTranscript builds a transcript, dropping any reply still streaming.
func NewTranscript(s model.Session, modelName string, msgs []model.Message) *Transcript {
	kept := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.Streaming {
			kept = append(kept, m)
		}
	}
	return &Transcript{
		Session:    s,
		Model:      modelName,
		Messages:   kept,
		ExportedAt: time.Now(),
	}
}

func (t *Transcript) validate() error {
	if t == nil {
		return fmt.Errorf("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one format.
type Exporter interface {
	// Export returns the formatted content.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where ToFile writes. Default: current directory.
	OutputDir string

	// IncludeMetadata adds the session, model and export time.
	IncludeMetadata bool

	// Theme for HTML export ("light" or "dark"). Default: "dark".
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		Theme:           "dark",
	}
}

// Formats lists the accepted format names.
var Formats = []string{"markdown", "json", "html"}

// ForFormat returns the exporter for a format name or its short alias.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (want one of: %s)", format, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile exports t into opts.OutputDir under a generated name and returns
// the path written.
func ToFile(t *Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := t.validate(); err != nil {
		return "", err
	}
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(t, exporter))
	if err := ToPath(t, exporter, path); err != nil {
		return "", err
	}
	return path, nil
}

// ToPath exports t to path, creating parent directories as needed.
func ToPath(t *Transcript, exporter Exporter, path string) error {
	content, err := exporter.Export(t)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Filename returns the generated file name for t, e.g.
// "session_3_Trip_planning_20250102_150405.md".
func Filename(t *Transcript, exporter Exporter) string {
	return fmt.Sprintf("session_%d_%s_%s%s",
		t.Session.ID,
		sanitizeFilename(t.Session.DisplayTitle()),
		t.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// filenameReplacer maps characters invalid on Windows or Unix.
var filenameReplacer = map[rune]rune{
	'/': '-', '\\': '-', ':': '-', '*': '-', '?': '-',
	'"': '-', '<': '-', '>': '-', '|': '-',
	' ': '_', '\t': '_', '\n': '_', '\r': '_',
}

// sanitizeFilename makes s safe to use in a file name, limited to 50 runes.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		if repl, ok := filenameReplacer[r]; ok {
			result = append(result, repl)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "session"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
