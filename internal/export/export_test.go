// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/sessionchat/internal/model"
)

func sampleTranscript(title string) *Transcript {
	t := NewTranscript(model.Session{ID: 3, Title: title}, "gemma3:1b", []model.Message{
		{Role: model.RoleUser, Content: "How cold is it?"},
		{Role: model.RoleAssistant, Content: "About **-5 degrees**.\n\n```go\nfmt.Println(\"brr\")\n```"},
	})
	t.ExportedAt = time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	return t
}

func TestNewTranscriptDropsStreamingReply(t *testing.T) {
	msgs := []model.Message{
		model.NewUserMessage("hi"),
		model.NewStreamingMessage(),
	}
	tr := NewTranscript(model.Session{ID: 1}, "", msgs)
	if len(tr.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(tr.Messages))
	}
	if tr.Messages[0].Role != model.RoleUser {
		t.Errorf("kept the wrong message: %+v", tr.Messages[0])
	}
}

func TestExportersRejectEmptyTranscript(t *testing.T) {
	tr := NewTranscript(model.Session{ID: 1}, "", nil)
	for _, format := range Formats {
		exp, err := ForFormat(format, nil)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", format, err)
		}
		if _, err := exp.Export(tr); !errors.Is(err, ErrEmptyTranscript) {
			t.Errorf("%s: expected ErrEmptyTranscript, got %v", format, err)
		}
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"", ".md"},
		{"md", ".md"},
		{"Markdown", ".md"},
		{"json", ".json"},
		{"htm", ".html"},
		{"html", ".html"},
	}
	for _, tt := range tests {
		exp, err := ForFormat(tt.format, nil)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", tt.format, err)
		}
		if exp.FileExtension() != tt.ext {
			t.Errorf("ForFormat(%q) extension = %q, want %q", tt.format, exp.FileExtension(), tt.ext)
		}
	}

	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript("Weather"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	for _, want := range []string{
		"# Weather\n",
		"### You\n\nHow cold is it?",
		"### Assistant\n\nAbout **-5 degrees**.",
		"```go\nfmt.Println(\"brr\")\n```",
		"- **Model**: gemma3:1b",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("markdown export missing %q\n%s", want, result)
		}
	}
}

func TestMarkdownFrontMatterSurvivesHostileTitle(t *testing.T) {
	title := "Test\nInjection: malicious"
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript(title))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	parts := strings.SplitN(string(out), "---\n", 3)
	if len(parts) != 3 {
		t.Fatalf("front matter not delimited:\n%s", out)
	}
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		t.Fatalf("front matter is not valid YAML: %v", err)
	}
	if fm.Title != title {
		t.Errorf("title = %q, want %q", fm.Title, title)
	}
	if fm.Session != 3 || fm.Messages != 2 {
		t.Errorf("unexpected front matter: %+v", fm)
	}
	if strings.Contains(parts[1], "\nInjection: malicious") {
		t.Error("newline in title injected a YAML key")
	}
	if !strings.Contains(parts[2], "# Test Injection: malicious\n") {
		t.Errorf("heading should be a single line:\n%s", parts[2])
	}
}

func TestMarkdownWithoutMetadata(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{}).Export(sampleTranscript("Plain [notes]"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)
	if strings.HasPrefix(result, "---") {
		t.Error("front matter written without IncludeMetadata")
	}
	if !strings.HasPrefix(result, `# Plain \[notes\]`) {
		t.Errorf("heading not escaped: %q", strings.SplitN(result, "\n", 2)[0])
	}
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript("Weather"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc struct {
		Session   model.Session `json:"session"`
		Model     string        `json:"model"`
		Generator string        `json:"generator"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Session.ID != 3 || doc.Session.Title != "Weather" {
		t.Errorf("session = %+v", doc.Session)
	}
	if doc.Model != "gemma3:1b" || doc.Generator != generator {
		t.Errorf("metadata = %q / %q", doc.Model, doc.Generator)
	}
	if len(doc.Messages) != 2 || doc.Messages[0].Role != "user" || doc.Messages[1].Role != "assistant" {
		t.Errorf("messages = %+v", doc.Messages)
	}
	if strings.Contains(string(out), "Streaming") {
		t.Error("local-only fields leaked into the export")
	}
}

func TestHTMLExport(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleTranscript("Weather"))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	for _, want := range []string{
		"<title>Weather</title>",
		"<body class=\"dark-theme\">",
		"<strong>-5 degrees</strong>",
		"<code class=\"language-go\">",
		"How cold is it?",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("html export missing %q", want)
		}
	}
}

func TestHTMLExportEscapesUserAndReplyMarkup(t *testing.T) {
	tr := NewTranscript(model.Session{ID: 9, Title: "<b>title</b>"}, "", []model.Message{
		{Role: model.RoleUser, Content: "<script>alert('user')</script>"},
		{Role: model.RoleAssistant, Content: "Here:\n\n<script>alert('reply')</script>\n\n[x](javascript:alert(1))"},
	})

	out, err := NewHTMLExporter(&Options{Theme: "light"}).Export(tr)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	result := string(out)

	if strings.Contains(result, "<script>") {
		t.Error("script tag survived the export")
	}
	if strings.Contains(result, "javascript:") {
		t.Error("javascript link survived sanitizing")
	}
	if !strings.Contains(result, "&lt;script&gt;alert(&#39;user&#39;)&lt;/script&gt;") {
		t.Error("user message should be shown escaped")
	}
	if !strings.Contains(result, "<title>&lt;b&gt;title&lt;/b&gt;</title>") {
		t.Error("title not escaped")
	}
	if !strings.Contains(result, "<body class=\"light-theme\">") {
		t.Error("light theme not applied")
	}
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	tr := sampleTranscript("Trip: planning/ideas")

	path, err := ToFile(tr, NewMarkdownExporter(nil), &Options{OutputDir: filepath.Join(dir, "out"), IncludeMetadata: true})
	if err != nil {
		t.Fatalf("ToFile failed: %v", err)
	}

	want := "session_3_Trip-_planning-ideas_20250102_150405.md"
	if filepath.Base(path) != want {
		t.Errorf("file name = %q, want %q", filepath.Base(path), want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "How cold is it?") {
		t.Error("exported file is missing the conversation")
	}
}

func TestToFileEmptyWritesNothing(t *testing.T) {
	dir := t.TempDir()
	tr := NewTranscript(model.Session{ID: 1}, "", nil)

	if _, err := ToFile(tr, NewJSONExporter(nil), &Options{OutputDir: dir}); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files, found %d", len(entries))
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "session"},
		{"a/b\\c", "a-b-c"},
		{"two words", "two_words"},
		{"bell\x07", "bell-"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
