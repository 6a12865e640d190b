// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/sessionchat/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts as JSON. Messages keep the wire shape
// of GET /msgs/{id} so an export reads like an API response.
type JSONExporter struct {
	options *Options
}

// jsonTranscript is the exported document.
type jsonTranscript struct {
	Session    model.Session   `json:"session"`
	Model      string          `json:"model,omitempty"`
	ExportedAt *time.Time      `json:"exported_at,omitempty"`
	Generator  string          `json:"generator,omitempty"`
	Messages   []model.Message `json:"messages"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	doc := jsonTranscript{
		Session:  t.Session,
		Messages: t.Messages,
	}
	if e.options.IncludeMetadata {
		at := t.ExportedAt.UTC()
		doc.Model = t.Model
		doc.ExportedAt = &at
		doc.Generator = generator
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
