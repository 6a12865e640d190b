// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a session's history to a file or stream.
//
// # Key Types
//
//   - Transcript: a session, its messages and the model in use
//   - Exporter: converts a transcript to one format
//   - Options: metadata and output directory settings
//
// # Supported Formats
//
//   - Markdown: YAML front matter followed by the conversation
//   - JSON: the session and messages as sent by the API
//   - HTML: a standalone page; replies are rendered from Markdown and
//     sanitized
//
// # Usage
//
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ToFile(transcript, exp, nil)
//
// Streaming placeholders are never exported; a transcript holds only
// finished messages.
package export
