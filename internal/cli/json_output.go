// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting.
//
// Every command run with --json writes exactly one JSONResponse to stdout.
package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/sessionchat/internal/model"
)

// JSONResponse is the envelope for all --json output.
type JSONResponse struct {
	Success bool `json:"success"`

	// Data contains the command-specific response data.
	Data any `json:"data"`

	// Error is the error message if Success is false, null otherwise.
	Error *string `json:"error"`

	// Timestamp is RFC3339 UTC.
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND DATA TYPES
// =============================================================================

// SessionListData is the data for "sessions list".
type SessionListData struct {
	Sessions  []model.Session `json:"sessions"`
	CurrentID *int            `json:"current_id"`
}

// SessionShowData is the data for "sessions show".
type SessionShowData struct {
	Session  model.Session   `json:"session"`
	Messages []model.Message `json:"messages"`
}

// AskData is the data for "ask".
type AskData struct {
	SessionID int    `json:"session_id"`
	Model     string `json:"model"`
	Reply     string `json:"reply"`
}

// AuthStatusData is the data for "auth status".
type AuthStatusData struct {
	Variant   string `json:"variant"`
	LoggedIn  bool   `json:"logged_in"`
	Username  string `json:"username,omitempty"`
	Subject   string `json:"subject,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Expired   bool   `json:"expired"`
}
