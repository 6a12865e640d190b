// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit codes for sessionchat commands.
//
// Handlers always return errors; main decides how to display them and
// which exit code to use.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeranaias/sessionchat/internal/api"
	"github.com/jeranaias/sessionchat/internal/app"
	"github.com/jeranaias/sessionchat/internal/auth"
	"github.com/jeranaias/sessionchat/internal/config"
	"github.com/jeranaias/sessionchat/internal/directory"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// UsageError reports a missing or unknown subcommand.
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s", e.Usage)
}

// ErrMissingArgument creates a usage error for a missing argument.
func ErrMissingArgument(command, usage string) error {
	return &UsageError{Command: command, Usage: usage}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err in the standard format. Server details are shown
// verbatim, as the web pages alerted them.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[Error]"), api.UserMessage(err))
}

// DisplayErrorJSON writes err as a JSON object.
func DisplayErrorJSON(w io.Writer, err error) {
	output := map[string]any{
		"success": false,
		"error":   api.UserMessage(err),
	}

	var reqErr *api.RequestError
	var validationErr *ValidationError
	switch {
	case errors.As(err, &reqErr):
		output["error_type"] = "request_error"
		output["kind"] = reqErr.Kind.String()
		output["op"] = reqErr.Op
		if reqErr.StatusCode != 0 {
			output["status"] = reqErr.StatusCode
		}
	case errors.As(err, &validationErr):
		output["error_type"] = "validation_error"
		output["field"] = validationErr.Field
		output["reason"] = validationErr.Reason
	default:
		output["error_type"] = "generic_error"
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var usageErr *UsageError
	if errors.As(err, &validationErr) || errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var cfgErrs config.ValidateErrors
	if errors.As(err, &cfgErrs) {
		return ExitConfigError
	}

	if errors.Is(err, directory.ErrUnknownSession) {
		return ExitNotFoundError
	}
	if errors.Is(err, auth.ErrNotLoggedIn) {
		return ExitAuthError
	}
	if errors.Is(err, app.ErrPlainVariant) {
		return ExitUsageError
	}

	switch {
	case api.IsUnauthorized(err), api.IsStatus(err, http.StatusForbidden):
		return ExitAuthError
	case api.IsStatus(err, http.StatusNotFound):
		return ExitNotFoundError
	case api.IsTimeout(err):
		return ExitTimeoutError
	case api.IsTransport(err):
		return ExitNetworkError
	}
	return ExitGeneralError
}
