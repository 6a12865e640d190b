// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the line-mode commands of sessionchat.
//
// Parse turns os.Args into a Command and Args; main builds an app.App and
// a Runner and calls the matching handler. Handlers return errors and never
// exit; GetExitCode maps an error to the process exit code.
//
// # Commands
//
//   - chat: interactive REPL with slash commands
//   - ask: send one message and stream the reply
//   - sessions: list, create, rename, delete and show sessions
//   - login, register, logout, auth status: reactive variant accounts
//   - model, config: local settings
//
// All commands support --json, which writes a single JSONResponse.
package cli
