// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and usage text for sessionchat.
package cli

import (
	"fmt"
	"io"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdSessions
	CmdLogin
	CmdRegister
	CmdLogout
	CmdAuth
	CmdModel
	CmdConfig
	CmdDoctor
	CmdSetup
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	URL     string
	Model   string
	Plain   bool
	JSON    bool
	Quiet   bool
	Verbose bool

	// Name is the command word as typed, for error messages.
	Name string

	// Raw args after the command word, flags included.
	Raw []string
}

// Parser returns an ArgParser over the command's own arguments.
func (a Args) Parser() *ArgParser {
	return NewArgParser(a.Raw)
}

const usageText = `sessionchat - terminal client for a session-based chat API

Usage:
  sessionchat                         Start the TUI (reactive variant)
  sessionchat chat [--plain]          Line-mode chat REPL
  sessionchat ask <session-id> TEXT   Send one message and stream the reply
  sessionchat sessions [subcommand]   Session management
  sessionchat login [USERNAME]        Log in and store the token
  sessionchat register [USERNAME]     Create an account
  sessionchat logout                  Forget the stored token
  sessionchat auth status             Show the logged-in user and token expiry
  sessionchat model [NAME]            Show or set the model sent with messages
  sessionchat config [show|path|init|set KEY VALUE]
  sessionchat setup                   First-run wizard: server, variant, model
  sessionchat doctor                  Check config, server, preferences and login
  sessionchat version | help

Session Commands:
  sessionchat sessions list           List sessions (default)
  sessionchat sessions create [TITLE] Create a session ("New chat" when blank)
  sessionchat sessions rename ID TITLE
  sessionchat sessions delete ID      Delete a session
    --confirm                         Skip the confirmation prompt
  sessionchat sessions show ID        Print a session's messages
  sessionchat sessions export ID      Save a session to a file
    --format markdown|json|html       Output format (default: markdown)
    --output PATH                     File to write, or - for stdout
    --dir DIR                         Directory for a generated file name
    --theme dark|light                HTML color theme
    --no-metadata                     Leave out model and export details

Ask:
  sessionchat ask ID TEXT             Send to session ID
  sessionchat ask --new TEXT          Send to a new session
  Use -- before TEXT that starts with a dash.

Chat Commands (inside the REPL):
  /sessions            List sessions
  /new [TITLE]         Create a session
  /use ID              Switch to a session
  /rename ID TITLE     Rename a session
  /delete ID           Delete a session
  /history, /reload    Show or refetch messages of the current session
  /model [NAME]        Show or switch model
  /export [FORMAT]     Save the current session to a file
  /login, /register    Authenticate (reactive variant)
  /logout, /whoami     Forget credentials, show login
  /help, /quit

Global Flags:
  --url URL       API base URL (overrides config)
  --model NAME    Model for this run (not persisted)
  --plain         Run the plain variant: no auth, reload after each reply
  --json          Output in JSON format
  -q, --quiet     Minimal output
  -v, --verbose   Debug logging

Environment:
  SESSIONCHAT_URL, SESSIONCHAT_MODEL, SESSIONCHAT_VARIANT, SESSIONCHAT_TIMEOUT,
  SESSIONCHAT_LOG_LEVEL, SESSIONCHAT_TELEMETRY, SESSIONCHAT_HOME

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "sessionchat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments (without the program name) and
// returns the command and args.
func Parse(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	parsed.Name = strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]

	switch parsed.Name {
	case "tui":
		return CmdTUI, parsed
	case "chat", "repl":
		return CmdChat, parsed
	case "ask":
		return CmdAsk, parsed
	case "sessions", "session", "s":
		return CmdSessions, parsed
	case "login":
		return CmdLogin, parsed
	case "register", "signup":
		return CmdRegister, parsed
	case "logout":
		return CmdLogout, parsed
	case "auth":
		return CmdAuth, parsed
	case "model", "models":
		return CmdModel, parsed
	case "config":
		return CmdConfig, parsed
	case "doctor", "diag":
		return CmdDoctor, parsed
	case "setup", "wizard":
		return CmdSetup, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		return CmdUnknown, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--plain":
			parsed.Plain = true
		case "--json":
			parsed.JSON = true
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--model", "--url":
			if i+1 < len(args) {
				i++
				if arg == "--model" {
					parsed.Model = args[i]
				} else {
					parsed.URL = args[i]
				}
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--url="):
				parsed.URL = strings.TrimPrefix(arg, "--url=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsed
}
