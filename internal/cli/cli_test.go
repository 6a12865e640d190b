// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jeranaias/sessionchat/internal/api"
	"github.com/jeranaias/sessionchat/internal/app"
	"github.com/jeranaias/sessionchat/internal/auth"
	"github.com/jeranaias/sessionchat/internal/directory"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"list"},
			wantSub: "list",
		},
		{
			name:    "flag with equals",
			args:    []string{"show", "--format=json"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "json" {
					t.Errorf("Flag(format) = %q, want %q", p.Flag("format"), "json")
				}
			},
		},
		{
			name:    "boolean flag",
			args:    []string{"show", "--json"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be true")
				}
			},
		},
		{
			name:    "multi-word title",
			args:    []string{"rename", "3", "Trip", "to", "Lisbon"},
			wantSub: "rename",
			validate: func(t *testing.T, p *ArgParser) {
				if got := JoinPositionalArgs(p, 2); got != "Trip to Lisbon" {
					t.Errorf("JoinPositionalArgs(2) = %q, want %q", got, "Trip to Lisbon")
				}
			},
		},
		{
			name:    "confirm does not swallow the id",
			args:    []string{"delete", "--confirm", "3"},
			wantSub: "delete",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be true")
				}
				if p.Positional(1) != "3" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "3")
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"--new", "--", "--verbose", "is", "text"},
			wantSub: "--verbose",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("new") {
					t.Error("BoolFlag(new) should be true")
				}
				if p.HasFlag("verbose") {
					t.Error("--verbose after -- must be positional")
				}
				if got := JoinPositionalArgs(p, 0); got != "--verbose is text" {
					t.Errorf("JoinPositionalArgs(0) = %q", got)
				}
			},
		},
		{
			name:    "negative number is positional",
			args:    []string{"1", "-5", "degrees"},
			wantSub: "1",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 3 {
					t.Errorf("PositionalCount() = %d, want 3", p.PositionalCount())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	parser := NewArgParser([]string{})
	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if parser.PositionalCount() != 0 {
		t.Errorf("PositionalCount() = %d, want 0", parser.PositionalCount())
	}
	if got := parser.PositionalFrom(1); len(got) != 0 {
		t.Errorf("PositionalFrom(1) = %v, want empty", got)
	}
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	parser := NewArgParser([]string{"cmd", "--present", "value"})

	if parser.FlagOrDefault("present", "default") != "value" {
		t.Error("FlagOrDefault should return actual value when present")
	}
	if parser.FlagOrDefault("missing", "default") != "default" {
		t.Error("FlagOrDefault should return default when missing")
	}
}

func TestParseSessionID(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"42", 42, false},
		{"", 0, true},
		{"0", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSessionID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSessionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSessionID(%q) = %d, want %d", tt.input, got, tt.want)
			}
			var verr *ValidationError
			if tt.wantErr && !errors.As(err, &verr) {
				t.Errorf("error should be a *ValidationError, got %T", err)
			}
		})
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"YES", true, false},
		{"on", true, false},
		{"0", false, false},
		{" n ", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBoolString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBoolString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no args starts the TUI",
			args:        nil,
			wantCommand: CmdTUI,
		},
		{
			name:        "plain chat",
			args:        []string{"--plain", "chat"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if !a.Plain {
					t.Error("Plain should be true")
				}
			},
		},
		{
			name:        "global flags after the command",
			args:        []string{"ask", "1", "hello", "--model", "llama3", "--json"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Model != "llama3" {
					t.Errorf("Model = %q, want %q", a.Model, "llama3")
				}
				if !a.JSON {
					t.Error("JSON should be true")
				}
				if strings.Join(a.Raw, " ") != "1 hello" {
					t.Errorf("Raw = %v, want [1 hello]", a.Raw)
				}
			},
		},
		{
			name:        "url with equals",
			args:        []string{"--url=http://chat.local:9000", "sessions"},
			wantCommand: CmdSessions,
			validate: func(t *testing.T, a Args) {
				if a.URL != "http://chat.local:9000" {
					t.Errorf("URL = %q", a.URL)
				}
			},
		},
		{
			name:        "sessions alias keeps subcommand args",
			args:        []string{"s", "delete", "3", "--confirm"},
			wantCommand: CmdSessions,
			validate: func(t *testing.T, a Args) {
				p := a.Parser()
				if p.Subcommand() != "delete" || p.Positional(1) != "3" || !p.BoolFlag("confirm") {
					t.Errorf("unexpected parse of %v", a.Raw)
				}
			},
		},
		{
			name:        "signup alias",
			args:        []string{"signup", "alice"},
			wantCommand: CmdRegister,
		},
		{
			name:        "version flag",
			args:        []string{"--version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "unknown command",
			args:        []string{"sesions"},
			wantCommand: CmdUnknown,
			validate: func(t *testing.T, a Args) {
				if a.Name != "sesions" {
					t.Errorf("Name = %q, want %q", a.Name, "sesions")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.args)
			if cmd != tt.wantCommand {
				t.Errorf("Command = %v, want %v", cmd, tt.wantCommand)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

// =============================================================================
// SUGGESTIONS (suggest.go)
// =============================================================================

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"sesions", "sessions"},
		{"logn", "login"},
		{"cofig", "config"},
		{"sessions", ""},
		{"x", ""},
		{"zzzzzzzz", ""},
	}
	for _, tt := range tests {
		if got := SuggestCommand(tt.input); got != tt.want {
			t.Errorf("SuggestCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if got := SuggestSlashCommand("/sesions"); got != "/sessions" {
		t.Errorf("SuggestSlashCommand(/sesions) = %q, want /sessions", got)
	}
}

// =============================================================================
// EXIT CODES (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitGeneralError},
		{"validation", &ValidationError{Field: "session ID", Reason: "bad"}, ExitUsageError},
		{"usage", ErrMissingArgument("ask", askUsage), ExitUsageError},
		{"plain variant", app.ErrPlainVariant, ExitUsageError},
		{"unauthorized", &api.RequestError{Kind: api.KindStatus, StatusCode: 401}, ExitAuthError},
		{"not logged in", fmt.Errorf("%w; log in", auth.ErrNotLoggedIn), ExitAuthError},
		{"server 404", &api.RequestError{Kind: api.KindStatus, StatusCode: 404}, ExitNotFoundError},
		{"unknown session", fmt.Errorf("%w: 9", directory.ErrUnknownSession), ExitNotFoundError},
		{"transport", &api.RequestError{Kind: api.KindTransport}, ExitNetworkError},
		{"timeout", fmt.Errorf("wrapped: %w", &api.RequestError{Kind: api.KindTimeout}), ExitTimeoutError},
		{"server 500", &api.RequestError{Kind: api.KindStatus, StatusCode: 500}, ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "session ID", Value: "x", Reason: "must be a positive integer", Example: "sessionchat sessions show 3"}
	msg := err.Error()
	for _, want := range []string{"invalid session ID", "(got: x)", "Example: sessionchat sessions show 3"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkArgParser_Simple(b *testing.B) {
	args := []string{"rename", "3", "New", "title"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}
