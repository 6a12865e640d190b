// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Account commands for the reactive variant.
//
// Commands:
//   login [USERNAME]      Log in; the token is stored for later runs
//   register [USERNAME]   Create an account
//   logout                Forget the stored token and username
//   auth status           Show the logged-in user and token expiry
//
// Passwords are always prompted for, without echo on a terminal.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/sessionchat/internal/app"
	"github.com/jeranaias/sessionchat/internal/model"
)

// HandleLogin handles the "login" command.
func HandleLogin(ctx context.Context, r *Runner) error {
	username, password, err := r.readCredentials()
	if err != nil {
		return err
	}
	if err := r.App.Login(ctx, username, password); err != nil {
		if errors.Is(err, model.ErrSkipped) {
			return &ValidationError{Field: "credentials", Reason: "username and password are required"}
		}
		return err
	}

	snap := r.App.State.Snapshot()
	if r.Args.JSON {
		return r.printJSON("login", map[string]any{
			"username": snap.Auth.Username,
			"sessions": len(snap.Sessions),
		})
	}
	fmt.Fprintf(r.Out, "%s Logged in as %s (%d sessions)\n",
		SuccessStyle.Render("[OK]"), snap.Auth.Username, len(snap.Sessions))
	return nil
}

// HandleRegister handles the "register" command.
func HandleRegister(ctx context.Context, r *Runner) error {
	username, password, err := r.readCredentials()
	if err != nil {
		return err
	}
	if err := r.App.Register(ctx, username, password); err != nil {
		if errors.Is(err, model.ErrSkipped) {
			return &ValidationError{Field: "credentials", Reason: "username and password are required"}
		}
		return err
	}
	if r.Args.JSON {
		return r.printJSON("register", map[string]any{"username": username})
	}
	fmt.Fprintf(r.Out, "%s Registered %s. Log in with 'sessionchat login %s'.\n",
		SuccessStyle.Render("[OK]"), username, username)
	return nil
}

// HandleLogout handles the "logout" command. It never contacts the server.
func HandleLogout(r *Runner) error {
	if err := r.App.Logout(); err != nil {
		return err
	}
	if r.Args.JSON {
		return r.printJSON("logout", map[string]any{"logged_in": false})
	}
	fmt.Fprintf(r.Out, "%s Logged out\n", SuccessStyle.Render("[OK]"))
	return nil
}

// HandleAuth handles "auth [status]".
func HandleAuth(r *Runner) error {
	p := r.Args.Parser()
	switch p.Subcommand() {
	case "", "status":
		return r.authStatus()
	default:
		return &UsageError{Command: "auth " + p.Subcommand(), Usage: "sessionchat auth status"}
	}
}

func (r *Runner) authStatus() error {
	data := AuthStatusData{Variant: r.App.Config.Client.Variant}
	if !r.App.Plain() && r.App.Auth.Restore() {
		sess := r.App.Auth.Session()
		data.LoggedIn = true
		data.Username = sess.Username
		if claims, err := r.App.Auth.Claims(); err == nil {
			data.Subject = claims.Subject
			data.Expired = claims.Expired(time.Now())
			if !claims.ExpiresAt.IsZero() {
				data.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
			}
		}
	}

	if r.Args.JSON {
		return r.printJSON("auth status", data)
	}

	fmt.Fprintln(r.Out, RenderField("Variant:", data.Variant))
	switch {
	case r.App.Plain():
		fmt.Fprintln(r.Out, RenderField("Auth:", "not used"))
	case !data.LoggedIn:
		fmt.Fprintln(r.Out, RenderField("Auth:", "logged out"))
	default:
		fmt.Fprintln(r.Out, RenderField("User:", data.Username))
		if data.ExpiresAt != "" {
			expiry := data.ExpiresAt
			if data.Expired {
				expiry += " " + WarningStyle.Render("(expired)")
			}
			fmt.Fprintln(r.Out, RenderField("Expires:", expiry))
		}
	}
	return nil
}

// readCredentials takes the username from the first positional argument or
// a prompt, and always prompts for the password.
func (r *Runner) readCredentials() (string, string, error) {
	if r.App.Plain() {
		return "", "", app.ErrPlainVariant
	}

	p := r.Args.Parser()
	username := p.Positional(0)
	if username == "" {
		if !r.Interactive {
			return "", "", ErrMissingArgument(r.Args.Name, "sessionchat "+r.Args.Name+" USERNAME")
		}
		var err error
		if username, err = r.Prompt.Line("Username: "); err != nil {
			return "", "", err
		}
	}
	password, err := r.Prompt.Password("Password: ")
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return username, password, nil
}
