// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Health checks for the client setup.
//
// Command: doctor
// Aliases: diag
//
// Checks Performed:
//   1. Config File     - A config file exists (defaults are used otherwise)
//   2. Server          - The API answers GET /sessions/ (any HTTP status)
//   3. Preferences     - The preference database is open, not in memory
//   4. Login           - A stored token exists and has not expired
//
// Exit Codes:
//   0   No check failed
//   1   One or more checks failed

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/sessionchat/internal/api"
	"github.com/jeranaias/sessionchat/internal/config"
	"github.com/jeranaias/sessionchat/internal/prefs"
)

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns the styled marker for the status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	default:
		return ErrorStyle.Render("[FAIL]")
	}
}

// HealthCheck is a single check result.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"-"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// ErrChecksFailed is returned by doctor when a check failed.
var ErrChecksFailed = errors.New("one or more checks failed")

// HandleDoctor runs all checks and prints the results.
func HandleDoctor(ctx context.Context, r *Runner) error {
	checks := []*HealthCheck{
		checkConfigFile(),
		checkServer(ctx, r),
		checkPrefs(r),
		checkLogin(r),
	}

	failed := 0
	for _, c := range checks {
		if c.Status == CheckFail {
			failed++
		}
	}

	if r.Args.JSON {
		type jsonCheck struct {
			*HealthCheck
			Status string `json:"status"`
		}
		out := make([]jsonCheck, len(checks))
		for i, c := range checks {
			out[i] = jsonCheck{HealthCheck: c, Status: c.Status.String()}
		}
		if err := r.printJSON("doctor", map[string]any{"checks": out, "failed": failed}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(r.Out, TitleStyle.Render("sessionchat doctor"))
		for _, c := range checks {
			fmt.Fprintf(r.Out, "%s %s %s\n", c.Status.Symbol(), RenderLabel(c.Name), c.Message)
			if c.Status != CheckPass && c.Fix != "" {
				fmt.Fprintln(r.Out, DimStyle.Render("     -> "+c.Fix))
			}
		}
	}

	if failed > 0 {
		return ErrChecksFailed
	}
	return nil
}

func checkConfigFile() *HealthCheck {
	c := &HealthCheck{Name: "Config file"}
	path, err := config.ConfigPathTOML()
	if err != nil {
		c.Status, c.Message = CheckFail, err.Error()
		return c
	}
	if _, err := os.Stat(path); err != nil {
		c.Status = CheckWarn
		c.Message = "not found, using defaults"
		c.Fix = "sessionchat config init"
		return c
	}
	c.Message = path
	return c
}

// checkServer passes on any HTTP answer; a 401 still proves the server is
// there.
func checkServer(ctx context.Context, r *Runner) *HealthCheck {
	c := &HealthCheck{Name: "Server"}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.App.Client.ListSessions(ctx)
	var reqErr *api.RequestError
	switch {
	case err == nil:
		c.Message = r.App.Client.BaseURL() + " reachable"
	case errors.As(err, &reqErr) && reqErr.Kind == api.KindStatus:
		c.Message = fmt.Sprintf("%s reachable (%s)", r.App.Client.BaseURL(), reqErr.Status)
	default:
		c.Status = CheckFail
		c.Message = api.UserMessage(err)
		c.Fix = "sessionchat config set api.base_url URL"
	}
	return c
}

func checkPrefs(r *Runner) *HealthCheck {
	c := &HealthCheck{Name: "Preferences"}
	if _, ok := r.App.Prefs.(*prefs.MemoryStore); ok {
		c.Status = CheckWarn
		c.Message = "in memory only; choices are not saved"
		c.Fix = "check permissions of " + r.App.Config.Client.PrefsPath
		return c
	}
	c.Message = r.App.Config.Client.PrefsPath
	return c
}

func checkLogin(r *Runner) *HealthCheck {
	c := &HealthCheck{Name: "Login"}
	if r.App.Plain() {
		c.Message = "not used by the plain variant"
		return c
	}
	if !r.App.Auth.Restore() {
		c.Status = CheckWarn
		c.Message = "not logged in"
		c.Fix = "sessionchat login"
		return c
	}
	claims, err := r.App.Auth.Claims()
	switch {
	case err != nil:
		c.Status = CheckWarn
		c.Message = "stored token is not a readable JWT"
	case claims.Expired(time.Now()):
		c.Status = CheckWarn
		c.Message = "token expired " + claims.ExpiresAt.Local().Format(time.RFC1123)
		c.Fix = "sessionchat login"
	default:
		c.Message = "logged in as " + r.App.State.Auth().Username
	}
	return c
}
