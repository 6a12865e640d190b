// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation handling for destructive commands.
//
// The pattern is the same everywhere:
//  1. --confirm proceeds without prompting
//  2. --json requires --confirm
//  3. A non-terminal stdin requires --confirm
//  4. Otherwise the user is asked [y/N]

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/sessionchat/internal/directory"
	"github.com/jeranaias/sessionchat/internal/model"
)

// ErrConfirmationRequired is returned when a prompt is impossible and
// --confirm was not given.
var ErrConfirmationRequired = errors.New("confirmation required; use --confirm")

// RequireConfirmation asks whether action may proceed.
func (r *Runner) RequireConfirmation(confirmFlag bool, action string) (bool, error) {
	if confirmFlag {
		return true, nil
	}
	if r.Args.JSON {
		return false, fmt.Errorf("%w in JSON mode", ErrConfirmationRequired)
	}
	if !r.Interactive {
		return false, fmt.Errorf("%w: stdin is not a terminal", ErrConfirmationRequired)
	}

	input, err := r.Prompt.Line(fmt.Sprintf("Are you sure you want to %s? [y/N]: ", action))
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	response := strings.ToLower(input)
	return response == "y" || response == "yes", nil
}

// removalConfirmer adapts RequireConfirmation to the directory's
// confirmation hook. A prompt failure is stored in *errp and refuses.
func (r *Runner) removalConfirmer(confirmFlag bool, errp *error) directory.Confirmer {
	return func(s model.Session) bool {
		ok, err := r.RequireConfirmation(confirmFlag,
			fmt.Sprintf("delete session %d (%s)", s.ID, s.DisplayTitle()))
		if err != nil {
			*errp = err
			return false
		}
		return ok
	}
}
