// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sessionchat/internal/app"
	"github.com/jeranaias/sessionchat/internal/state"
	"github.com/jeranaias/sessionchat/internal/ui/styles"
)

// Run starts the TUI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, a *app.App) error {
	m := New(ctx, a, styles.NewTheme())

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Snapshots arrive from command goroutines; Send hands them to the
	// event loop, and returns immediately once the program has exited.
	unsubscribe := a.State.Subscribe(func(snap state.Snapshot) {
		p.Send(StateMsg{Snapshot: snap})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
