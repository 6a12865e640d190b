// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the full-screen sessionchat TUI.

The screen has a session list on the left, the selected conversation on the
right and an input line below. Tab moves focus between the list and the
input.

# Data Flow

Every network operation runs inside a tea.Cmd. The operations mutate the
shared state.State; a state observer forwards each new snapshot into the
program with Program.Send as a StateMsg, so a streaming reply redraws once
per fragment while Update and View stay on the bubbletea goroutine.

State is never mutated from Update itself: observers run on the mutating
goroutine and Program.Send would block the event loop.

# Prompts

Creating, renaming, logging in, registering and switching model reuse the
input line as a prompt. Esc cancels a prompt. Deleting a session asks y/n.
*/
package chat
