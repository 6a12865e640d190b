// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a session.
//
// Only Role and Content travel over the wire. ID is assigned locally so a
// streaming reply can find its placeholder after the list has been copied.
type Message struct {
	ID      string `json:"-"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Streaming is true while an assistant reply is still being received.
	// Content only grows while it is set.
	Streaming bool `json:"-"`
}

// NewUserMessage creates a message sent by the user.
func NewUserMessage(content string) Message {
	return Message{
		ID:      newMessageID(),
		Role:    RoleUser,
		Content: content,
	}
}

// NewStreamingMessage creates the empty assistant placeholder that a
// streamed reply is appended to.
func NewStreamingMessage() Message {
	return Message{
		ID:        newMessageID(),
		Role:      RoleAssistant,
		Streaming: true,
	}
}

// Append adds a decoded fragment to a streaming message.
// Appending to a frozen message is a no-op.
func (m *Message) Append(fragment string) {
	if !m.Streaming {
		return
	}
	m.Content += fragment
}

// Freeze marks the message as complete.
func (m *Message) Freeze() {
	m.Streaming = false
}

// IsUser reports whether the message was sent by the user.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant reports whether the message came from the assistant.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// EnsureIDs assigns local IDs to messages fetched from the server.
func EnsureIDs(msgs []Message) []Message {
	for i := range msgs {
		if msgs[i].ID == "" {
			msgs[i].ID = newMessageID()
		}
	}
	return msgs
}

func newMessageID() string {
	return uuid.NewString()
}
