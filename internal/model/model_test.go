// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestSessionDisplayTitle(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    string
	}{
		{"titled", Session{ID: 1, Title: "Trip planning"}, "Trip planning"},
		{"empty title", Session{ID: 7}, "Session 7"},
		{"unicode", Session{ID: 2, Title: "新聊天室"}, "新聊天室"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.DisplayTitle(); got != tt.want {
				t.Errorf("DisplayTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindSession(t *testing.T) {
	sessions := []Session{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}

	s, ok := FindSession(sessions, 2)
	if !ok || s.Title != "b" {
		t.Errorf("FindSession(2) = %+v, %v", s, ok)
	}
	if _, ok := FindSession(sessions, 3); ok {
		t.Error("FindSession(3) should not be found")
	}
}

func TestStreamingMessage_AppendAndFreeze(t *testing.T) {
	msg := NewStreamingMessage()
	if msg.ID == "" {
		t.Fatal("placeholder should have a local ID")
	}
	if !msg.IsAssistant() || !msg.Streaming || msg.Content != "" {
		t.Fatalf("unexpected placeholder: %+v", msg)
	}

	msg.Append("Hi")
	msg.Append(" there")
	if msg.Content != "Hi there" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hi there")
	}

	msg.Freeze()
	msg.Append("!")
	if msg.Content != "Hi there" {
		t.Errorf("frozen message changed: %q", msg.Content)
	}
}

func TestEnsureIDs(t *testing.T) {
	msgs := EnsureIDs([]Message{{Role: RoleUser, Content: "a"}, {ID: "keep", Role: RoleAssistant}})
	if msgs[0].ID == "" {
		t.Error("missing ID was not assigned")
	}
	if msgs[1].ID != "keep" {
		t.Errorf("existing ID replaced: %q", msgs[1].ID)
	}
}

func TestRoleDisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", RoleUser.DisplayName())
	}
	if Role("tool").DisplayName() != "tool" {
		t.Errorf("unknown role should display as-is")
	}
}

func TestTokenClaimsExpired(t *testing.T) {
	now := time.Now()
	if (TokenClaims{}).Expired(now) {
		t.Error("claims without expiry should never expire")
	}
	if !(TokenClaims{ExpiresAt: now.Add(-time.Minute)}).Expired(now) {
		t.Error("past expiry should be expired")
	}
	if (TokenClaims{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Error("future expiry should not be expired")
	}
	if (AuthSession{}).LoggedIn() {
		t.Error("empty auth session should not be logged in")
	}
}
