// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strconv"
	"time"
)

// ErrSkipped is returned when an operation declines to run because its
// input is blank, unchanged, or refused by the user. No request is made
// and no state is touched; front ends ignore it.
var ErrSkipped = errors.New("operation skipped")

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New chat"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is a conversation thread stored by the remote API.
type Session struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// DisplayTitle returns the title, or a placeholder built from the ID when
// the server stored an empty one.
func (s Session) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return "Session " + strconv.Itoa(s.ID)
}

// FindSession returns the session with the given ID.
func FindSession(sessions []Session, id int) (Session, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// =============================================================================
// AUTH SESSION
// =============================================================================

// AuthSession holds the credentials obtained from a successful login.
type AuthSession struct {
	Token    string
	Username string
}

// LoggedIn reports whether a bearer token is held.
func (a AuthSession) LoggedIn() bool {
	return a.Token != ""
}

// TokenClaims is the display-only view of an access token.
// It is decoded without signature verification; the server owns trust.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that has passed.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
