// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package state holds the client's application state and notifies
// observers after every change.
//
// State is the single owner of the session list, the current selection, the
// message cache, the auth session and the selected model. Readers get
// copies through Snapshot, so a streaming goroutine and a render loop never
// share slices.
package state

import (
	"slices"
	"sync"

	"github.com/jeranaias/sessionchat/internal/model"
)

// Snapshot is an immutable copy of the application state.
type Snapshot struct {
	Sessions   []model.Session
	CurrentID  int
	HasCurrent bool
	Messages   []model.Message
	Auth       model.AuthSession
	Model      string
}

// Current returns the selected session.
func (s Snapshot) Current() (model.Session, bool) {
	if !s.HasCurrent {
		return model.Session{}, false
	}
	return model.FindSession(s.Sessions, s.CurrentID)
}

// Streaming reports whether an assistant reply is still arriving.
func (s Snapshot) Streaming() bool {
	for _, m := range s.Messages {
		if m.Streaming {
			return true
		}
	}
	return false
}

// Observer is called with a fresh snapshot after every mutation.
type Observer func(Snapshot)

// =============================================================================
// STATE
// =============================================================================

// State is safe for concurrent use. Observers run synchronously on the
// mutating goroutine, in subscription order, and receive snapshots in
// mutation order. An observer must not mutate the State it observes.
type State struct {
	// notifyMu serializes mutate+notify so snapshots arrive in order.
	notifyMu sync.Mutex

	mu         sync.Mutex
	sessions   []model.Session
	currentID  int
	hasCurrent bool
	messages   []model.Message
	auth       model.AuthSession
	modelName  string

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int
}

type observerEntry struct {
	id int
	fn Observer
}

// New creates an empty state.
func New() *State {
	return &State{}
}

// Subscribe registers an observer and returns a function that removes it.
func (s *State) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(e observerEntry) bool { return e.id == id })
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Sessions:   slices.Clone(s.sessions),
		CurrentID:  s.currentID,
		HasCurrent: s.hasCurrent,
		Messages:   slices.Clone(s.messages),
		Auth:       s.auth,
		Model:      s.modelName,
	}
}

// mutate applies fn under the lock and then notifies observers. fn returns
// false when nothing changed, which suppresses notification.
func (s *State) mutate(fn func() bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := fn()
	var snap Snapshot
	if changed {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
}

func (s *State) notify(snap Snapshot) {
	s.obsMu.Lock()
	observers := slices.Clone(s.observers)
	s.obsMu.Unlock()

	for _, o := range observers {
		o.fn(snap)
	}
}

// =============================================================================
// SESSIONS
// =============================================================================

// ReplaceSessions replaces the cached list wholesale. If the current
// session is no longer listed, the selection and messages are cleared.
func (s *State) ReplaceSessions(sessions []model.Session) {
	s.mutate(func() bool {
		s.sessions = slices.Clone(sessions)
		if s.hasCurrent {
			if _, ok := model.FindSession(s.sessions, s.currentID); !ok {
				s.clearSelectionLocked()
			}
		}
		return true
	})
}

// Select makes id current and replaces the message cache in one step.
func (s *State) Select(id int, msgs []model.Message) {
	s.mutate(func() bool {
		s.currentID = id
		s.hasCurrent = true
		s.messages = slices.Clone(msgs)
		return true
	})
}

// ClearSelectionIf clears the selection and messages when id is current.
// It reports whether anything was cleared.
func (s *State) ClearSelectionIf(id int) bool {
	cleared := false
	s.mutate(func() bool {
		if s.hasCurrent && s.currentID == id {
			s.clearSelectionLocked()
			cleared = true
		}
		return cleared
	})
	return cleared
}

func (s *State) clearSelectionLocked() {
	s.currentID = 0
	s.hasCurrent = false
	s.messages = nil
}

// CurrentID returns the selected session ID.
func (s *State) CurrentID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID, s.hasCurrent
}

// Session looks up a cached session by ID.
func (s *State) Session(id int) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.FindSession(s.sessions, id)
}

// =============================================================================
// MESSAGES
// =============================================================================

// ReplaceMessages replaces the message cache when sessionID is still
// current. It reports whether the cache was replaced.
func (s *State) ReplaceMessages(sessionID int, msgs []model.Message) bool {
	replaced := false
	s.mutate(func() bool {
		if s.hasCurrent && s.currentID == sessionID {
			s.messages = slices.Clone(msgs)
			replaced = true
		}
		return replaced
	})
	return replaced
}

// AppendMessageFor appends msg when sessionID is still current. It reports
// whether the message was cached.
func (s *State) AppendMessageFor(sessionID int, msg model.Message) bool {
	appended := false
	s.mutate(func() bool {
		if s.hasCurrent && s.currentID == sessionID {
			s.messages = append(s.messages, msg)
			appended = true
		}
		return appended
	})
	return appended
}

// UpdateMessage applies fn to the cached message with the given local ID.
// It reports false when the message is gone, e.g. after a session switch.
func (s *State) UpdateMessage(id string, fn func(*model.Message)) bool {
	found := false
	s.mutate(func() bool {
		for i := range s.messages {
			if s.messages[i].ID == id {
				fn(&s.messages[i])
				found = true
				break
			}
		}
		return found
	})
	return found
}

// =============================================================================
// AUTH AND PREFERENCES
// =============================================================================

// SetAuth stores the auth session.
func (s *State) SetAuth(auth model.AuthSession) {
	s.mutate(func() bool {
		s.auth = auth
		return true
	})
}

// Auth returns the auth session.
func (s *State) Auth() model.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

// Token returns the bearer token, or "" when logged out.
func (s *State) Token() string {
	return s.Auth().Token
}

// Reset clears auth, sessions, selection and messages, as on logout.
// The selected model is kept.
func (s *State) Reset() {
	s.mutate(func() bool {
		s.auth = model.AuthSession{}
		s.sessions = nil
		s.clearSelectionLocked()
		return true
	})
}

// SetModel stores the selected model name.
func (s *State) SetModel(name string) {
	s.mutate(func() bool {
		if s.modelName == name {
			return false
		}
		s.modelName = name
		return true
	})
}

// Model returns the selected model name.
func (s *State) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelName
}
