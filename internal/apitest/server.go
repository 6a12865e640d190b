// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-memory chat API server for tests.
//
// It implements the same routes as the real backend: session CRUD, message
// history, streamed replies, registration and token login. Every request is
// recorded so tests can assert on call counts and Authorization headers.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Request is a recorded call.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

// Failure forces a status response for matching requests.
type Failure struct {
	Status int
	Detail string
}

type storedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type storedSession struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Server is a fake chat API backed by httptest.Server.
type Server struct {
	*httptest.Server

	// RequireAuth rejects session and message calls without a valid
	// bearer token.
	RequireAuth bool

	// Reply builds the chunks streamed for a user message. The default
	// echoes the message in two chunks.
	Reply func(userMsg string) [][]byte

	// ChunkDelay pauses between streamed chunks.
	ChunkDelay time.Duration

	mu       sync.Mutex
	sessions map[int]*storedSession
	messages map[int][]storedMessage
	nextID   int
	users    map[string]string
	tokens   map[string]string
	requests []Request
	failures map[string]Failure
	lastSend map[string]any
}

// NewServer starts a fake API server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		sessions: make(map[int]*storedSession),
		messages: make(map[int][]storedMessage),
		nextID:   1,
		users:    make(map[string]string),
		tokens:   make(map[string]string),
		failures: make(map[string]Failure),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/{$}", s.authed(s.handleListSessions))
	mux.HandleFunc("POST /sessions/{$}", s.authed(s.handleCreateSession))
	mux.HandleFunc("PUT /sessions/{id}", s.authed(s.handleRenameSession))
	mux.HandleFunc("DELETE /sessions/{id}", s.authed(s.handleDeleteSession))
	mux.HandleFunc("GET /msgs/{id}", s.authed(s.handleListMessages))
	mux.HandleFunc("POST /msgs/{id}", s.authed(s.handleSend))
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /token", s.handleToken)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// =============================================================================
// SEEDING AND INSPECTION
// =============================================================================

// AddSession stores a session directly and returns its ID.
func (s *Server) AddSession(title string, history ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.sessions[id] = &storedSession{ID: id, Title: title}
	for i, content := range history {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		s.messages[id] = append(s.messages[id], storedMessage{Role: role, Content: content})
	}
	return id
}

// AddUser registers credentials directly.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// IssueToken returns a valid token for username without a login call.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(username)
}

// Fail makes requests to "METHOD /path" answer with the given status until
// cleared with Clear.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = Failure{Status: status, Detail: detail}
}

// Clear removes all forced failures.
func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns the number of recorded requests.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// ResetRequests forgets recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Titles returns stored session titles ordered by ID.
func (s *Server) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.sortedIDsLocked()
	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		titles = append(titles, s.sessions[id].Title)
	}
	return titles
}

// History returns the stored contents of a session's messages.
func (s *Server) History(id int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.messages[id]))
	for _, m := range s.messages[id] {
		out = append(out, m.Content)
	}
	return out
}

// LastSendBody returns the decoded JSON body of the last send-message call.
func (s *Server) LastSendBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSend
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		failure, failing := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if failing {
			writeDetail(w, failure.Status, failure.Detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.RequireAuth {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			s.mu.Lock()
			_, valid := s.tokens[token]
			s.mu.Unlock()
			if !ok || !valid {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
		}
		h(w, r)
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]storedSession, 0, len(s.sessions))
	for _, id := range s.sortedIDsLocked() {
		list = append(list, *s.sessions[id])
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	id := s.AddSession(body.Title)
	writeJSON(w, http.StatusOK, storedSession{ID: id, Title: body.Title})
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	s.sessions[id].Title = body.Title
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.sessions, id)
	delete(s.messages, id)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"msg": "deleted"})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	msgs := append([]storedMessage{}, s.messages[id]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	userMsg, _ := body["user_msg"].(string)

	reply := s.Reply
	if reply == nil {
		reply = EchoReply
	}
	chunks := reply(userMsg)

	s.mu.Lock()
	s.lastSend = body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	var full strings.Builder
	for i, chunk := range chunks {
		if i > 0 && s.ChunkDelay > 0 {
			time.Sleep(s.ChunkDelay)
		}
		if _, err := w.Write(chunk); err != nil {
			return
		}
		full.Write(chunk)
		if flusher != nil {
			flusher.Flush()
		}
	}

	s.mu.Lock()
	s.messages[id] = append(s.messages[id],
		storedMessage{Role: "user", Content: userMsg},
		storedMessage{Role: "assistant", Content: full.String()})
	s.mu.Unlock()
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	username, password := r.PostFormValue("username"), r.PostFormValue("password")
	if username == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		writeDetail(w, http.StatusBadRequest, "Username exists")
		return
	}
	s.users[username] = password
	writeJSON(w, http.StatusOK, map[string]string{"msg": "registered"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	username, password := r.PostFormValue("username"), r.PostFormValue("password")
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.users[username]; !ok || stored != password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": s.issueLocked(username),
		"token_type":   "bearer",
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// EchoReply streams "echo: <msg>" in two chunks.
func EchoReply(userMsg string) [][]byte {
	return [][]byte{[]byte("echo: "), []byte(userMsg)}
}

// Chunks is a Reply that always streams the given strings.
func Chunks(parts ...string) func(string) [][]byte {
	return func(string) [][]byte {
		out := make([][]byte, len(parts))
		for i, p := range parts {
			out[i] = []byte(p)
		}
		return out
	}
}

func (s *Server) issueLocked(username string) string {
	token := fmt.Sprintf("token-%s-%d", username, len(s.tokens)+1)
	s.tokens[token] = username
	return token
}

func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid session id")
		return 0, false
	}
	s.mu.Lock()
	_, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Session not found")
		return 0, false
	}
	return id, true
}

func (s *Server) sortedIDsLocked() []int {
	ids := make([]int, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
