// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sessionchat/internal/apitest"
	"github.com/jeranaias/sessionchat/internal/model"
)

func newTestClient(t *testing.T, baseURL string, token TokenSource) *Client {
	t.Helper()
	return NewClient(ClientConfig{BaseURL: baseURL, Timeout: 2 * time.Second, Token: token})
}

func staticToken(tok string) TokenSource {
	return func() string { return tok }
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestClient_SessionLifecycle(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv.URL, nil)
	ctx := context.Background()

	sessions, err := c.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NotNil(t, sessions)

	created, err := c.CreateSession(ctx, "Trip")
	require.NoError(t, err)
	assert.Equal(t, "Trip", created.Title)
	assert.NotZero(t, created.ID)

	require.NoError(t, c.RenameSession(ctx, created.ID, "Holiday"))
	sessions, err = c.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Session{{ID: created.ID, Title: "Holiday"}}, sessions)

	require.NoError(t, c.DeleteSession(ctx, created.ID))
	assert.Empty(t, srv.Titles())
}

func TestClient_NotFoundCarriesDetail(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv.URL, nil)

	err := c.DeleteSession(context.Background(), 99)
	require.Error(t, err)

	reqErr, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, KindStatus, reqErr.Kind)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "Session not found", reqErr.Detail)
	assert.Equal(t, "delete session", reqErr.Op)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "Session not found", UserMessage(err))
}

func TestClient_ListMessagesAssignsIDs(t *testing.T) {
	srv := apitest.NewServer(t)
	id := srv.AddSession("history", "hi", "hello!")
	c := newTestClient(t, srv.URL, nil)

	msgs, err := c.ListMessages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello!", msgs[1].Content)
	assert.NotEmpty(t, msgs[0].ID)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

func TestClient_SendMessageStreams(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Reply = apitest.Chunks("Hi", " there")
	id := srv.AddSession("chat")
	c := newTestClient(t, srv.URL, nil)

	r, err := c.SendMessage(context.Background(), id, "hello", "gemma3:1b")
	require.NoError(t, err)

	var sb strings.Builder
	for frag, err := range r.Fragments() {
		require.NoError(t, err)
		sb.WriteString(frag)
	}
	assert.Equal(t, "Hi there", sb.String())

	body := srv.LastSendBody()
	assert.Equal(t, "hello", body["user_msg"])
	assert.Equal(t, "gemma3:1b", body["model"])
}

func TestClient_SendMessageOmitsEmptyModel(t *testing.T) {
	srv := apitest.NewServer(t)
	id := srv.AddSession("chat")
	c := newTestClient(t, srv.URL, nil)

	r, err := c.SendMessage(context.Background(), id, "hello", "")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, readerOf(r))

	_, present := srv.LastSendBody()["model"]
	assert.False(t, present)
}

func TestClient_SendMessageServerError(t *testing.T) {
	srv := apitest.NewServer(t)
	id := srv.AddSession("chat")
	srv.Fail(http.MethodPost, "/msgs/1", http.StatusInternalServerError, "model crashed")
	c := newTestClient(t, srv.URL, nil)

	r, err := c.SendMessage(context.Background(), id, "hello", "")
	require.Error(t, err)
	assert.Nil(t, r)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "model crashed")
}

func TestClient_SendMessageNotTimedOut(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Reply = apitest.Chunks("slow", " but", " fine")
	srv.ChunkDelay = 60 * time.Millisecond
	id := srv.AddSession("chat")
	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	r, err := c.SendMessage(context.Background(), id, "x", "")
	require.NoError(t, err)

	var sb strings.Builder
	for frag, err := range r.Fragments() {
		require.NoError(t, err)
		sb.WriteString(frag)
	}
	assert.Equal(t, "slow but fine", sb.String())
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestClient_BearerOnEverySessionAndMessageCall(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.RequireAuth = true
	token := srv.IssueToken("alice")
	c := newTestClient(t, srv.URL, staticToken(token))
	ctx := context.Background()

	s, err := c.CreateSession(ctx, "a")
	require.NoError(t, err)
	_, err = c.ListSessions(ctx)
	require.NoError(t, err)
	require.NoError(t, c.RenameSession(ctx, s.ID, "b"))
	_, err = c.ListMessages(ctx, s.ID)
	require.NoError(t, err)
	r, err := c.SendMessage(ctx, s.ID, "hi", "")
	require.NoError(t, err)
	r.Close()
	require.NoError(t, c.DeleteSession(ctx, s.ID))

	reqs := srv.Requests()
	require.Len(t, reqs, 6)
	for _, req := range reqs {
		assert.Equal(t, "Bearer "+token, req.Authorization, "%s %s", req.Method, req.Path)
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv.URL, staticToken(""))

	_, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, srv.Requests()[0].Authorization)
}

func TestClient_UnauthorizedWithoutToken(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.RequireAuth = true
	c := newTestClient(t, srv.URL, nil)

	_, err := c.ListSessions(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestClient_LoginAndRegister(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newTestClient(t, srv.URL, staticToken("stale-token"))
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "bob", "pw"))

	err := c.Register(ctx, "bob", "pw")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, "Username exists", UserMessage(err))

	_, err = c.Login(ctx, "bob", "wrong")
	assert.True(t, IsUnauthorized(err))

	tok, err := c.Login(ctx, "bob", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)

	for _, req := range srv.Requests() {
		assert.Empty(t, req.Authorization, "%s must not carry a bearer token", req.Path)
	}
}

// =============================================================================
// FAILURE CLASSIFICATION TESTS
// =============================================================================

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url, nil)
	_, err := c.ListSessions(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err), "got %v", err)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.ListSessions(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.ListSessions(context.Background())
	reqErr, ok := AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, KindDecode, reqErr.Kind)
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Username exists"}`, "Username exists"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{"plain text", "Internal Server Error", "Internal Server Error"},
		{"empty", "  ", ""},
		{"object detail", `{"detail":{"code":1}}`, `{"code":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail([]byte(tt.body)))
		})
	}
}

func TestRequestError_Messages(t *testing.T) {
	err := &RequestError{Kind: KindStatus, Op: "list sessions", StatusCode: 502}
	assert.Equal(t, "list sessions: 502 Bad Gateway", err.Error())

	cause := errors.New("dial tcp: refused")
	err = &RequestError{Kind: KindTransport, Op: "login", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "login: request failed: dial tcp: refused", err.Message())
}

// readerOf adapts a fragment stream to io.Reader for draining.
func readerOf(r interface{ Next() (string, error) }) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		for {
			text, err := r.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				pw.CloseWithError(err)
				return
			}
			_, _ = pw.Write([]byte(text))
		}
	}()
	return pr
}
