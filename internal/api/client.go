// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the remote chat API.
//
// Every call is a single request with no retry. Failures come back as
// *RequestError. When a token source yields a token, it is attached as a
// bearer credential to every session and message call; register and login
// never carry it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/stream"
	"github.com/jeranaias/sessionchat/internal/telemetry"
	"github.com/jeranaias/sessionchat/internal/util"
)

// maxErrorBody bounds how much of an error body is read for its detail.
const maxErrorBody = 4096

// TokenSource returns the current bearer token, or "" when logged out.
type TokenSource func() string

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the API client.
type ClientConfig struct {
	// BaseURL is the API root (default: http://127.0.0.1:8000)
	BaseURL string

	// Timeout bounds non-streaming calls (default: 30s). Reply streams are
	// bounded only by the context passed to SendMessage.
	Timeout time.Duration

	// Token supplies the bearer token. Nil means no auth (plain variant).
	Token TokenSource

	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL: "http://127.0.0.1:8000",
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the remote chat API.
//
// The Client is safe for concurrent use.
type Client struct {
	http    *resty.Client
	timeout time.Duration
	token   TokenSource
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewClient creates a client from config, filling zero values with defaults.
func NewClient(config ClientConfig) *Client {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	var rc *resty.Client
	if config.HTTPClient != nil {
		rc = resty.NewWithClient(config.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(config.BaseURL).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{config.Logger})

	return &Client{
		http:    rc,
		timeout: config.Timeout,
		token:   config.Token,
		logger:  config.Logger,
		tracer:  telemetry.Tracer("github.com/jeranaias/sessionchat/internal/api"),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// =============================================================================
// SESSIONS
// =============================================================================

// ListSessions fetches every session visible to the caller.
func (c *Client) ListSessions(ctx context.Context) ([]model.Session, error) {
	const op = "list sessions"
	resp, err := c.do(ctx, op, http.MethodGet, "/sessions/", true, nil)
	if err != nil {
		return nil, err
	}
	var sessions []model.Session
	if err := decode(op, resp, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}

// CreateSession creates a session with the given title.
func (c *Client) CreateSession(ctx context.Context, title string) (model.Session, error) {
	const op = "create session"
	resp, err := c.do(ctx, op, http.MethodPost, "/sessions/", true, func(r *resty.Request) {
		r.SetBody(map[string]string{"title": title})
	})
	if err != nil {
		return model.Session{}, err
	}
	var session model.Session
	if err := decode(op, resp, &session); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// RenameSession replaces the title of a session.
func (c *Client) RenameSession(ctx context.Context, id int, title string) error {
	_, err := c.do(ctx, "rename session", http.MethodPut, "/sessions/{id}", true, func(r *resty.Request) {
		r.SetPathParam("id", strconv.Itoa(id))
		r.SetBody(map[string]string{"title": title})
	})
	return err
}

// DeleteSession removes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, id int) error {
	_, err := c.do(ctx, "delete session", http.MethodDelete, "/sessions/{id}", true, func(r *resty.Request) {
		r.SetPathParam("id", strconv.Itoa(id))
	})
	return err
}

// =============================================================================
// MESSAGES
// =============================================================================

// ListMessages fetches the history of a session in order.
func (c *Client) ListMessages(ctx context.Context, sessionID int) ([]model.Message, error) {
	const op = "list messages"
	resp, err := c.do(ctx, op, http.MethodGet, "/msgs/{id}", true, func(r *resty.Request) {
		r.SetPathParam("id", strconv.Itoa(sessionID))
	})
	if err != nil {
		return nil, err
	}
	var msgs []model.Message
	if err := decode(op, resp, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return model.EnsureIDs(msgs), nil
}

// sendRequest is the body of a send-message call.
type sendRequest struct {
	UserMsg string `json:"user_msg"`
	Model   string `json:"model,omitempty"`
}

// SendMessage posts a user message and returns the reply stream as soon as
// the status line and headers have arrived. The caller owns the returned
// reader and must drain or close it.
//
// No timeout is applied; ctx is the only way to abandon a stream.
func (c *Client) SendMessage(ctx context.Context, sessionID int, text, modelName string) (*stream.Reader, error) {
	const op = "send message"
	ctx, span := c.tracer.Start(ctx, "POST /msgs/{id}",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("session.id", sessionID)))
	defer span.End()

	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/plain").
		SetPathParam("id", strconv.Itoa(sessionID)).
		SetBody(sendRequest{UserMsg: text, Model: modelName})
	c.authorize(req)

	start := time.Now()
	resp, err := req.Post("/msgs/{id}")
	if err != nil {
		reqErr := transportError(op, err)
		c.logFailure(op, http.MethodPost, start, reqErr)
		span.RecordError(reqErr)
		span.SetStatus(codes.Error, reqErr.Kind.String())
		return nil, reqErr
	}

	body := resp.RawBody()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if !resp.IsSuccess() {
		raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		body.Close()
		reqErr := &RequestError{
			Kind:       KindStatus,
			Op:         op,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Detail:     parseDetail(raw),
		}
		c.logFailure(op, http.MethodPost, start, reqErr)
		span.SetStatus(codes.Error, resp.Status())
		return nil, reqErr
	}

	c.logger.Debug("reply stream opened",
		"op", op, "session_id", sessionID, "status", resp.StatusCode(),
		"duration_ms", time.Since(start).Milliseconds())
	return stream.NewReader(body), nil
}

// =============================================================================
// AUTH
// =============================================================================

// TokenResponse is the body returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates an account. It never carries a bearer token.
func (c *Client) Register(ctx context.Context, username, password string) error {
	_, err := c.do(ctx, "register", http.MethodPost, "/register", false, func(r *resty.Request) {
		r.SetFormData(map[string]string{"username": username, "password": password})
	})
	return err
}

// Login exchanges credentials for an access token. It never carries a
// bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	const op = "login"
	resp, err := c.do(ctx, op, http.MethodPost, "/token", false, func(r *resty.Request) {
		r.SetFormData(map[string]string{"username": username, "password": password})
	})
	if err != nil {
		return TokenResponse{}, err
	}
	var tok TokenResponse
	if err := decode(op, resp, &tok); err != nil {
		return TokenResponse{}, err
	}
	if tok.AccessToken == "" {
		return TokenResponse{}, &RequestError{Kind: KindDecode, Op: op, Cause: errors.New("missing access_token")}
	}
	return tok, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do runs one non-streaming request under the client timeout.
func (c *Client) do(ctx context.Context, op, method, path string, auth bool, build func(*resty.Request)) (*resty.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sessionchat.op", op)))
	defer span.End()

	req := c.http.R().SetContext(ctx)
	if auth {
		c.authorize(req)
	}
	if build != nil {
		build(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		reqErr := transportError(op, err)
		c.logFailure(op, method, start, reqErr)
		span.RecordError(reqErr)
		span.SetStatus(codes.Error, reqErr.Kind.String())
		return nil, reqErr
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if !resp.IsSuccess() {
		reqErr := &RequestError{
			Kind:       KindStatus,
			Op:         op,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Detail:     parseDetail(resp.Body()),
		}
		c.logFailure(op, method, start, reqErr)
		span.SetStatus(codes.Error, resp.Status())
		return nil, reqErr
	}

	c.logger.Debug("api request",
		"op", op, "method", method, "status", resp.StatusCode(),
		"duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}

// authorize attaches the bearer token when one is held.
func (c *Client) authorize(req *resty.Request) {
	if c.token == nil {
		return
	}
	if token := c.token(); token != "" {
		req.SetAuthToken(token)
	}
}

// logFailure logs a failed call. Headers and bodies are never logged.
func (c *Client) logFailure(op, method string, start time.Time, err *RequestError) {
	c.logger.Warn("api request failed",
		"op", op, "method", method, "kind", err.Kind.String(),
		"status", err.StatusCode, "duration_ms", time.Since(start).Milliseconds())
}

func transportError(op string, err error) *RequestError {
	kind := KindTransport
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &RequestError{Kind: kind, Op: op, Cause: err}
}

func decode(op string, resp *resty.Response, v any) error {
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return &RequestError{Kind: KindDecode, Op: op, StatusCode: resp.StatusCode(), Cause: err}
	}
	return nil
}

// parseDetail extracts the server explanation from an error body. The
// server sends {"detail": "..."}, or a list of validation problems for
// malformed input; anything else is used as plain text.
func parseDetail(body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
		return string(envelope.Detail)
	}

	return util.TruncateWidth(util.SingleLine(string(body)), 200)
}

// =============================================================================
// LOGGER ADAPTER
// =============================================================================

// restyLogger routes resty's internal warnings through slog.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
