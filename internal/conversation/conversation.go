// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation sends user messages and consumes streamed replies.
//
// A reply is appended to an assistant placeholder fragment by fragment, and
// every append is a state mutation, so observers redraw after each chunk.
package conversation

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/jeranaias/sessionchat/internal/model"
	"github.com/jeranaias/sessionchat/internal/state"
	"github.com/jeranaias/sessionchat/internal/stream"
)

// ErrSkipped is returned when there is nothing to send or no session is
// selected.
var ErrSkipped = model.ErrSkipped

// ErrSessionChanged is returned when the selection moved away from the
// target session before its reply arrived. The reply is discarded.
var ErrSessionChanged = errors.New("session changed before the reply arrived")

// MessageAPI is the subset of the API client the consumer needs.
type MessageAPI interface {
	SendMessage(ctx context.Context, sessionID int, text, modelName string) (*stream.Reader, error)
	ListMessages(ctx context.Context, sessionID int) ([]model.Message, error)
}

// Consumer sends messages to the current session.
type Consumer struct {
	api   MessageAPI
	state *state.State
}

// New creates a consumer over api that records messages in st.
func New(api MessageAPI, st *state.State) *Consumer {
	return &Consumer{api: api, state: st}
}

// Send posts text to the current session and returns the reply stream.
// Surrounding whitespace is trimmed. An empty modelName falls back to the
// selected model.
//
// The user message is cached before the request goes out. The assistant
// placeholder is cached only once the server has accepted the request, so a
// failed send leaves no empty reply behind.
func (c *Consumer) Send(ctx context.Context, text, modelName string) (*Reply, error) {
	if modelName == "" {
		modelName = c.state.Model()
	}
	return c.send(ctx, text, modelName)
}

// SendAndReload sends text without a model name, drains the reply and then
// replaces the cached history with the server's copy. onFragment, when set,
// sees each fragment as it arrives. It returns the streamed reply text.
func (c *Consumer) SendAndReload(ctx context.Context, text string, onFragment func(string)) (string, error) {
	reply, err := c.send(ctx, text, "")
	if err != nil {
		return "", err
	}
	full, err := reply.Process(ctx, onFragment)
	if err != nil {
		return full, err
	}

	msgs, err := c.api.ListMessages(ctx, reply.SessionID)
	if err != nil {
		return full, err
	}
	c.state.ReplaceMessages(reply.SessionID, msgs)
	return full, nil
}

func (c *Consumer) send(ctx context.Context, text, modelName string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrSkipped
	}
	sessionID, ok := c.state.CurrentID()
	if !ok {
		return nil, ErrSkipped
	}
	if !c.state.AppendMessageFor(sessionID, model.NewUserMessage(text)) {
		return nil, ErrSkipped
	}

	reader, err := c.api.SendMessage(ctx, sessionID, text, modelName)
	if err != nil {
		slog.Warn("send failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	placeholder := model.NewStreamingMessage()
	if !c.state.AppendMessageFor(sessionID, placeholder) {
		reader.Close()
		slog.Debug("reply dropped", "session_id", sessionID)
		return nil, ErrSessionChanged
	}

	return &Reply{
		SessionID: sessionID,
		MessageID: placeholder.ID,
		reader:    reader,
		state:     c.state,
	}, nil
}

// =============================================================================
// REPLY
// =============================================================================

// Reply is one streamed assistant answer. It is consumed by a single
// goroutine; the sequence it yields is finite and cannot be restarted.
type Reply struct {
	// SessionID is the session the message was sent to.
	SessionID int

	// MessageID is the local ID of the assistant placeholder.
	MessageID string

	reader *stream.Reader
	state  *state.State

	freezeOnce sync.Once
}

// Fragments returns the remaining fragments as a range-over-func sequence.
// Each fragment is appended to the assistant message before it is yielded.
// At end of stream, or on a read error, the message is frozen; the error is
// yielded once as the final element.
func (r *Reply) Fragments() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for text, err := range r.reader.Fragments() {
			if err != nil {
				r.freeze()
				yield("", err)
				return
			}
			r.state.UpdateMessage(r.MessageID, func(m *model.Message) { m.Append(text) })
			if !yield(text, nil) {
				return
			}
		}
		r.freeze()
	}
}

// Process drains the reply, calling onFragment (when set) for each
// fragment, and returns the full text. On error or cancellation the text
// received so far is returned with the error; a cancelled stream is closed.
func (r *Reply) Process(ctx context.Context, onFragment func(string)) (string, error) {
	if err := ctx.Err(); err != nil {
		r.Close()
		return r.Text(), err
	}
	for text, err := range r.Fragments() {
		if err != nil {
			return r.Text(), err
		}
		if onFragment != nil {
			onFragment(text)
		}
		if err := ctx.Err(); err != nil {
			r.Close()
			return r.Text(), err
		}
	}
	return r.Text(), nil
}

// Text returns the text received so far.
func (r *Reply) Text() string {
	return r.reader.Accumulated()
}

// Close abandons the stream and freezes the message with whatever arrived.
// It must be called from the consuming goroutine; cancel the Send context
// to stop a stream from elsewhere.
func (r *Reply) Close() error {
	r.freeze()
	return r.reader.Close()
}

func (r *Reply) freeze() {
	r.freezeOnce.Do(func() {
		r.state.UpdateMessage(r.MessageID, func(m *model.Message) { m.Freeze() })
		stats := r.reader.Stats()
		slog.Debug("reply finished",
			"session_id", r.SessionID,
			"fragments", stats.Fragments,
			"bytes", stats.Bytes,
			"ttff_ms", stats.TTFF.Milliseconds(),
			"completed", stats.Completed)
	})
}
