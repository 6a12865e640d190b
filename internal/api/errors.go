// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes request failures for handling.
type ErrorKind int

const (
	// KindStatus is a non-2xx response.
	KindStatus ErrorKind = iota
	// KindTransport is a connection or I/O failure before a response.
	KindTransport
	// KindTimeout is a request that exceeded its deadline.
	KindTimeout
	// KindDecode is a 2xx response whose body could not be parsed.
	KindDecode
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// RequestError is returned by every Client call that fails. Nothing is
// retried; the caller decides how to surface it.
type RequestError struct {
	Kind ErrorKind

	// Op names the call, e.g. "list sessions".
	Op string

	// StatusCode and Status are set for KindStatus.
	StatusCode int
	Status     string

	// Detail is the server's explanation from a {"detail": ...} body.
	Detail string

	Cause error
}

func (e *RequestError) Error() string {
	msg := e.Op
	switch e.Kind {
	case KindStatus:
		msg += ": " + e.statusText()
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
	case KindTimeout:
		msg += ": request timed out"
	case KindDecode:
		msg += ": invalid response body"
	default:
		msg += ": request failed"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Message returns the text a user should see: the server detail when there
// is one, otherwise the full error.
func (e *RequestError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error()
}

func (e *RequestError) statusText() string {
	if e.Status != "" {
		return e.Status
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return strconv.Itoa(e.StatusCode) + " " + text
	}
	return strconv.Itoa(e.StatusCode)
}

// =============================================================================
// HELPERS
// =============================================================================

// AsRequestError extracts a RequestError from err.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

// IsStatus reports whether err is a non-2xx response with the given code.
func IsStatus(err error, code int) bool {
	reqErr, ok := AsRequestError(err)
	return ok && reqErr.Kind == KindStatus && reqErr.StatusCode == code
}

// IsUnauthorized reports whether the server rejected the credentials.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	reqErr, ok := AsRequestError(err)
	return ok && reqErr.Kind == KindTimeout
}

// IsTransport reports whether err is a connection failure.
func IsTransport(err error) bool {
	reqErr, ok := AsRequestError(err)
	return ok && reqErr.Kind == KindTransport
}

// UserMessage renders err for display, preferring a server detail.
func UserMessage(err error) string {
	if reqErr, ok := AsRequestError(err); ok {
		return reqErr.Message()
	}
	return err.Error()
}
