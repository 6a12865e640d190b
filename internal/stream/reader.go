// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"io"
	"iter"
	"strings"
	"sync"
	"time"
)

// DefaultBufferSize is the read size used for each body chunk.
const DefaultBufferSize = 4096

// =============================================================================
// STREAM READER
// =============================================================================

// Reader yields decoded text fragments from a chunked response body.
//
// The sequence is lazy, finite and not restartable: once Next has returned
// io.EOF or an error, every later call returns the same result. Empty
// fragments (a chunk that only carried part of a character) are never
// returned.
type Reader struct {
	body    io.ReadCloser
	decoder *Decoder
	buf     []byte

	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator strings.Builder
	stats       *Stats
	done        bool
	err         error
	closeOnce   sync.Once
}

// NewReader creates a reader over body. The reader closes body when the
// stream ends or Close is called.
func NewReader(body io.ReadCloser) *Reader {
	return &Reader{
		body:    body,
		decoder: NewDecoder(),
		buf:     make([]byte, DefaultBufferSize),
		stats:   NewStats(),
	}
}

// Next blocks until the next non-empty fragment is available.
// It returns io.EOF when the body is exhausted.
func (r *Reader) Next() (string, error) {
	for !r.done {
		n, readErr := r.body.Read(r.buf)
		var text string
		if n > 0 {
			r.stats.RecordBytes(n)
			text = r.decoder.Decode(r.buf[:n])
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				text += r.decoder.Flush()
				readErr = io.EOF
			}
			// A fragment read alongside the error is delivered first; the
			// error surfaces on the next call.
			r.finish(readErr)
		}
		if text != "" {
			return r.emit(text), nil
		}
	}
	return "", r.err
}

// Close releases the body. It is safe to call more than once.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.body.Close()
	})
	return err
}

// Fragments returns the remaining fragments as a range-over-func sequence.
// Iteration stops at end of stream; a read error is yielded once as the
// final element.
func (r *Reader) Fragments() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			text, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// Accumulated returns all text returned so far.
func (r *Reader) Accumulated() string {
	return r.accumulator.String()
}

// Stats returns the statistics collected so far.
func (r *Reader) Stats() Stats {
	return *r.stats
}

func (r *Reader) emit(text string) string {
	r.accumulator.WriteString(text)
	r.stats.RecordFragment()
	return text
}

func (r *Reader) finish(err error) {
	if r.done {
		return
	}
	r.done = true
	r.err = err
	r.stats.Finalize(errors.Is(err, io.EOF))
	r.Close()
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// Stats holds statistics collected while a stream is read.
type Stats struct {
	// Timing
	StartTime         time.Time
	FirstFragmentTime time.Time
	EndTime           time.Time

	// Counts
	Fragments int
	Bytes     int

	// Computed
	TTFF      time.Duration // Time to first fragment
	Completed bool
}

// NewStats creates a new Stats with start time set.
func NewStats() *Stats {
	return &Stats{
		StartTime: time.Now(),
	}
}

// RecordBytes counts raw body bytes.
func (s *Stats) RecordBytes(n int) {
	s.Bytes += n
	recordBytes(n)
}

// RecordFragment counts a delivered fragment and marks the first one.
func (s *Stats) RecordFragment() {
	s.Fragments++
	if s.FirstFragmentTime.IsZero() {
		s.FirstFragmentTime = time.Now()
		s.TTFF = s.FirstFragmentTime.Sub(s.StartTime)
		recordFirstFragment(s.TTFF)
	}
	recordFragment()
}

// Finalize records the end of the stream.
func (s *Stats) Finalize(completed bool) {
	s.EndTime = time.Now()
	s.Completed = completed
}

// Duration returns the total time spent streaming.
func (s Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}
