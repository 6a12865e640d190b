// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns a chunked HTTP body into a sequence of decoded text
// fragments.
package stream

import (
	"errors"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// INCREMENTAL DECODER
// =============================================================================

// Decoder converts UTF-8 bytes to text across arbitrary chunk boundaries.
//
// A multi-byte character split between two chunks is held back in carry
// until the rest of it arrives, so a fragment never contains half a
// character. Ill-formed input is replaced with U+FFFD.
//
// A Decoder is owned by a single stream and is not safe for concurrent use.
type Decoder struct {
	t     *encoding.Decoder
	carry []byte
}

// NewDecoder creates a decoder with no pending bytes.
func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text for every complete character in carry+chunk and
// keeps the incomplete tail for the next call.
func (d *Decoder) Decode(chunk []byte) string {
	return d.transform(chunk, false)
}

// Flush decodes whatever is still pending at end of stream. A dangling
// partial sequence becomes U+FFFD.
func (d *Decoder) Flush() string {
	return d.transform(nil, true)
}

// Pending returns the number of bytes held back for the next chunk.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) transform(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.carry) > 0 {
		src = make([]byte, 0, len(d.carry)+len(chunk))
		src = append(src, d.carry...)
		src = append(src, chunk...)
	}
	if len(src) == 0 {
		return ""
	}

	// Each input byte expands to at most one U+FFFD (3 bytes).
	dst := make([]byte, 3*len(src))
	nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		// Unreachable with a large enough dst; keep the bytes rather than lose them.
		nSrc = 0
		nDst = 0
	}

	if nSrc < len(src) {
		d.carry = append([]byte(nil), src[nSrc:]...)
	} else {
		d.carry = nil
	}
	return string(dst[:nDst])
}
