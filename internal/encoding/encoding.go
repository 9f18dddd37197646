// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package encoding classifies and converts the byte strings stored in
// an object graph. A string is kept either as raw bytes or as
// big-endian UTF-16 with a byte order mark; the helpers here decide
// which form a string is in and convert between UTF-16 and UTF-8.
package encoding

import (
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// IsUTF16 reports whether b is big-endian UTF-16 text,
// identified by a leading byte order mark.
func IsUTF16(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xfe && b[1] == 0xff && len(b)%2 == 0
}

// UTF16Decode converts big-endian UTF-16 text (without the byte order
// mark) to UTF-8. The code points are preserved exactly, so an
// encode-decode round trip reproduces the original text.
func UTF16Decode(b []byte) string {
	var u []uint16
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
	}

	return string(utf16.Decode(u))
}

// Normalize returns the NFKC normal form of s. It is meant for display
// and comparison; stored string values keep their original form.
func Normalize(s string) string {
	return norm.NFKC.String(s)
}

// UTF16Encode converts UTF-8 text to big-endian UTF-16
// with a leading byte order mark.
func UTF16Encode(s string) []byte {
	u := utf16.Encode([]rune(s))
	b := make([]byte, 0, 2*len(u)+2)
	b = append(b, 0xfe, 0xff)
	for _, r := range u {
		b = append(b, byte(r>>8), byte(r))
	}
	return b
}

// IsPrintableASCII reports whether every byte of b is a printable
// ASCII character. Such strings survive a round trip through UTF-8
// text unchanged.
func IsPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
