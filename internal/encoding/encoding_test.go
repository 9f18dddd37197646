// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encoding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_IsUTF16(t *testing.T) {
	testCases := map[string]struct {
		in   []byte
		want bool
	}{
		"bom only":     {in: []byte{0xfe, 0xff}, want: true},
		"bom and text": {in: []byte{0xfe, 0xff, 0x00, 0x41}, want: true},
		"no bom":       {in: []byte("plain"), want: false},
		"little bom":   {in: []byte{0xff, 0xfe, 0x41, 0x00}, want: false},
		"odd length":   {in: []byte{0xfe, 0xff, 0x00}, want: false},
		"empty":        {in: nil, want: false},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := IsUTF16(tc.in); got != tc.want {
				t.Errorf("IsUTF16(% x) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func Test_UTF16RoundTrip(t *testing.T) {
	testCases := map[string]string{
		"ascii":          "hello",
		"latin":          "héllo wörld",
		"outside bmp":    "\U0001f600",
		"empty":          "",
		"mixed scripts":  "abcΔδ",
		"combining mark": "e\u0301",
		"ligature":       "\ufb01le",
	}
	for name, text := range testCases {
		t.Run(name, func(t *testing.T) {
			enc := UTF16Encode(text)
			if !IsUTF16(enc) {
				t.Fatalf("UTF16Encode(%q) lacks a byte order mark: % x", text, enc)
			}
			if got := UTF16Decode(enc[2:]); got != text {
				t.Errorf("round trip of %q = %q", text, got)
			}
		})
	}
}

func Test_UTF16Decode_PreservesText(t *testing.T) {
	testCases := map[string]struct {
		in   []byte
		want string
	}{
		// e followed by a combining acute accent stays decomposed.
		"combining mark": {in: []byte{0x00, 0x65, 0x03, 0x01}, want: "e\u0301"},
		// The fi ligature keeps its code point.
		"ligature": {in: []byte{0xfb, 0x01, 0x00, 0x6c, 0x00, 0x65}, want: "\ufb01le"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := UTF16Decode(tc.in); got != tc.want {
				t.Errorf("UTF16Decode(% x) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func Test_Normalize(t *testing.T) {
	testCases := map[string]struct {
		in   string
		want string
	}{
		"composes":   {in: "e\u0301", want: "\u00e9"},
		"decomposes": {in: "\ufb01le", want: "file"},
		"identity":   {in: "plain", want: "plain"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func Test_UTF16Encode_Bytes(t *testing.T) {
	want := []byte{0xfe, 0xff, 0x00, 0x41, 0x00, 0x42}
	if diff := cmp.Diff(want, UTF16Encode("AB")); diff != "" {
		t.Errorf("UTF16Encode(AB) mismatch (-want +got):\n%s", diff)
	}
}

func Test_IsPrintableASCII(t *testing.T) {
	testCases := map[string]struct {
		in   []byte
		want bool
	}{
		"printable": {in: []byte("The quick brown fox!"), want: true},
		"empty":     {in: nil, want: true},
		"newline":   {in: []byte("a\nb"), want: false},
		"high byte": {in: []byte{0x41, 0xc3, 0xa9}, want: false},
		"delete":    {in: []byte{0x7f}, want: false},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := IsPrintableASCII(tc.in); got != tc.want {
				t.Errorf("IsPrintableASCII(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
