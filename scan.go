// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Scanning of JSON tokens and values from a raw byte stream.
//
// The scanner drives a reactor with structural events rather than
// building a document tree. Every value event carries the byte range
// of its token in the input; for strings the range includes the
// enclosing quotes, which lets a consumer re-read the raw (unescaped)
// text of a string in place.

package pdfjson

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// A jsKind is the kind of a scanned JSON value.
type jsKind int

const (
	jsNull jsKind = iota
	jsBool
	jsNumber
	jsString
	jsDict
	jsArray
)

// A jsval describes one scanned JSON value. For scalars the value is
// fully decoded; for containers only the kind and start offset are
// known when the value is first announced, and the end offset is
// filled in by the time containerEnd fires.
type jsval struct {
	kind jsKind
	bool bool
	text string // number literal, or decoded string content
	// Byte range of the token in the input. For strings the range
	// includes the quotes; for containers it spans open to close
	// bracket inclusive of both.
	start, end int64
}

func (v jsval) isDict() bool { return v.kind == jsDict }

// A jsonReactor receives structural events from the scanner.
// dictionaryItem and arrayItem fire before the events of a container
// value's content, so a reactor can decide how to treat the container
// before it is populated.
type jsonReactor interface {
	dictionaryStart() error
	arrayStart() error
	containerEnd(v jsval) error
	dictionaryItem(key string, v jsval) error
	arrayItem(v jsval) error
	topLevelScalar() error
}

// A buffer holds buffered input bytes from the JSON file.
type buffer struct {
	r      io.Reader // source of data
	buf    []byte    // buffered data
	pos    int       // read index in buf
	offset int64     // offset at end of buf; aka offset of next read
	eof    bool
}

// newBuffer returns a new buffer reading from r at the given offset.
func newBuffer(r io.Reader, offset int64) *buffer {
	return &buffer{
		r:      r,
		offset: offset,
		buf:    make([]byte, 0, 4096),
	}
}

func (b *buffer) reload() bool {
	n := cap(b.buf) - int(b.offset%int64(cap(b.buf)))
	n, err := b.r.Read(b.buf[:n])
	if n == 0 {
		b.buf = b.buf[:0]
		b.pos = 0
		b.eof = true
		_ = err
		return false
	}
	b.offset += int64(n)
	b.buf = b.buf[:n]
	b.pos = 0
	return true
}

// readByte returns the next input byte, or ok=false at end of input.
func (b *buffer) readByte() (byte, bool) {
	if b.pos >= len(b.buf) {
		b.reload()
		if b.pos >= len(b.buf) {
			return 0, false
		}
	}
	c := b.buf[b.pos]
	b.pos++
	return c, true
}

func (b *buffer) unreadByte() {
	if b.pos > 0 {
		b.pos--
	}
}

// readOffset returns the offset of the next byte to be read.
func (b *buffer) readOffset() int64 {
	return b.offset - int64(len(b.buf)) + int64(b.pos)
}

// A scanner walks one JSON document and feeds a reactor.
type scanner struct {
	b  *buffer
	re jsonReactor
}

// scanJSON scans a single JSON document from r, driving re. Malformed
// JSON and trailing non-space data are errors, as is any error
// returned by the reactor.
func scanJSON(r io.Reader, re jsonReactor) error {
	s := &scanner{b: newBuffer(r, 0), re: re}
	v, err := s.scanValue(nil)
	if err != nil {
		return err
	}
	if v.kind != jsDict && v.kind != jsArray {
		if err := re.topLevelScalar(); err != nil {
			return err
		}
	}
	s.skipSpace()
	if c, ok := s.b.readByte(); ok {
		return s.errorf("unexpected data after top-level value: %q", c)
	}
	return nil
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("JSON: offset %d: %s", s.b.readOffset(), fmt.Sprintf(format, args...))
}

func (s *scanner) skipSpace() {
	for {
		c, ok := s.b.readByte()
		if !ok {
			return
		}
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			s.b.unreadByte()
			return
		}
	}
}

// scanValue scans one value. If item is non-nil it is invoked with the
// value's descriptor: after decoding for scalars, before content
// events for containers.
func (s *scanner) scanValue(item func(jsval) error) (jsval, error) {
	s.skipSpace()
	c, ok := s.b.readByte()
	if !ok {
		return jsval{}, s.errorf("unexpected end of input")
	}
	s.b.unreadByte()
	switch {
	case c == '{':
		return s.scanContainer(jsDict, item)
	case c == '[':
		return s.scanContainer(jsArray, item)
	case c == '"':
		v, err := s.scanString()
		if err != nil {
			return jsval{}, err
		}
		return v, s.announce(item, v)
	case c == 't' || c == 'f':
		v, err := s.scanLiteral(c == 't')
		if err != nil {
			return jsval{}, err
		}
		return v, s.announce(item, v)
	case c == 'n':
		v, err := s.scanNull()
		if err != nil {
			return jsval{}, err
		}
		return v, s.announce(item, v)
	case c == '-' || '0' <= c && c <= '9':
		v, err := s.scanNumber()
		if err != nil {
			return jsval{}, err
		}
		return v, s.announce(item, v)
	}
	return jsval{}, s.errorf("unexpected character %q", c)
}

func (s *scanner) announce(item func(jsval) error, v jsval) error {
	if item == nil {
		return nil
	}
	return item(v)
}

func (s *scanner) scanContainer(kind jsKind, item func(jsval) error) (jsval, error) {
	v := jsval{kind: kind, start: s.b.readOffset()}
	if err := s.announce(item, v); err != nil {
		return jsval{}, err
	}
	open, _ := s.b.readByte() // '{' or '['
	_ = open
	if kind == jsDict {
		if err := s.re.dictionaryStart(); err != nil {
			return jsval{}, err
		}
		if err := s.scanDictBody(); err != nil {
			return jsval{}, err
		}
	} else {
		if err := s.re.arrayStart(); err != nil {
			return jsval{}, err
		}
		if err := s.scanArrayBody(); err != nil {
			return jsval{}, err
		}
	}
	v.end = s.b.readOffset()
	return v, s.re.containerEnd(v)
}

func (s *scanner) scanDictBody() error {
	s.skipSpace()
	if c, ok := s.b.readByte(); ok && c == '}' {
		return nil
	}
	s.b.unreadByte()
	for {
		s.skipSpace()
		if c, ok := s.b.readByte(); !ok || c != '"' {
			return s.errorf("expected dictionary key")
		}
		s.b.unreadByte()
		key, err := s.scanString()
		if err != nil {
			return err
		}
		s.skipSpace()
		if c, ok := s.b.readByte(); !ok || c != ':' {
			return s.errorf("expected ':' after dictionary key")
		}
		if _, err := s.scanValue(func(v jsval) error {
			return s.re.dictionaryItem(key.text, v)
		}); err != nil {
			return err
		}
		s.skipSpace()
		c, ok := s.b.readByte()
		if !ok {
			return s.errorf("unterminated dictionary")
		}
		if c == '}' {
			return nil
		}
		if c != ',' {
			return s.errorf("expected ',' or '}' in dictionary, got %q", c)
		}
	}
}

func (s *scanner) scanArrayBody() error {
	s.skipSpace()
	if c, ok := s.b.readByte(); ok && c == ']' {
		return nil
	}
	s.b.unreadByte()
	for {
		if _, err := s.scanValue(s.re.arrayItem); err != nil {
			return err
		}
		s.skipSpace()
		c, ok := s.b.readByte()
		if !ok {
			return s.errorf("unterminated array")
		}
		if c == ']' {
			return nil
		}
		if c != ',' {
			return s.errorf("expected ',' or ']' in array, got %q", c)
		}
	}
}

func (s *scanner) scanString() (jsval, error) {
	v := jsval{kind: jsString, start: s.b.readOffset()}
	s.b.readByte() // opening quote
	var out []byte
	for {
		c, ok := s.b.readByte()
		if !ok {
			return jsval{}, s.errorf("unterminated string")
		}
		if c == '"' {
			break
		}
		if c < 0x20 {
			return jsval{}, s.errorf("control character in string")
		}
		if c != '\\' {
			out = append(out, c)
			continue
		}
		e, ok := s.b.readByte()
		if !ok {
			return jsval{}, s.errorf("unterminated escape")
		}
		switch e {
		case '"', '\\', '/':
			out = append(out, e)
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			r, err := s.scanHexRune()
			if err != nil {
				return jsval{}, err
			}
			if utf16.IsSurrogate(r) {
				r2, err := s.scanSurrogatePair()
				if err != nil {
					return jsval{}, err
				}
				r = utf16.DecodeRune(r, r2)
			}
			out = utf8.AppendRune(out, r)
		default:
			return jsval{}, s.errorf("invalid escape \\%c", e)
		}
	}
	v.end = s.b.readOffset()
	v.text = string(out)
	return v, nil
}

func (s *scanner) scanHexRune() (rune, error) {
	var r rune
	for i := 0; i < 4; i++ {
		c, ok := s.b.readByte()
		if !ok {
			return 0, s.errorf("unterminated \\u escape")
		}
		switch {
		case '0' <= c && c <= '9':
			r = r<<4 | rune(c-'0')
		case 'a' <= c && c <= 'f':
			r = r<<4 | rune(c-'a'+10)
		case 'A' <= c && c <= 'F':
			r = r<<4 | rune(c-'A'+10)
		default:
			return 0, s.errorf("invalid \\u escape")
		}
	}
	return r, nil
}

func (s *scanner) scanSurrogatePair() (rune, error) {
	if c, ok := s.b.readByte(); !ok || c != '\\' {
		return 0, s.errorf("unpaired surrogate in \\u escape")
	}
	if c, ok := s.b.readByte(); !ok || c != 'u' {
		return 0, s.errorf("unpaired surrogate in \\u escape")
	}
	return s.scanHexRune()
}

func (s *scanner) scanLiteral(val bool) (jsval, error) {
	v := jsval{kind: jsBool, bool: val, start: s.b.readOffset()}
	want := "false"
	if val {
		want = "true"
	}
	if err := s.expect(want); err != nil {
		return jsval{}, err
	}
	v.end = s.b.readOffset()
	return v, nil
}

func (s *scanner) scanNull() (jsval, error) {
	v := jsval{kind: jsNull, start: s.b.readOffset()}
	if err := s.expect("null"); err != nil {
		return jsval{}, err
	}
	v.end = s.b.readOffset()
	return v, nil
}

func (s *scanner) expect(word string) error {
	for i := 0; i < len(word); i++ {
		c, ok := s.b.readByte()
		if !ok || c != word[i] {
			return s.errorf("invalid literal, expected %q", word)
		}
	}
	return nil
}

func (s *scanner) scanNumber() (jsval, error) {
	v := jsval{kind: jsNumber, start: s.b.readOffset()}
	var lit []byte
	next := func() (byte, bool) {
		c, ok := s.b.readByte()
		if ok {
			lit = append(lit, c)
		}
		return c, ok
	}
	c, _ := next()
	if c == '-' {
		c, _ = next()
	}
	switch {
	case c == '0':
		// no further integer digits
	case '1' <= c && c <= '9':
		c = s.scanDigits(&lit)
	default:
		return jsval{}, s.errorf("invalid number")
	}
	c, ok := s.b.readByte()
	if ok && c == '.' {
		lit = append(lit, c)
		c, ok = s.b.readByte()
		if !ok || c < '0' || c > '9' {
			return jsval{}, s.errorf("invalid number: missing fraction digits")
		}
		lit = append(lit, c)
		s.scanDigits(&lit)
		c, ok = s.b.readByte()
	}
	if ok && (c == 'e' || c == 'E') {
		lit = append(lit, c)
		c, ok = s.b.readByte()
		if ok && (c == '+' || c == '-') {
			lit = append(lit, c)
			c, ok = s.b.readByte()
		}
		if !ok || c < '0' || c > '9' {
			return jsval{}, s.errorf("invalid number: missing exponent digits")
		}
		lit = append(lit, c)
		s.scanDigits(&lit)
		c, ok = s.b.readByte()
	}
	if ok {
		s.b.unreadByte()
	}
	if _, err := strconv.ParseFloat(string(lit), 64); err != nil {
		return jsval{}, s.errorf("invalid number %q", lit)
	}
	v.end = s.b.readOffset()
	v.text = string(lit)
	return v, nil
}

// scanDigits consumes a run of digits, appending them to lit, and
// returns the last digit read.
func (s *scanner) scanDigits(lit *[]byte) byte {
	var last byte
	for {
		c, ok := s.b.readByte()
		if !ok {
			return last
		}
		if c < '0' || c > '9' {
			s.b.unreadByte()
			return last
		}
		*lit = append(*lit, c)
		last = c
	}
}
