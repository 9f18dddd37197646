// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Stream filter decoding used by the JSON writer when a decode level
// above DecodeNone asks for a payload's original encoding to be
// undone before it is emitted.

package pdfjson

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"io"

	"github.com/ScriptRock/pdfjson/graph"
)

// decodeStream undoes the filters named by the stream dictionary's
// /Filter entry. It reports ok=false when the payload must be emitted
// as stored: no filters, an unsupported filter, decode parameters we
// do not handle, or corrupt data.
func decodeStream(dict *graph.Object, data []byte) ([]byte, bool) {
	var names []string
	switch filter := dict.Key("Filter"); filter.Kind() {
	case graph.NullKind:
		return nil, false
	case graph.NameKind:
		names = []string{filter.Name()}
	case graph.ArrayKind:
		for i := 0; i < filter.Len(); i++ {
			names = append(names, filter.Index(i).Name())
		}
	default:
		return nil, false
	}
	if !dict.Key("DecodeParms").IsNull() {
		// Predictors and other parameterized variants are not handled.
		return nil, false
	}

	rd := io.Reader(bytes.NewReader(data))
	for _, name := range names {
		switch name {
		case "FlateDecode":
			zr, err := zlib.NewReader(rd)
			if err != nil {
				return nil, false
			}
			rd = zr
		case "ASCII85Decode":
			rd = ascii85.NewDecoder(newAlphaReader(rd))
		default:
			return nil, false
		}
	}
	out, err := io.ReadAll(rd)
	if err != nil {
		return nil, false
	}
	return out, true
}

// An alphaReader filters whitespace out of an ASCII85 stream before it
// reaches the decoder.
type alphaReader struct {
	r io.Reader
}

func newAlphaReader(r io.Reader) *alphaReader {
	return &alphaReader{r: r}
}

func (a *alphaReader) Read(p []byte) (int, error) {
	for {
		n, err := a.r.Read(p)
		kept := 0
		for _, c := range p[:n] {
			switch c {
			case ' ', '\t', '\r', '\n', '\f', '\v':
				// drop
			default:
				p[kept] = c
				kept++
			}
		}
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}
