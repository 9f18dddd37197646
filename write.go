package pdfjson

// Serialization of an object graph back to the qpdf-v2 JSON schema.
// The walk order is the graph's stable enumeration order, so two
// exports of the same graph produce byte-identical output.

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ScriptRock/pdfjson/graph"
	"github.com/ScriptRock/pdfjson/internal/encoding"
)

// A DecodeLevel controls how much of a stream payload's original
// encoding the writer undoes before emitting it.
type DecodeLevel int

const (
	// DecodeNone emits payloads exactly as stored.
	DecodeNone DecodeLevel = iota
	// DecodeGeneralized undoes general-purpose filters (FlateDecode,
	// ASCII85Decode); unsupported filters fall back to the stored bytes.
	DecodeGeneralized
	// DecodeSpecialized and DecodeAll currently behave as
	// DecodeGeneralized: no specialized filters are implemented.
	DecodeSpecialized
	DecodeAll
)

// A StreamDataPolicy controls where stream payloads go in the output.
type StreamDataPolicy int

const (
	// StreamDataInline embeds each payload as base64 under "data".
	StreamDataInline StreamDataPolicy = iota
	// StreamDataFile writes each payload to a file named
	// "<prefix>-<objectid>" and references it under "datafile".
	StreamDataFile
	// StreamDataOmit leaves payloads out entirely.
	StreamDataOmit
)

// WriteJSON emits the graph as a qpdf-v2 JSON document to w. Only
// schema version 2 is supported; requesting any other version is a
// usage error. If wanted is non-empty, only objects whose key
// ("obj:n g R" or "trailer") appears in it are emitted. filePrefix
// names the payload files written under StreamDataFile.
func WriteJSON(g *graph.Graph, version int, w io.Writer, decodeLevel DecodeLevel, streamData StreamDataPolicy, filePrefix string, wanted map[string]bool) error {
	if version != 2 {
		return fmt.Errorf("pdfjson: only JSON version 2 is supported")
	}
	jw := &jsonWriter{w: w}
	jw.raw("{\n  \"qpdf-v2\": {\n")
	jw.raw("    \"pdfversion\": " + jsonQuote(g.Version()) + ",\n")
	jw.raw("    \"maxobjectid\": " + strconv.FormatUint(uint64(g.MaxObjectID()), 10) + ",\n")
	jw.raw("    \"objects\": {")
	all := len(wanted) == 0
	first := true
	for _, o := range g.Objects() {
		key := "obj:" + o.Ptr().String()
		if !all && !wanted[key] {
			continue
		}
		jw.entryOpen(&first, key)
		if o.IsStream() {
			if err := writeStreamEntry(jw, o, decodeLevel, streamData, filePrefix); err != nil {
				return err
			}
		} else {
			jw.raw("        \"value\": ")
			writeValue(jw, o, 8, true)
			jw.raw("\n")
		}
		jw.raw("      }")
	}
	if all || wanted["trailer"] {
		// The trailer entry is always present, null when the graph has
		// none, so a strict re-import fails on the trailer value rather
		// than on the document shape.
		jw.entryOpen(&first, "trailer")
		jw.raw("        \"value\": ")
		if t := g.Trailer(); t != nil {
			writeValue(jw, t, 8, true)
		} else {
			jw.raw("null")
		}
		jw.raw("\n      }")
	}
	if !first {
		jw.raw("\n    ")
	}
	jw.raw("}\n  }\n}\n")
	return jw.err
}

// writeStreamEntry emits {"stream": {"data"/"datafile"?, "dict"}}. The
// member order is alphabetical, matching dictionary rendering.
func writeStreamEntry(jw *jsonWriter, o *graph.Object, decodeLevel DecodeLevel, streamData StreamDataPolicy, filePrefix string) error {
	dict := o.StreamDict()
	var payload []byte
	havePayload := false
	if o.HasStreamData() && streamData != StreamDataOmit {
		var buf bytes.Buffer
		if err := o.StreamData(&buf); err != nil {
			return fmt.Errorf("pdfjson: stream %v: %w", o.Ptr(), err)
		}
		payload = buf.Bytes()
		havePayload = true
		if decodeLevel > DecodeNone {
			if decoded, ok := decodeStream(dict, payload); ok {
				payload = decoded
				dict = strippedDict(dict)
			}
		}
	}

	jw.raw("        \"stream\": {\n")
	if havePayload {
		switch streamData {
		case StreamDataInline:
			jw.raw("          \"data\": \"" + base64.StdEncoding.EncodeToString(payload) + "\",\n")
		case StreamDataFile:
			filename := fmt.Sprintf("%s-%d", filePrefix, o.Ptr().ID)
			if err := os.WriteFile(filename, payload, 0666); err != nil {
				return fmt.Errorf("pdfjson: writing stream %v payload: %w", o.Ptr(), err)
			}
			jw.raw("          \"datafile\": " + jsonQuote(filename) + ",\n")
		}
	}
	jw.raw("          \"dict\": ")
	writeValue(jw, dict, 10, true)
	jw.raw("\n        }\n")
	return nil
}

// strippedDict returns a copy of a stream dictionary without the keys
// describing the encoding that was just undone.
func strippedDict(dict *graph.Object) *graph.Object {
	out := graph.NewDict()
	for _, k := range dict.Keys() {
		switch k {
		case "Filter", "DecodeParms", "Length":
			continue
		}
		out.SetKey(k, dict.Key(k))
	}
	return out
}

// writeValue renders one object. Indirect objects nested inside
// another value render as "n g R" references; top is true when the
// object's own content is wanted.
func writeValue(jw *jsonWriter, o *graph.Object, indent int, top bool) {
	if o.IsIndirect() && !top {
		jw.raw(jsonQuote(o.Ptr().String()))
		return
	}
	switch o.Kind() {
	case graph.NullKind, graph.ReservedKind:
		jw.raw("null")
	case graph.BoolKind:
		jw.raw(strconv.FormatBool(o.Bool()))
	case graph.IntegerKind:
		jw.raw(strconv.FormatInt(o.Int64(), 10))
	case graph.RealKind:
		jw.raw(o.RealText())
	case graph.StringKind:
		jw.raw(jsonQuote(renderString(o.RawString())))
	case graph.NameKind:
		jw.raw(jsonQuote("/" + o.Name()))
	case graph.DictKind:
		keys := o.Keys()
		if len(keys) == 0 {
			jw.raw("{}")
			return
		}
		jw.raw("{\n")
		pad := strings.Repeat(" ", indent+2)
		for i, k := range keys {
			jw.raw(pad + jsonQuote("/"+k) + ": ")
			writeValue(jw, o.Key(k), indent+2, false)
			if i < len(keys)-1 {
				jw.raw(",")
			}
			jw.raw("\n")
		}
		jw.raw(strings.Repeat(" ", indent) + "}")
	case graph.ArrayKind:
		if o.Len() == 0 {
			jw.raw("[]")
			return
		}
		jw.raw("[\n")
		pad := strings.Repeat(" ", indent+2)
		for i := 0; i < o.Len(); i++ {
			jw.raw(pad)
			writeValue(jw, o.Index(i), indent+2, false)
			if i < o.Len()-1 {
				jw.raw(",")
			}
			jw.raw("\n")
		}
		jw.raw(strings.Repeat(" ", indent) + "]")
	case graph.StreamKind:
		// Streams are always indirect, so a direct stream here means
		// the graph was built incorrectly.
		jw.fail(fmt.Errorf("pdfjson: direct stream object cannot be rendered"))
	}
}

// renderString mirrors the import tagging grammar: UTF-16 storage and
// printable ASCII render as "u:" text, anything else as "b:" hex.
func renderString(b []byte) string {
	if encoding.IsUTF16(b) {
		return "u:" + encoding.UTF16Decode(b[2:])
	}
	if encoding.IsPrintableASCII(b) {
		return "u:" + string(b)
	}
	return "b:" + hex.EncodeToString(b)
}

// jsonQuote renders s as a JSON string literal.
func jsonQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// A jsonWriter accumulates output with a sticky error.
type jsonWriter struct {
	w   io.Writer
	err error
}

func (jw *jsonWriter) raw(s string) {
	if jw.err != nil {
		return
	}
	_, jw.err = io.WriteString(jw.w, s)
}

func (jw *jsonWriter) fail(err error) {
	if jw.err == nil {
		jw.err = err
	}
}

// entryOpen starts one member of the "objects" dictionary.
func (jw *jsonWriter) entryOpen(first *bool, key string) {
	if *first {
		jw.raw("\n")
		*first = false
	} else {
		jw.raw(",\n")
	}
	jw.raw("      " + jsonQuote(key) + ": {\n")
}
