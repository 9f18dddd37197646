package pdfjson

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// A recordingReactor captures the event stream for inspection.
type recordingReactor struct {
	events []string
	vals   []jsval
}

func (r *recordingReactor) record(ev string, v jsval) {
	r.events = append(r.events, ev)
	r.vals = append(r.vals, v)
}

func (r *recordingReactor) dictionaryStart() error {
	r.record("dictStart", jsval{})
	return nil
}

func (r *recordingReactor) arrayStart() error {
	r.record("arrayStart", jsval{})
	return nil
}

func (r *recordingReactor) containerEnd(v jsval) error {
	r.record("containerEnd", v)
	return nil
}

func (r *recordingReactor) dictionaryItem(key string, v jsval) error {
	r.record("dictItem "+key, v)
	return nil
}

func (r *recordingReactor) arrayItem(v jsval) error {
	r.record("arrayItem", v)
	return nil
}

func (r *recordingReactor) topLevelScalar() error {
	r.record("topLevelScalar", jsval{})
	return nil
}

func Test_ScanJSON_EventOrder(t *testing.T) {
	doc := `{"a": 1, "b": [true, null], "c": "x"}`
	re := &recordingReactor{}
	if err := scanJSON(strings.NewReader(doc), re); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	// Items announce their value before the value's own content events,
	// so a container's item event precedes its start event.
	want := []string{
		"dictStart",
		"dictItem a",
		"dictItem b",
		"arrayStart",
		"arrayItem",
		"arrayItem",
		"containerEnd",
		"dictItem c",
		"containerEnd",
	}
	if diff := cmp.Diff(want, re.events); diff != "" {
		t.Errorf("event order mismatch (-want +got):\n%s", diff)
	}
}

func Test_ScanJSON_ScalarValues(t *testing.T) {
	doc := `{"i": -12, "r": 3.5e2, "t": true, "f": false, "n": null, "s": "hi"}`
	re := &recordingReactor{}
	if err := scanJSON(strings.NewReader(doc), re); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	byKey := map[string]jsval{}
	for i, ev := range re.events {
		if key, ok := strings.CutPrefix(ev, "dictItem "); ok {
			byKey[key] = re.vals[i]
		}
	}
	if v := byKey["i"]; v.kind != jsNumber || v.text != "-12" {
		t.Errorf("i = %+v, want number -12", v)
	}
	if v := byKey["r"]; v.kind != jsNumber || v.text != "3.5e2" {
		t.Errorf("r = %+v, want number 3.5e2", v)
	}
	if v := byKey["t"]; v.kind != jsBool || !v.bool {
		t.Errorf("t = %+v, want true", v)
	}
	if v := byKey["f"]; v.kind != jsBool || v.bool {
		t.Errorf("f = %+v, want false", v)
	}
	if v := byKey["n"]; v.kind != jsNull {
		t.Errorf("n = %+v, want null", v)
	}
	if v := byKey["s"]; v.kind != jsString || v.text != "hi" {
		t.Errorf("s = %+v, want string hi", v)
	}
}

func Test_ScanJSON_StringOffsets(t *testing.T) {
	doc := `{"k": "abc"}`
	re := &recordingReactor{}
	if err := scanJSON(strings.NewReader(doc), re); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	var v jsval
	for i, ev := range re.events {
		if ev == "dictItem k" {
			v = re.vals[i]
		}
	}
	// The token range includes the quotes; the embedded content is the
	// open interval between them.
	if v.start != 6 || v.end != 11 {
		t.Fatalf("token range = [%d, %d), want [6, 11)", v.start, v.end)
	}
	if got := doc[v.start+1 : v.end-1]; got != "abc" {
		t.Errorf("embedded range = %q, want abc", got)
	}
}

func Test_ScanJSON_EscapedStringOffsets(t *testing.T) {
	// The token range covers the raw escaped text, not the decoded form.
	doc := `{"k": "a\nb"}`
	re := &recordingReactor{}
	if err := scanJSON(strings.NewReader(doc), re); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	var v jsval
	for i, ev := range re.events {
		if ev == "dictItem k" {
			v = re.vals[i]
		}
	}
	if got := doc[v.start:v.end]; got != `"a\nb"` {
		t.Errorf("token range = %q, want the raw quoted text", got)
	}
	if v.text != "a\nb" {
		t.Errorf("decoded text = %q, want a newline between a and b", v.text)
	}
}

func Test_ScanJSON_StringEscapes(t *testing.T) {
	testCases := map[string]struct {
		doc  string
		want string
	}{
		"simple":         {doc: `{"k": "a\"b\\c\/d"}`, want: `a"b\c/d`},
		"controls":       {doc: `{"k": "\b\f\n\r\t"}`, want: "\b\f\n\r\t"},
		"unicode escapes": {doc: `{"k": "\u0041\u00e9"}`, want: "Aé"},
		"surrogate pair":  {doc: `{"k": "\ud83d\ude00"}`, want: "\U0001f600"},
		"raw utf-8":       {doc: `{"k": "héllo"}`, want: "héllo"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			re := &recordingReactor{}
			if err := scanJSON(strings.NewReader(tc.doc), re); err != nil {
				t.Fatalf("scan failed: %v", err)
			}
			var v jsval
			for i, ev := range re.events {
				if ev == "dictItem k" {
					v = re.vals[i]
				}
			}
			if v.text != tc.want {
				t.Errorf("decoded string = %q, want %q", v.text, tc.want)
			}
		})
	}
}

func Test_ScanJSON_TopLevelScalar(t *testing.T) {
	re := &recordingReactor{}
	if err := scanJSON(strings.NewReader(`42`), re); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if diff := cmp.Diff([]string{"topLevelScalar"}, re.events); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func Test_ScanJSON_Malformed(t *testing.T) {
	testCases := map[string]struct {
		doc     string
		wantErr string
	}{
		"empty input":         {doc: ``, wantErr: "unexpected end of input"},
		"trailing data":       {doc: `{} x`, wantErr: "unexpected data after top-level value"},
		"missing colon":       {doc: `{"a" 1}`, wantErr: "expected ':'"},
		"missing comma dict":  {doc: `{"a": 1 "b": 2}`, wantErr: "expected ',' or '}'"},
		"missing comma array": {doc: `[1 2]`, wantErr: "expected ',' or ']'"},
		"non-string key":      {doc: `{1: 2}`, wantErr: "expected dictionary key"},
		"bad literal":         {doc: `{"a": nul}`, wantErr: "invalid literal"},
		"bad number":          {doc: `{"a": -}`, wantErr: "invalid number"},
		"missing fraction":    {doc: `{"a": 1.}`, wantErr: "missing fraction digits"},
		"missing exponent":    {doc: `{"a": 1e}`, wantErr: "missing exponent digits"},
		"unterminated string": {doc: `{"a": "x`, wantErr: "unterminated string"},
		"control char":        {doc: "{\"a\": \"x\x01\"}", wantErr: "control character in string"},
		"bad escape":          {doc: `{"a": "\q"}`, wantErr: `invalid escape`},
		"bad unicode escape":  {doc: `{"a": "\uzzzz"}`, wantErr: `invalid \u escape`},
		"unterminated dict":   {doc: `{"a": 1`, wantErr: "unterminated dictionary"},
		"unterminated array":  {doc: `[1, 2`, wantErr: "unterminated array"},
		"stray close":         {doc: `}`, wantErr: "unexpected character"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := scanJSON(strings.NewReader(tc.doc), &recordingReactor{})
			if err == nil {
				t.Fatal("scan succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func Test_Buffer_Offsets(t *testing.T) {
	b := newBuffer(strings.NewReader("abcdef"), 0)
	if got := b.readOffset(); got != 0 {
		t.Fatalf("initial offset = %d, want 0", got)
	}
	c, ok := b.readByte()
	if !ok || c != 'a' {
		t.Fatalf("readByte = %q, %v", c, ok)
	}
	if got := b.readOffset(); got != 1 {
		t.Errorf("offset after read = %d, want 1", got)
	}
	b.unreadByte()
	if got := b.readOffset(); got != 0 {
		t.Errorf("offset after unread = %d, want 0", got)
	}
	for i := 0; i < 6; i++ {
		if _, ok := b.readByte(); !ok {
			t.Fatalf("readByte %d failed", i)
		}
	}
	if _, ok := b.readByte(); ok {
		t.Error("readByte past end succeeded")
	}
	if got := b.readOffset(); got != 6 {
		t.Errorf("final offset = %d, want 6", got)
	}
}
