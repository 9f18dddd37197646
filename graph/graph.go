// Package graph holds an in-memory graph of PDF objects: typed nodes
// that may reference each other indirectly by (id, generation) pairs.
//
// Objects handed out by a Graph are stable handles. Replace swaps the
// content of the node behind a handle without invalidating any
// reference already pointing at it, which is what allows an object to
// be referenced before it is defined: the graph hands out a reserved
// placeholder, and the definition later replaces it in place.
package graph

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ScriptRock/pdfjson/internal/encoding"
)

// A Ptr identifies an indirect object by number and generation.
type Ptr struct {
	ID  uint32
	Gen uint16
}

func (p Ptr) String() string {
	return fmt.Sprintf("%d %d R", p.ID, p.Gen)
}

// A Kind specifies the kind of data underlying an Object.
type Kind int

// The object kinds.
const (
	NullKind Kind = iota
	BoolKind
	IntegerKind
	RealKind
	StringKind
	NameKind
	DictKind
	ArrayKind
	StreamKind
	ReservedKind
)

// A Name is a PDF name, without the leading slash.
type Name string

// A Real is the literal text of a real number. Keeping the text
// preserves the precision and formatting of the source.
type Real string

// A Provider writes a stream's payload bytes to w. It is invoked at
// most once, when the payload is actually consumed.
type Provider func(w io.Writer) error

type reserved struct{}

type stream struct {
	dict     *Object
	provider Provider
}

// An Object is a single node in the graph. The zero Object is a null.
type Object struct {
	ptr      Ptr
	indirect bool
	desc     string
	data     any
}

// Constructors for direct objects.

func NewNull() *Object               { return &Object{} }
func NewBool(v bool) *Object         { return &Object{data: v} }
func NewInteger(v int64) *Object     { return &Object{data: v} }
func NewName(name string) *Object    { return &Object{data: Name(name)} }
func NewDict() *Object               { return &Object{data: dict{}} }
func NewArray() *Object              { return &Object{data: &array{}} }
func NewByteString(b []byte) *Object { return &Object{data: b} }

// NewReal returns a real number node holding the given literal text.
// The text must be a valid JSON number.
func NewReal(text string) *Object { return &Object{data: Real(text)} }

// NewUnicodeString returns a string node for the given text. Printable
// ASCII is stored as-is; anything else is stored as big-endian UTF-16
// with a byte order mark.
func NewUnicodeString(s string) *Object {
	b := []byte(s)
	if !encoding.IsPrintableASCII(b) {
		b = encoding.UTF16Encode(s)
	}
	return &Object{data: b}
}

// NewStream returns a stream node with an empty dictionary and no
// payload.
func NewStream() *Object {
	return &Object{data: &stream{dict: NewDict()}}
}

type dict map[Name]*Object

// array is a pointer target so that appends through any handle that
// shares the node are visible everywhere.
type array struct {
	elems []*Object
}

// Kind reports the kind of data underlying o.
func (o *Object) Kind() Kind {
	switch o.data.(type) {
	default:
		return NullKind
	case bool:
		return BoolKind
	case int64:
		return IntegerKind
	case Real:
		return RealKind
	case []byte:
		return StringKind
	case Name:
		return NameKind
	case dict:
		return DictKind
	case *array:
		return ArrayKind
	case *stream:
		return StreamKind
	case reserved:
		return ReservedKind
	}
}

// IsNull reports whether the object is a null.
func (o *Object) IsNull() bool { return o.data == nil }

// IsIndirect reports whether o lives in a graph's object table and is
// addressed by Ptr.
func (o *Object) IsIndirect() bool { return o.indirect }

// Ptr returns o's object number and generation.
// The zero Ptr is returned for direct objects.
func (o *Object) Ptr() Ptr { return o.ptr }

// Description returns the human-readable provenance of o, typically
// the input name and byte offset it was materialized from.
func (o *Object) Description() string { return o.desc }

func (o *Object) SetDescription(desc string) { o.desc = desc }

// Bool returns o's boolean value.
// If o.Kind() != BoolKind, Bool returns false.
func (o *Object) Bool() bool {
	v, _ := o.data.(bool)
	return v
}

// Int64 returns o's integer value.
// If o.Kind() != IntegerKind, Int64 returns 0.
func (o *Object) Int64() int64 {
	v, _ := o.data.(int64)
	return v
}

// RealText returns the literal text of o's real number value.
// If o.Kind() != RealKind, RealText returns the empty string.
func (o *Object) RealText() string {
	v, _ := o.data.(Real)
	return string(v)
}

// Float64 returns o's numeric value, converting from integer or real
// text if necessary.
func (o *Object) Float64() float64 {
	switch v := o.data.(type) {
	case int64:
		return float64(v)
	case Real:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	}
	return 0
}

// RawString returns o's string value as raw bytes.
// If o.Kind() != StringKind, RawString returns nil.
func (o *Object) RawString() []byte {
	v, _ := o.data.([]byte)
	return v
}

// Text returns o's string value as UTF-8 text for display, decoding
// UTF-16 storage if present and normalizing the result. Use RawString
// for the stored bytes.
func (o *Object) Text() string {
	v, ok := o.data.([]byte)
	if !ok {
		return ""
	}
	if encoding.IsUTF16(v) {
		return encoding.Normalize(encoding.UTF16Decode(v[2:]))
	}
	return string(v)
}

// Name returns o's name value, without the leading slash.
// If o.Kind() != NameKind, Name returns the empty string.
func (o *Object) Name() string {
	v, _ := o.data.(Name)
	return string(v)
}

// Key returns the value associated with the given name key in the
// dictionary o. The key should not include a leading slash. If o is a
// stream, Key applies to the stream's dictionary. A missing key or a
// non-dictionary receiver yields a null object.
func (o *Object) Key(key string) *Object {
	d, ok := o.data.(dict)
	if !ok {
		s, ok := o.data.(*stream)
		if !ok {
			return NewNull()
		}
		d = s.dict.data.(dict)
	}
	if v, ok := d[Name(key)]; ok {
		return v
	}
	return NewNull()
}

// Keys returns a sorted list of the keys in the dictionary o.
// If o is a stream, Keys applies to the stream's dictionary.
func (o *Object) Keys() []string {
	d, ok := o.data.(dict)
	if !ok {
		s, ok := o.data.(*stream)
		if !ok {
			return nil
		}
		d = s.dict.data.(dict)
	}
	keys := []string{} // not nil
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// SetKey sets the given key of the dictionary o. If o is a stream,
// SetKey applies to the stream's dictionary. Setting a key on any
// other kind is a no-op.
func (o *Object) SetKey(key string, v *Object) {
	d, ok := o.data.(dict)
	if !ok {
		s, ok := o.data.(*stream)
		if !ok {
			return
		}
		d = s.dict.data.(dict)
	}
	d[Name(key)] = v
}

// DeleteKey removes the given key from the dictionary o.
func (o *Object) DeleteKey(key string) {
	d, ok := o.data.(dict)
	if !ok {
		s, ok := o.data.(*stream)
		if !ok {
			return
		}
		d = s.dict.data.(dict)
	}
	delete(d, Name(key))
}

// Len returns the length of the array o.
// If o.Kind() != ArrayKind, Len returns 0.
func (o *Object) Len() int {
	a, ok := o.data.(*array)
	if !ok {
		return 0
	}
	return len(a.elems)
}

// Index returns the i'th element of the array o. If o is not an array
// or i is out of bounds, Index returns a null object.
func (o *Object) Index(i int) *Object {
	a, ok := o.data.(*array)
	if !ok || i < 0 || i >= len(a.elems) {
		return NewNull()
	}
	return a.elems[i]
}

// Append appends v to the array o. Appending to any other kind is a
// no-op.
func (o *Object) Append(v *Object) {
	a, ok := o.data.(*array)
	if !ok {
		return
	}
	a.elems = append(a.elems, v)
}

// IsStream reports whether o is a stream node.
func (o *Object) IsStream() bool {
	_, ok := o.data.(*stream)
	return ok
}

// StreamDict returns the stream's dictionary, or a null object if o is
// not a stream.
func (o *Object) StreamDict() *Object {
	s, ok := o.data.(*stream)
	if !ok {
		return NewNull()
	}
	return s.dict
}

// SetStreamDict replaces the stream's dictionary. d must be a
// dictionary node.
func (o *Object) SetStreamDict(d *Object) {
	s, ok := o.data.(*stream)
	if !ok || d.Kind() != DictKind {
		return
	}
	s.dict = d
}

// SetStreamData attaches the payload provider invoked when the
// stream's bytes are consumed. It overwrites any previous provider.
func (o *Object) SetStreamData(p Provider) {
	if s, ok := o.data.(*stream); ok {
		s.provider = p
	}
}

// HasStreamData reports whether a payload provider is attached.
func (o *Object) HasStreamData() bool {
	s, ok := o.data.(*stream)
	return ok && s.provider != nil
}

// StreamData writes the stream's payload to w by invoking the attached
// provider. It is an error if o is not a stream or has no payload.
func (o *Object) StreamData(w io.Writer) error {
	s, ok := o.data.(*stream)
	if !ok {
		return fmt.Errorf("graph: object %v is not a stream", o.ptr)
	}
	if s.provider == nil {
		return fmt.Errorf("graph: stream %v has no payload", o.ptr)
	}
	return s.provider(w)
}

// A Graph is a table of indirect objects plus the trailer dictionary
// and the document's format version tag.
type Graph struct {
	objs    map[Ptr]*Object
	trailer *Object
	version string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{objs: make(map[Ptr]*Object)}
}

// Version returns the document format version tag (e.g. "1.7").
func (g *Graph) Version() string { return g.version }

func (g *Graph) SetVersion(v string) { g.version = v }

// Trailer returns the trailer dictionary, or nil if none has been set.
func (g *Graph) Trailer() *Object { return g.trailer }

func (g *Graph) SetTrailer(t *Object) { g.trailer = t }

// ReserveIfNotExists returns the object at ptr, creating a reserved
// placeholder if the graph has no object there yet. The returned
// handle stays valid across a later Replace.
func (g *Graph) ReserveIfNotExists(ptr Ptr) *Object {
	if o, ok := g.objs[ptr]; ok {
		return o
	}
	o := &Object{ptr: ptr, indirect: true, data: reserved{}}
	g.objs[ptr] = o
	return o
}

// Replace swaps the content of the object at ptr with that of repl,
// in place, so every handle already referencing the object sees the
// new content. The canonical handle is returned; repl itself must no
// longer be used to address the graph object.
func (g *Graph) Replace(ptr Ptr, repl *Object) *Object {
	o, ok := g.objs[ptr]
	if !ok {
		o = &Object{ptr: ptr, indirect: true}
		g.objs[ptr] = o
	}
	o.data = repl.data
	o.desc = repl.desc
	return o
}

// ReserveStream makes the object at ptr a stream with an empty
// dictionary and no payload, and returns its handle.
func (g *Graph) ReserveStream(ptr Ptr) *Object {
	return g.Replace(ptr, NewStream())
}

// Objects returns the graph's indirect objects ordered by object
// number and generation. The order is stable across calls, making
// exports deterministic.
func (g *Graph) Objects() []*Object {
	ptrs := make([]Ptr, 0, len(g.objs))
	for p := range g.objs {
		ptrs = append(ptrs, p)
	}
	sort.Slice(ptrs, func(i, j int) bool {
		if ptrs[i].ID != ptrs[j].ID {
			return ptrs[i].ID < ptrs[j].ID
		}
		return ptrs[i].Gen < ptrs[j].Gen
	})
	objs := make([]*Object, len(ptrs))
	for i, p := range ptrs {
		objs[i] = g.objs[p]
	}
	return objs
}

// ObjectCount returns the number of indirect objects in the graph.
func (g *Graph) ObjectCount() int { return len(g.objs) }

// MaxObjectID returns the highest object number in the graph.
func (g *Graph) MaxObjectID() uint32 {
	var max uint32
	for p := range g.objs {
		if p.ID > max {
			max = p.ID
		}
	}
	return max
}
