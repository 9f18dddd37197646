package pdfjson

// The import reactor. It consumes the scanner's structural events and
// builds graph objects, tracking its position in the schema with an
// explicit state plus a stack of saved states. An example of the
// transitions while parsing a minimal file:
//
//                                 | stInitial
//  {                              |   -> stTop
//    "qpdf-v2": {                 |   -> stQPDF
//      "objects": {               |   -> stObjects
//        "obj:1 0 R": {           |   -> stObjectTop
//          "value": {             |   -> stObject
//            "/Pages": "2 0 R",   |   ...
//            "/Type": "/Catalog"  |   ...
//          }                      |   <- stObjectTop
//        },                       |   <- stObjects
//        "obj:4 0 R": {           |   -> stObjectTop
//          "stream": {            |   -> stStream
//            "data": "cG90YXRv",  |   ...
//            "dict": {            |   -> stObject
//              "/K": true         |   ...
//            }                    |   <- stStream
//          }                      |   <- stObjectTop
//        },                       |   <- stObjects
//        "trailer": {             |   -> stTrailer
//          "value": {             |   -> stObject
//            "/Root": "1 0 R",    |   ...
//            "/Size": 7           |   ...
//          }                      |   <- stTrailer
//        }                        |   <- stObjects
//      }                          |   <- stQPDF
//    }                            |   <- stTop
//  }                              |   <- stInitial

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ScriptRock/pdfjson/graph"
)

type state int

const (
	stInitial state = iota
	stTop
	stQPDF
	stObjects
	stObjectTop
	stStream
	stObject
	stTrailer
	stIgnore
)

var (
	pdfVersionRE  = regexp.MustCompile(`^\d+\.\d+$`)
	objKeyRE      = regexp.MustCompile(`^obj:(\d+) (\d+) R$`)
	indirectObjRE = regexp.MustCompile(`^(\d+) (\d+) R$`)
	binaryRE      = regexp.MustCompile(`^b:((?:[0-9a-fA-F]{2})*)$`)
)

// errNotDictionary aborts the whole import; it is not a recorded error.
var errNotDictionary = errors.New("JSON input must be a dictionary")

// A source is the JSON input being imported: the reader is retained by
// embedded payload providers, which seek back into it lazily.
type source struct {
	r    io.ReaderAt
	name string
}

type importReactor struct {
	g              *graph.Graph
	src            *source
	mustBeComplete bool

	errs       []error
	parseError bool

	sawQPDF       bool
	sawObjects    bool
	sawPDFVersion bool
	sawTrailer    bool

	state       state
	nextState   state
	stateStack  []state
	objectStack []*graph.Object
	curObject   string
	reserved    map[graph.Ptr]bool

	// Flags for the object entry currently being parsed; reset when
	// the entry closes.
	sawValue        bool
	sawStream       bool
	sawDict         bool
	sawData         bool
	sawDatafile     bool
	streamPreexists bool
}

func newImportReactor(g *graph.Graph, src *source, mustBeComplete bool) *importReactor {
	return &importReactor{
		g:              g,
		src:            src,
		mustBeComplete: mustBeComplete,
		state:          stInitial,
		nextState:      stTop,
		stateStack:     []state{stInitial},
		reserved:       make(map[graph.Ptr]bool),
	}
}

// error records a soft error. Parsing continues, but the import fails
// as a whole once the input has been consumed.
func (r *importReactor) error(offset int64, msg string) {
	r.errs = append(r.errs, &Error{
		Source: r.src.name,
		Object: r.curObject,
		Offset: offset,
		Msg:    msg,
	})
}

func (r *importReactor) containerStart() {
	r.stateStack = append(r.stateStack, r.state)
	r.state = r.nextState
}

func (r *importReactor) dictionaryStart() error {
	r.containerStart()
	return nil
}

func (r *importReactor) arrayStart() error {
	r.containerStart()
	if r.state == stTop {
		return errNotDictionary
	}
	return nil
}

func (r *importReactor) topLevelScalar() error {
	return errNotDictionary
}

func (r *importReactor) containerEnd(v jsval) error {
	n := len(r.stateStack)
	r.state = r.stateStack[n-1]
	r.stateStack = r.stateStack[:n-1]
	switch r.state {
	case stInitial:
		if !r.sawQPDF {
			r.error(0, `"qpdf-v2" object was not seen`)
			break
		}
		if r.mustBeComplete && !r.sawPDFVersion {
			r.error(0, `"qpdf-v2.pdfversion" was not seen`)
		}
		if !r.sawObjects {
			r.error(0, `"qpdf-v2.objects" was not seen`)
		} else if r.mustBeComplete && !r.sawTrailer {
			r.error(0, `"qpdf-v2.objects.trailer" was not seen`)
		}
	case stObjects:
		if r.parseError {
			// The entry was already rejected; don't pile on.
		} else if r.curObject == "trailer" {
			if !r.sawValue {
				r.error(v.start, `"trailer" is missing "value"`)
			}
		} else if r.sawValue == r.sawStream {
			r.error(v.start, `object must have exactly one of "value" or "stream"`)
		}
		r.objectStack = r.objectStack[:0]
		r.curObject = ""
		r.parseError = false
		r.sawValue = false
		r.sawStream = false
		r.sawDict = false
		r.sawData = false
		r.sawDatafile = false
		r.streamPreexists = false
	case stObjectTop:
		if r.sawStream {
			if !r.sawDict {
				r.error(v.start, `"stream" is missing "dict"`)
			}
			if r.mustBeComplete {
				if r.sawData == r.sawDatafile {
					r.error(v.start, `"stream" must have exactly one of "data" or "datafile"`)
				}
			} else if r.sawData && r.sawDatafile {
				// In update mode a stream with neither key keeps its
				// existing payload, but both is still ambiguous.
				r.error(v.start, `"stream" may have at most one of "data" or "datafile"`)
			} else if !r.sawData && !r.sawDatafile && !r.streamPreexists {
				// Omitting the payload is only meaningful when there is
				// an existing payload to keep.
				r.error(v.start, `"stream" with no "data" or "datafile" requires an existing stream`)
			}
		}
	case stStream, stObject:
		if !r.parseError {
			if len(r.objectStack) == 0 {
				panic("pdfjson: no object on stack at container end")
			}
			r.objectStack = r.objectStack[:len(r.objectStack)-1]
		}
	case stQPDF:
		// Any reference still reserved here points at an object the
		// input never defined. Resolve them all to null so no dangling
		// reservation survives the import.
		for ptr := range r.reserved {
			r.g.Replace(ptr, graph.NewNull())
		}
		r.reserved = make(map[graph.Ptr]bool)
	}
	return nil
}

// nestedState transitions for a key whose value must be a dictionary.
func (r *importReactor) nestedState(key string, v jsval, next state) {
	if v.isDict() {
		r.nextState = next
	} else {
		r.error(v.start, `"`+key+`" must be a dictionary`)
		r.nextState = stIgnore
		r.parseError = true
	}
}

func (r *importReactor) reserveObject(ptr graph.Ptr) *graph.Object {
	o := r.g.ReserveIfNotExists(ptr)
	if o.Kind() == graph.ReservedKind {
		r.reserved[ptr] = true
	}
	return o
}

// replaceObject resolves a reservation: the object at ptr takes on
// repl's content in place, and is no longer pending. When repl is
// itself a still-pending reference (a value that is a bare reference
// string to an undefined object), the copied content is pending too,
// so the object stays in the drain set and resolves to null with the
// rest.
func (r *importReactor) replaceObject(ptr graph.Ptr, repl *graph.Object) *graph.Object {
	delete(r.reserved, ptr)
	o := r.g.Replace(ptr, repl)
	if o.Kind() == graph.ReservedKind {
		r.reserved[ptr] = true
	}
	return o
}

func (r *importReactor) dictionaryItem(key string, v jsval) error {
	switch r.state {
	case stIgnore:
		// ignore
	case stTop:
		if key == "qpdf-v2" {
			r.sawQPDF = true
			r.nestedState(key, v, stQPDF)
		} else {
			// Unknown top-level keys are explicitly allowed so the
			// document can be embedded alongside other data.
			r.nextState = stIgnore
		}
	case stQPDF:
		switch key {
		case "pdfversion":
			r.sawPDFVersion = true
			if v.kind == jsString && pdfVersionRE.MatchString(v.text) {
				r.g.SetVersion(v.text)
			} else {
				r.error(v.start, "invalid PDF version (must be x.y)")
			}
		case "objects":
			r.sawObjects = true
			r.nestedState(key, v, stObjects)
		default:
			// Unknown keys, including "maxobjectid", are informational.
			r.nextState = stIgnore
		}
	case stObjects:
		if key == "trailer" {
			r.sawTrailer = true
			r.nestedState(key, v, stTrailer)
			r.curObject = "trailer"
		} else if ptr, ok := parseObjKey(key); ok {
			r.objectStack = append(r.objectStack, r.reserveObject(ptr))
			r.nestedState(key, v, stObjectTop)
			r.curObject = key
		} else {
			r.error(v.start, `object key should be "trailer" or "obj:n n R"`)
			r.nextState = stIgnore
			r.parseError = true
		}
	case stObjectTop:
		if len(r.objectStack) == 0 {
			panic("pdfjson: no object on stack in object-top state")
		}
		tos := r.objectStack[len(r.objectStack)-1]
		var replacement *graph.Object
		switch key {
		case "value":
			// Not nestedState: a value may have any type.
			r.sawValue = true
			r.nextState = stObject
			replacement = r.replaceObject(tos.Ptr(), r.makeObject(v))
		case "stream":
			r.sawStream = true
			r.nestedState(key, v, stStream)
			if tos.IsStream() {
				r.streamPreexists = true
			} else {
				replacement = r.replaceObject(tos.Ptr(), graph.NewStream())
			}
		default:
			// Unknown keys are ignored for forward compatibility.
			r.nextState = stIgnore
		}
		if replacement != nil {
			r.objectStack[len(r.objectStack)-1] = replacement
		}
	case stTrailer:
		switch key {
		case "value":
			r.sawValue = true
			// The trailer must be a dictionary.
			r.nestedState("trailer.value", v, stObject)
			r.g.SetTrailer(r.makeObject(v))
		case "stream":
			r.error(v.start, "the trailer may not be a stream")
			r.nextState = stIgnore
			r.parseError = true
		default:
			r.nextState = stIgnore
		}
	case stStream:
		if len(r.objectStack) == 0 {
			panic("pdfjson: no object on stack in stream state")
		}
		tos := r.objectStack[len(r.objectStack)-1]
		if !tos.IsStream() {
			r.error(v.start, "this object is not a stream")
			r.parseError = true
			break
		}
		switch key {
		case "dict":
			r.sawDict = true
			// A stream dictionary must be a dictionary.
			r.nestedState("stream.dict", v, stObject)
			if d := r.makeObject(v); d.Kind() == graph.DictKind {
				tos.SetStreamDict(d)
			} else {
				// nestedState already recorded the error.
				r.parseError = true
			}
		case "data":
			r.sawData = true
			if v.kind != jsString {
				r.error(v.start, `"stream.data" must be a string`)
				break
			}
			// The token range includes the quotes.
			start, end := v.start+1, v.end-1
			if end < start {
				panic("pdfjson: JSON string length < 0")
			}
			tos.SetStreamData(provideData(r.src.r, start, end))
		case "datafile":
			r.sawDatafile = true
			if v.kind != jsString {
				r.error(v.start, `"stream.datafile" must be a string containing a file name`)
				break
			}
			tos.SetStreamData(provideFile(v.text))
		default:
			r.nextState = stIgnore
		}
	case stObject:
		if !r.parseError {
			if len(r.objectStack) == 0 {
				panic("pdfjson: no object on stack in object state")
			}
			tos := r.objectStack[len(r.objectStack)-1]
			tos.SetKey(strings.TrimPrefix(key, "/"), r.makeObject(v))
		}
	default:
		panic(fmt.Sprintf("pdfjson: unknown state %d", r.state))
	}
	return nil
}

func (r *importReactor) arrayItem(v jsval) error {
	if r.state == stObject && !r.parseError {
		if len(r.objectStack) == 0 {
			panic("pdfjson: no object on stack in object state")
		}
		r.objectStack[len(r.objectStack)-1].Append(r.makeObject(v))
	}
	return nil
}

// makeObject converts one scanned JSON value into a graph object.
// Containers come back empty and are pushed onto the object stack so
// the events that follow populate them in place.
func (r *importReactor) makeObject(v jsval) *graph.Object {
	var result *graph.Object
	switch v.kind {
	case jsDict:
		result = graph.NewDict()
		r.objectStack = append(r.objectStack, result)
	case jsArray:
		result = graph.NewArray()
		r.objectStack = append(r.objectStack, result)
	case jsNull:
		result = graph.NewNull()
	case jsBool:
		result = graph.NewBool(v.bool)
	case jsNumber:
		if i, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			result = graph.NewInteger(i)
		} else {
			result = graph.NewReal(v.text)
		}
	case jsString:
		result = r.makeString(v)
	default:
		panic(fmt.Sprintf("pdfjson: unknown value kind %d", v.kind))
	}
	result.SetDescription(fmt.Sprintf("%s offset %d", r.src.name, v.start))
	return result
}

// makeString applies the string tagging grammar, first match wins:
// "n g R" is an indirect reference, "u:" prefixes Unicode text, "b:"
// prefixes hex-encoded bytes, "/" prefixes a name.
func (r *importReactor) makeString(v jsval) *graph.Object {
	if m := indirectObjRE.FindStringSubmatch(v.text); m != nil {
		if ptr, ok := parsePtr(m[1], m[2]); ok {
			return r.reserveObject(ptr)
		}
	} else if rest, ok := strings.CutPrefix(v.text, "u:"); ok {
		return graph.NewUnicodeString(rest)
	} else if m := binaryRE.FindStringSubmatch(v.text); m != nil {
		if b, err := hex.DecodeString(m[1]); err == nil {
			return graph.NewByteString(b)
		}
	} else if strings.HasPrefix(v.text, "/") {
		return graph.NewName(v.text[1:])
	}
	r.error(v.start, "unrecognized string value")
	return graph.NewNull()
}

func parseObjKey(key string) (graph.Ptr, bool) {
	m := objKeyRE.FindStringSubmatch(key)
	if m == nil {
		return graph.Ptr{}, false
	}
	return parsePtr(m[1], m[2])
}

func parsePtr(obj, gen string) (graph.Ptr, bool) {
	id, err1 := strconv.ParseUint(obj, 10, 32)
	g, err2 := strconv.ParseUint(gen, 10, 16)
	if err1 != nil || err2 != nil {
		return graph.Ptr{}, false
	}
	return graph.Ptr{ID: uint32(id), Gen: uint16(g)}, true
}
