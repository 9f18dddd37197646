// Package pdfjson converts between the qpdf-v2 JSON document schema
// and an in-memory graph of PDF objects.
//
// # Overview
//
// The qpdf-v2 schema is a human-diffable JSON rendering of a PDF's
// object graph: a top-level dictionary whose "qpdf-v2" key holds the
// format version, an informational maximum object id, and an "objects"
// dictionary keyed by "obj:n g R" entries plus the "trailer". Each
// entry carries either a "value" (any object) or a "stream" with a
// metadata dictionary and a payload that is embedded as base64 or
// referenced as an external file.
//
// CreateFromJSON builds a fresh graph from such a document, requiring
// it to be structurally complete. UpdateFromJSON applies a document as
// a partial update over an existing graph, relaxing the completeness
// requirements. Both record schema violations as they go and fail as a
// whole if any were recorded, leaving the partial mutations applied: a
// failed import means the resulting graph should not be trusted.
//
// WriteJSON walks a graph and emits the same schema deterministically.
// Stream payloads are read lazily, only at write time, through the
// payload providers registered during import (see graph.Provider).
package pdfjson

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ScriptRock/pdfjson/graph"
)

// CreateFromJSON builds a new object graph from the qpdf-v2 JSON
// document in r, which must be structurally complete: a version, an
// objects dictionary, a trailer, and a payload for every stream.
//
// r is retained by the graph's stream payload providers and must stay
// readable until the payloads have been consumed.
func CreateFromJSON(r io.ReaderAt, size int64, name string) (*graph.Graph, error) {
	g := graph.New()
	if err := importJSON(g, r, size, name, true); err != nil {
		return nil, err
	}
	return g, nil
}

// CreateFromJSONFile is CreateFromJSON reading from the named file.
// The file is kept open for the life of the graph so stream payloads
// can be read lazily.
func CreateFromJSONFile(path string) (*graph.Graph, error) {
	f, size, err := openSource(path)
	if err != nil {
		return nil, err
	}
	g, err := CreateFromJSON(f, size, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return g, nil
}

// UpdateFromJSON applies the qpdf-v2 JSON document in r as a partial
// update to the existing graph g. Completeness requirements are
// relaxed: the version, trailer, and stream payloads may be omitted,
// in which case the existing data is left untouched.
func UpdateFromJSON(g *graph.Graph, r io.ReaderAt, size int64, name string) error {
	return importJSON(g, r, size, name, false)
}

// UpdateFromJSONFile is UpdateFromJSON reading from the named file.
func UpdateFromJSONFile(g *graph.Graph, path string) error {
	f, size, err := openSource(path)
	if err != nil {
		return err
	}
	if err := UpdateFromJSON(g, f, size, path); err != nil {
		f.Close()
		return err
	}
	return nil
}

func openSource(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, fi.Size(), nil
}

func importJSON(g *graph.Graph, r io.ReaderAt, size int64, name string, mustBeComplete bool) error {
	src := &source{r: r, name: name}
	re := newImportReactor(g, src, mustBeComplete)
	if err := scanJSON(io.NewSectionReader(r, 0, size), re); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(re.errs) > 0 {
		return fmt.Errorf("%s: errors found in JSON: %w", name, errors.Join(re.errs...))
	}
	return nil
}
