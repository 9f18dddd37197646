package pdfjson

import "fmt"

// An Error is one recorded problem with the JSON input. Recording an
// Error does not stop the import; the import fails as a whole once the
// input has been fully processed.
type Error struct {
	Source string // name of the input
	Object string // "obj:n g R" or "trailer" when inside an object entry
	Offset int64  // byte offset of the offending value
	Msg    string
}

func (e *Error) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("%s (%s, offset %d): %s", e.Source, e.Object, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s (offset %d): %s", e.Source, e.Offset, e.Msg)
}
