package pdfjson

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/ScriptRock/pdfjson/graph"
)

// provideData returns a payload provider that re-reads the base64 text
// at [start, end) of the input, decodes it, and writes the decoded
// bytes to the consumer's sink. Nothing is read until the provider is
// invoked.
func provideData(r io.ReaderAt, start, end int64) graph.Provider {
	return func(w io.Writer) error {
		dec := base64.NewDecoder(base64.StdEncoding, io.NewSectionReader(r, start, end-start))
		buf := make([]byte, 8192)
		if _, err := io.CopyBuffer(w, dec, buf); err != nil {
			return fmt.Errorf("decoding stream data: %w", err)
		}
		return nil
	}
}

// provideFile returns a payload provider that streams the named file's
// raw bytes to the consumer's sink. The file is opened only when the
// provider is invoked.
func provideFile(filename string) graph.Provider {
	return func(w io.Writer) error {
		f, err := os.Open(filename)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(w, f); err != nil {
			return fmt.Errorf("reading stream data from %s: %w", filename, err)
		}
		return nil
	}
}
