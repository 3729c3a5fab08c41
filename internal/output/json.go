// internal/output/json.go
package output

import (
	"encoding/json"
	"os"
)

// JSONWriter appends records to a file as a stream of indented JSON
// values.
type JSONWriter struct {
	filename string
	file     *os.File
}

// NewJSONWriter opens (or creates) the target file for appending.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{filename: filename, file: file}, nil
}

// Write encodes the batch onto the file.
func (w *JSONWriter) Write(records []Record) error {
	encoder := json.NewEncoder(w.file)
	encoder.SetIndent("", "  ")
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush syncs the file.
func (w *JSONWriter) Flush() error {
	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

// Close closes the underlying file.
func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
