// internal/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter writes records to a CSV file. The header is taken from the
// first record's sorted keys; later records are projected onto it.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
	header   []string
}

// NewCSVWriter creates the target file and prepares the writer.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{
		filename: filename,
		file:     file,
		writer:   csv.NewWriter(file),
	}, nil
}

// Write appends the batch, emitting the header on first use.
func (w *CSVWriter) Write(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	if w.header == nil {
		w.header = records[0].Columns()
		if err := w.writer.Write(w.header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, r := range records {
		row := make([]string, len(w.header))
		for i, col := range w.header {
			if v, ok := r[col]; ok && v != nil {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return nil
}

// Flush drains the csv buffer to disk.
func (w *CSVWriter) Flush() error {
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the file.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		w.file = nil
		return err
	}
	err := w.file.Close()
	w.file = nil
	return err
}
