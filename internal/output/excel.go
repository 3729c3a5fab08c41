// internal/output/excel.go
package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const excelSheet = "Records"

// ExcelWriter writes records to an .xlsx workbook, one row per record
// under a bold header.
type ExcelWriter struct {
	filename string
	book     *excelize.File
	header   []string
	nextRow  int
}

// NewExcelWriter prepares a workbook with a single records sheet.
func NewExcelWriter(filename string) (*ExcelWriter, error) {
	book := excelize.NewFile()
	index, err := book.NewSheet(excelSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	book.SetActiveSheet(index)
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	return &ExcelWriter{filename: filename, book: book, nextRow: 1}, nil
}

// Write appends the batch below any previously written rows.
func (w *ExcelWriter) Write(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	if w.header == nil {
		w.header = records[0].Columns()
		cells := make([]interface{}, len(w.header))
		for i, col := range w.header {
			cells[i] = col
		}
		if err := w.setRow(w.nextRow, cells); err != nil {
			return err
		}
		style, err := w.book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err == nil {
			end, _ := excelize.CoordinatesToCellName(len(w.header), 1)
			w.book.SetCellStyle(excelSheet, "A1", end, style)
		}
		w.nextRow++
	}

	for _, r := range records {
		cells := make([]interface{}, len(w.header))
		for i, col := range w.header {
			cells[i] = r[col]
		}
		if err := w.setRow(w.nextRow, cells); err != nil {
			return err
		}
		w.nextRow++
	}
	return nil
}

func (w *ExcelWriter) setRow(row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.book.SetSheetRow(excelSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// Flush saves the workbook to disk.
func (w *ExcelWriter) Flush() error {
	return w.book.SaveAs(w.filename)
}

// Close saves and releases the workbook.
func (w *ExcelWriter) Close() error {
	if w.book == nil {
		return nil
	}
	if err := w.book.SaveAs(w.filename); err != nil {
		w.book.Close()
		w.book = nil
		return err
	}
	err := w.book.Close()
	w.book = nil
	return err
}
