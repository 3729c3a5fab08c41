// internal/zoom/numbers.go
package zoom

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// NormalizeNumber reduces a raw phone entry to a 10-digit US number.
// Formatting characters are stripped; an 11-digit number with a leading
// country code 1 is accepted and trimmed. Anything else is rejected.
func NormalizeNumber(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	switch {
	case len(s) == 10:
		return s, nil
	case len(s) == 11 && s[0] == '1':
		return s[1:], nil
	case s == "":
		return "", fmt.Errorf("no digits in %q", raw)
	default:
		return "", fmt.Errorf("%q is not a 10-digit US number", raw)
	}
}

// LoadNumbers reads phone numbers from a .txt, .csv or .xlsx file,
// normalizes and dedupes them. Malformed entries are returned
// separately so the caller can report them without aborting the batch.
func LoadNumbers(path string) (valid, rejected []string, err error) {
	var raw []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		raw, err = readExcelNumbers(path)
	case ".csv":
		raw, err = readCSVNumbers(path)
	default:
		raw, err = readLineNumbers(path)
	}
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		number, normErr := NormalizeNumber(entry)
		if normErr != nil {
			rejected = append(rejected, entry)
			continue
		}
		if seen[number] {
			continue
		}
		seen[number] = true
		valid = append(valid, number)
	}
	return valid, rejected, nil
}

func readLineNumbers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open numbers file: %w", err)
	}
	defer file.Close()

	var numbers []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		numbers = append(numbers, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read numbers file: %w", err)
	}
	return numbers, nil
}

func readCSVNumbers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open numbers file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var numbers []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV numbers: %w", err)
		}
		// Numbers live in the first column; remaining columns are
		// notes.
		if len(row) > 0 {
			numbers = append(numbers, row[0])
		}
	}
	return numbers, nil
}

func readExcelNumbers(path string) ([]string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	var numbers []string
	for _, row := range rows {
		if len(row) > 0 {
			numbers = append(numbers, row[0])
		}
	}
	return numbers, nil
}
