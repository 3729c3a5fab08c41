// internal/zoom/numbers_test.go
package zoom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare ten digits", "5551234567", "5551234567", false},
		{"formatted", "(555) 123-4567", "5551234567", false},
		{"dotted", "555.123.4567", "5551234567", false},
		{"leading country code", "15551234567", "5551234567", false},
		{"plus one", "+1 555 123 4567", "5551234567", false},
		{"too short", "555123", "", true},
		{"too long", "555123456789", "", true},
		{"eleven digits wrong prefix", "25551234567", "", true},
		{"no digits", "call me", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeNumber(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeNumber(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNumbersText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.txt")
	content := "5551234567\n(555) 123-4567\n\nbogus\n15559876543\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	valid, rejected, err := LoadNumbers(path)
	if err != nil {
		t.Fatalf("LoadNumbers() error = %v", err)
	}

	// The formatted duplicate collapses onto the first entry.
	want := []string{"5551234567", "5559876543"}
	if len(valid) != len(want) {
		t.Fatalf("valid = %v, want %v", valid, want)
	}
	for i := range want {
		if valid[i] != want[i] {
			t.Errorf("valid[%d] = %q, want %q", i, valid[i], want[i])
		}
	}
	if len(rejected) != 1 || rejected[0] != "bogus" {
		t.Errorf("rejected = %v, want [bogus]", rejected)
	}
}

func TestLoadNumbersCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.csv")
	content := "5551234567,lead from May\n5559876543,callback request\nnot-a-number,junk row\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	valid, rejected, err := LoadNumbers(path)
	if err != nil {
		t.Fatalf("LoadNumbers() error = %v", err)
	}
	if len(valid) != 2 {
		t.Fatalf("valid = %v, want 2 numbers", valid)
	}
	if valid[0] != "5551234567" || valid[1] != "5559876543" {
		t.Errorf("valid = %v", valid)
	}
	if len(rejected) != 1 {
		t.Errorf("rejected = %v, want 1 entry", rejected)
	}
}

func TestLoadNumbersExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.xlsx")

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	book.SetCellValue(sheet, "A1", "5551234567")
	book.SetCellValue(sheet, "A2", "(555) 987-6543")
	book.SetCellValue(sheet, "A3", "header junk")
	if err := book.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	book.Close()

	valid, rejected, err := LoadNumbers(path)
	if err != nil {
		t.Fatalf("LoadNumbers() error = %v", err)
	}
	if len(valid) != 2 {
		t.Fatalf("valid = %v, want 2 numbers", valid)
	}
	if valid[1] != "5559876543" {
		t.Errorf("valid[1] = %q, want 5559876543", valid[1])
	}
	if len(rejected) != 1 {
		t.Errorf("rejected = %v, want 1 entry", rejected)
	}
}

func TestLoadNumbersMissingFile(t *testing.T) {
	if _, _, err := LoadNumbers(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
