// internal/utils/parse_test.go

package utils

import "testing"

func TestParseCount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"plain", "42", 42, false},
		{"thousands separator", "1,234", 1234, false},
		{"millions", "2,345,678", 2345678, false},
		{"surrounding space", "  512 ", 512, false},
		{"na cell", "N/A", 0, false},
		{"dash cell", "-", 0, false},
		{"empty cell", "", 0, false},
		{"zero", "0", 0, false},
		{"garbage", "abc", 0, true},
		{"decimal", "12.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"with sign", "12.3%", 12.3, false},
		{"without sign", "7", 7, false},
		{"zero", "0.00%", 0, false},
		{"spaced", " 0.50 % ", 0.5, false},
		{"na cell", "N/A", 0, false},
		{"empty", "", 0, false},
		{"garbage", "high", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePercent(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePercent(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePercent(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsNA(t *testing.T) {
	for _, s := range []string{"N/A", "n/a", "-", "", "  ", "None"} {
		if !IsNA(s) {
			t.Errorf("IsNA(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "12", "N/A extra"} {
		if IsNA(s) {
			t.Errorf("IsNA(%q) = true, want false", s)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  List  One ", "list one"},
		{"IB6 Fronter", "ib6 fronter"},
		{"MLM-Leads", "mlm-leads"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Fresh MLM Leads April", "mlm") {
		t.Error("expected match on case-insensitive substring")
	}
	if ContainsFold("Fresh Leads April", "mlm") {
		t.Error("unexpected match")
	}
}
