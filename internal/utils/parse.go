// internal/utils/parse.go

package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// IsNA reports whether a scraped table cell carries no usable value.
func IsNA(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "-", "N/A", "NA", "NONE":
		return true
	}
	return false
}

// ParseCount parses an integer cell that may carry thousands separators,
// e.g. "1,234". N/A-style cells parse as zero.
func ParseCount(s string) (int, error) {
	if IsNA(s) {
		return 0, nil
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", s, err)
	}
	return n, nil
}

// ParsePercent parses a percentage cell such as "12.3%" or "12.3".
// N/A-style cells parse as zero.
func ParsePercent(s string) (float64, error) {
	if IsNA(s) {
		return 0, nil
	}
	cleaned := strings.TrimSuffix(strings.TrimSpace(s), "%")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	return v, nil
}
