package database

import (
	"fmt"
	"strconv"
)

// FormatAmount encodes an unsigned amount for a TEXT column.
func FormatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ParseAmount decodes an amount written by FormatAmount.
func ParseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return v, nil
}

// BoolToInt maps a bool to SQLite's integer representation.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
