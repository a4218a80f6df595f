package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSize parses a human-readable size string into bytes.
// Supports: 100, 100B, 100K, 100M, 100G, 100T, and the same with a trailing
// B (100MB). Uses powers of 1024, matching rsync behavior.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	upper := strings.ToUpper(s)
	// "100MB" and "100M" mean the same thing.
	if len(upper) >= 2 && strings.HasSuffix(upper, "B") &&
		strings.ContainsAny(upper[len(upper)-2:len(upper)-1], "KMGT") {
		upper = upper[:len(upper)-1]
	}

	multiplier := int64(1)
	numStr := upper

	switch upper[len(upper)-1:] {
	case "B":
		numStr = upper[:len(upper)-1]
	case "K":
		multiplier = 1024
		numStr = upper[:len(upper)-1]
	case "M":
		multiplier = 1024 * 1024
		numStr = upper[:len(upper)-1]
	case "G":
		multiplier = 1024 * 1024 * 1024
		numStr = upper[:len(upper)-1]
	case "T":
		multiplier = 1024 * 1024 * 1024 * 1024
		numStr = upper[:len(upper)-1]
	}

	if numStr == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	if n, err := strconv.ParseInt(numStr, 10, 64); err == nil {
		return n * multiplier, nil
	}

	f, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	return int64(f * float64(multiplier)), nil
}
