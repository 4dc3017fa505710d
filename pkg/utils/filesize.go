package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// DefaultMinSize is the scan threshold used when none is given ("1MB").
const DefaultMinSize = 1 * MB

// FormatBytes converts bytes to a human-readable string with one decimal,
// e.g. "0 B", "1.5 KB", "1.0 MB". Values of 1 TB and above render in TB.
func FormatBytes(bytes int64) string {
	if bytes < KB {
		if bytes < 0 {
			bytes = 0
		}
		return fmt.Sprintf("%d B", bytes)
	}

	value := float64(bytes)
	for _, unit := range []string{"KB", "MB", "GB"} {
		value /= 1024
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
	}

	return fmt.Sprintf("%.1f TB", value/1024)
}

// ParseSize converts human-readable size to bytes. Units are binary and
// case-insensitive; a bare number is a byte count.
func ParseSize(size string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(size))
	if s == "" {
		return 0, fmt.Errorf("invalid size format: %q", size)
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid size format: %q", size)
	}

	var multiplier int64
	switch unit {
	case "", "B":
		multiplier = B
	case "K", "KB", "KIB":
		multiplier = KB
	case "M", "MB", "MIB":
		multiplier = MB
	case "G", "GB", "GIB":
		multiplier = GB
	case "T", "TB", "TIB":
		multiplier = TB
	default:
		return 0, fmt.Errorf("unknown unit %q in size %q", unit, size)
	}

	bytes := value * float64(multiplier)
	if math.IsNaN(bytes) || math.IsInf(bytes, 0) || bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", size)
	}

	return int64(bytes), nil
}

// SumSizes adds up a slice of sizes
func SumSizes(sizes []int64) int64 {
	var total int64
	for _, size := range sizes {
		total += size
	}
	return total
}
