// Package utils provides common formatting helpers for macrovista.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatNumber formats a value with thousands separators and up to two
// decimal places, trailing zeros trimmed. e.g. 1234567.5 → "1,234,567.5".
func FormatNumber(v float64) string {
	v = math.Round(v*100) / 100
	negative := v < 0
	v = math.Abs(v)

	intPart := int64(v)
	frac := v - float64(intPart)

	formatted := groupThousands(intPart)
	if frac > 0 {
		decStr := fmt.Sprintf("%.2f", frac)
		decStr = strings.TrimRight(decStr, "0")
		formatted += decStr[1:] // skip the leading "0"
	}

	if negative {
		return "-" + formatted
	}
	return formatted
}

// FormatCompact formats a value in compact notation for tight spaces
// such as chart axis ticks. e.g. 1927345000 → "1.93B", 2500 → "2.5K".
func FormatCompact(v float64) string {
	prefix := ""
	if v < 0 {
		prefix = "-"
		v = math.Abs(v)
	}

	switch {
	case v >= 1e12:
		return fmt.Sprintf("%s%sT", prefix, formatWithDecimals(v/1e12))
	case v >= 1e9:
		return fmt.Sprintf("%s%sB", prefix, formatWithDecimals(v/1e9))
	case v >= 1e6:
		return fmt.Sprintf("%s%sM", prefix, formatWithDecimals(v/1e6))
	case v >= 1e3:
		return fmt.Sprintf("%s%sK", prefix, formatWithDecimals(v/1e3))
	default:
		return prefix + formatWithDecimals(v)
	}
}

// FormatPct formats a percentage value with a % suffix.
// e.g. 4.25 → "4.25%", -1.2 → "-1.2%"
func FormatPct(v float64) string {
	return formatWithDecimals(math.Round(v*100)/100) + "%"
}

// groupThousands formats an integer with Western grouping (groups of 3).
func groupThousands(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	groups = append([]string{s}, groups...)

	return strings.Join(groups, ",")
}

// formatWithDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
