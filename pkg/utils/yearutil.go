package utils

import "time"

// CurrentYear returns the current calendar year (UTC).
func CurrentYear() int {
	return time.Now().UTC().Year()
}

// ClampYear bounds a year into [min, max] inclusive.
func ClampYear(year, min, max int) int {
	if year < min {
		return min
	}
	if year > max {
		return max
	}
	return year
}
