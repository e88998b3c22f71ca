package utils

import (
	"testing"
	"time"
)

func TestCurrentYear(t *testing.T) {
	if got := CurrentYear(); got != time.Now().UTC().Year() {
		t.Errorf("CurrentYear() = %d, want %d", got, time.Now().UTC().Year())
	}
}

func TestClampYear(t *testing.T) {
	tests := []struct {
		year, min, max int
		expected       int
	}{
		{2010, 1990, 2026, 2010},
		{1975, 1990, 2026, 1990},
		{2030, 1990, 2026, 2026},
		{1990, 1990, 2026, 1990},
		{2026, 1990, 2026, 2026},
	}

	for _, tt := range tests {
		if got := ClampYear(tt.year, tt.min, tt.max); got != tt.expected {
			t.Errorf("ClampYear(%d, %d, %d) = %d, want %d",
				tt.year, tt.min, tt.max, got, tt.expected)
		}
	}
}
