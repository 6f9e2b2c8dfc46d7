package campus_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-campus"
	"github.com/stretchr/testify/assert"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	tests := []struct {
		name      string
		inputTime time.Time
		period    time.Duration
		expected  bool
	}{
		{
			name:      "Within 1 hour threshold",
			inputTime: time.Now().Add(-30 * time.Minute),
			period:    time.Hour,
			expected:  true,
		},
		{
			name:      "Outside 1 hour threshold",
			inputTime: time.Now().Add(-90 * time.Minute),
			period:    time.Hour,
			expected:  false,
		},
		{
			name:      "At exact threshold",
			inputTime: time.Now().Add(-1 * time.Hour),
			period:    time.Hour,
			expected:  false, // we check if time is AFTER threshold
		},
		{
			name:      "Complex threshold (2h30m)",
			inputTime: time.Now().Add(-2 * time.Hour),
			period:    2*time.Hour + 30*time.Minute,
			expected:  true,
		},
		{
			name:      "Future time",
			inputTime: time.Now().Add(1 * time.Hour),
			period:    2 * time.Hour,
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, campus.IsWithinThresholdPeriod(tt.inputTime, tt.period))
			assert.Equal(t, !tt.expected, campus.IsOutsideThresholdPeriod(tt.inputTime, tt.period))
		})
	}
}
