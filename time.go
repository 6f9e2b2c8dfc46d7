package campus

import "time"

// IsWithinThresholdPeriod checks if t happened less than period ago.
func IsWithinThresholdPeriod(t time.Time, period time.Duration) bool {
	return t.After(time.Now().Add(-period))
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod
func IsOutsideThresholdPeriod(t time.Time, period time.Duration) bool {
	return !IsWithinThresholdPeriod(t, period)
}
