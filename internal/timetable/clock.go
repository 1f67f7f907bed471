package timetable

import (
	"fmt"
	"math"
	"time"
)

const clockLayout = "15:04"

// parseClock converts "HH:MM" into minutes after midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock renders minutes after midnight as "HH:MM". Values past midnight wrap.
func formatClock(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
