package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"rizesync/internal/core"
)

// FormatTime renders a duration as "{hours}h {minutes}m" using integer
// division; leftover seconds are dropped.
func FormatTime(seconds core.Seconds) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// Hours converts seconds to hours rounded to two decimal places.
func Hours(seconds core.Seconds) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Round(float64(seconds)/3600*100) / 100
}

// FormatHours renders an hour value so that it always reads as a decimal
// ("0.0", "1.5", "2.25").
func FormatHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
