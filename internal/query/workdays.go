package query

import (
	"math"
	"time"
)

// workingDays counts Monday through Friday, inclusive, over the calendar
// dates of [start, end]. Time of day is ignored on both ends.
func workingDays(start, end time.Time) int {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())

	count := 0
	for !day.After(last) {
		if wd := day.Weekday(); wd >= time.Monday && wd <= time.Friday {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// round2 rounds half-up to two decimal places on the scaled value.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
