// Package report implements the weekly order aggregation: bakery-week
// boundaries, the summary reducer, and export shaping.
package report

import "time"

// The bakery week runs Wednesday 16:00 to Wednesday 16:00: the order
// cutoff for the coming Friday's bake. An order placed at exactly 16:00:00
// on Wednesday still belongs to the week that is ending, so week-start
// instants sit one minute past the cutover at 16:01:00 and range queries
// use [start, nextStart).

const (
	cutoverHour = 16
	cutoverDay  = time.Wednesday
)

// CurrentWeekStart maps now to the start of the bakery week containing it.
// If now is a Wednesday at or before 16:00:00, the week that started last
// Wednesday is still running; strictly after 16:00:00 a new week has begun.
func CurrentWeekStart(now time.Time) time.Time {
	cutover := time.Date(now.Year(), now.Month(), now.Day(), cutoverHour, 0, 0, 0, now.Location())
	daysBack := (int(now.Weekday()) - int(cutoverDay) + 7) % 7
	wed := cutover.AddDate(0, 0, -daysBack)

	if !now.After(wed) {
		wed = wed.AddDate(0, 0, -7)
	}
	return wed.Add(time.Minute)
}

// NextWeekStart returns the start of the bakery week after the one
// containing ref.
func NextWeekStart(ref time.Time) time.Time {
	return CurrentWeekStart(ref).AddDate(0, 0, 7)
}

// WeekEndDisplay returns the last calendar day of the week starting at
// start, used for human-readable period labels.
func WeekEndDisplay(start time.Time) time.Time {
	return start.AddDate(0, 0, 6)
}
