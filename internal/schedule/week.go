package schedule

import "time"

// DaysPerWeek is the fixed cardinality of a displayed week.
const DaysPerWeek = 7

// WeekStart returns midnight of the Sunday on or before ref, in ref's
// location. Go's time.Weekday already numbers Sunday as 0, so the day of
// week doubles as the number of days to walk back. Using AddDate keeps
// month and year rollovers correct (a Wednesday in the last week of
// December lands on the Sunday of the December/January spanning week).
func WeekStart(ref time.Time) time.Time {
	year, month, day := ref.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, ref.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// WeekDays returns the 7 consecutive calendar days starting at weekStart.
func WeekDays(weekStart time.Time) []time.Time {
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}

// WeekWindow is the Sunday-to-Saturday range currently displayed. Start is
// always the midnight instant of a Sunday; Days holds the 7 calendar days
// in ascending order.
type WeekWindow struct {
	Start time.Time
	Days  []time.Time
}

// NewWeekWindow builds the window containing ref. Any reference instant
// within the same Sunday-to-Saturday span yields the same window.
func NewWeekWindow(ref time.Time) WeekWindow {
	start := WeekStart(ref)
	return WeekWindow{Start: start, Days: WeekDays(start)}
}

// End returns the exclusive upper bound of the window, midnight of the
// following Sunday. Fetch queries use [Start, End).
func (w WeekWindow) End() time.Time {
	return w.Start.AddDate(0, 0, DaysPerWeek)
}

// Contains reports whether t falls inside [Start, End).
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End())
}

// Overlaps reports whether the interval [start, end) intersects the window.
// Fetch and display are both overlap-based: a multi-day event that begins
// before the week still belongs on its grid.
func (w WeekWindow) Overlaps(start, end time.Time) bool {
	return end.After(w.Start) && start.Before(w.End())
}

// Equal reports whether two windows describe the same week.
func (w WeekWindow) Equal(o WeekWindow) bool {
	return w.Start.Equal(o.Start)
}
