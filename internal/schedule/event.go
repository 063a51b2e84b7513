// Package schedule contains the pure scheduling core of the weekly calendar:
// the event model, Sunday-aligned week arithmetic, the time-grid layout
// geometry and the local/external merge policy. Nothing here touches the
// network or the database, which keeps every rule independently testable.
package schedule

import "time"

// Origin tags where an event came from. The merge policy treats the two
// provenances differently: local events are never touched by a
// reconciliation pass, external events are replaced wholesale.
type Origin string

const (
	// OriginLocal marks an appointment authored inside the application.
	OriginLocal Origin = "local"
	// OriginExternal marks an event synced from the external calendar provider.
	OriginExternal Origin = "external"
)

// UntitledPlaceholder is the display title substituted for provider events
// that carry no summary of their own.
const UntitledPlaceholder = "(Sin título)"

// Event is a single entry on the weekly calendar.
type Event struct {
	ID          string
	Title       string
	Start       time.Time
	End         time.Time
	Description string
	Origin      Origin
}

// IsLocal reports whether the event was authored locally.
func (e Event) IsLocal() bool {
	return e.Origin == OriginLocal
}

// NormalizeAllDay expands an all-day event's date pair into the concrete
// instants used on the grid: 00:00:00 of the first day through 23:59:59 of
// the last day, both in the day's own location.
func NormalizeAllDay(firstDay, lastDay time.Time) (start, end time.Time) {
	start = time.Date(firstDay.Year(), firstDay.Month(), firstDay.Day(), 0, 0, 0, 0, firstDay.Location())
	end = time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 23, 59, 59, 0, lastDay.Location())
	return start, end
}
