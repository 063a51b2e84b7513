package schedule

// The day grid runs from 06:00 to 23:00 at 80 pixels per hour. Events
// shorter than 30 minutes are stretched to the floor so they stay legible,
// and events starting before the grid origin are clamped to the top edge
// instead of producing a negative offset. An event is never dropped by the
// layout pass, however far outside the band it falls.
const (
	GridStartHour     = 6
	GridEndHour       = 23
	PixelsPerHour     = 80
	MinVisibleMinutes = 30
)

// EventLayout is the vertical box assigned to an event on the day column.
type EventLayout struct {
	Top    float64
	Height float64
}

// Layout maps an event's wall-clock [start, end) onto the grid. Only the
// time-of-day components participate; the caller has already bucketed the
// event into its day column. Total over well-formed events (start <= end).
func Layout(ev Event) EventLayout {
	startMinutes := ev.Start.Hour()*60 + ev.Start.Minute()
	endMinutes := ev.End.Hour()*60 + ev.End.Minute()

	duration := endMinutes - startMinutes
	if duration < MinVisibleMinutes {
		duration = MinVisibleMinutes
	}

	const pixelsPerMinute = float64(PixelsPerHour) / 60.0

	top := float64(startMinutes-GridStartHour*60) * pixelsPerMinute
	if top < 0 {
		top = 0
	}

	return EventLayout{
		Top:    top,
		Height: float64(duration) * pixelsPerMinute,
	}
}
