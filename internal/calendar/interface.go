package calendar

import (
	"context"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/lucasromanh/lucha-fit/internal/schedule"
)

// EventsLister is the data-client capability handle injected into the
// service. The production implementation wraps the Google Calendar API;
// tests substitute a double that fabricates responses.
type EventsLister interface {
	// ListEvents returns the provider events overlapping [start, end),
	// expanded to single occurrences and ordered by start time.
	ListEvents(ctx context.Context, start, end time.Time) ([]*gcal.Event, error)
}

// CalendarService defines the operations the weekly view depends on
type CalendarService interface {
	// SelectWeek moves the displayed window to the week containing ref
	SelectWeek(ctx context.Context, ref time.Time) schedule.WeekWindow

	// Window returns the currently displayed week
	Window() schedule.WeekWindow

	// Events returns a snapshot of the merged event set
	Events() []schedule.Event

	// SetLocalEvents replaces the locally authored subset of the event set
	SetLocalEvents(locals []schedule.Event)

	// Reconcile fetches external events for the displayed week and merges them
	Reconcile(ctx context.Context) error
}

// Ensure Service implements CalendarService
var _ CalendarService = (*Service)(nil)
