package signals

import (
	"context"
	"time"

	"github.com/maniartech/signals"
)

// SessionStateData carries an authorization session transition. State is the
// string form of the session state so listeners don't need the token package.
type SessionStateData struct {
	State         string
	Authenticated bool
}

// WeekSelectedData is emitted when the displayed week changes.
type WeekSelectedData struct {
	WeekStart time.Time
}

// EventsReconciledData is emitted after a successful reconciliation pass.
type EventsReconciledData struct {
	WeekStart     time.Time
	ExternalCount int
}

// Signal definitions using generics
var SessionStateChanged = signals.New[SessionStateData]()
var WeekSelected = signals.New[WeekSelectedData]()
var EventsReconciled = signals.New[EventsReconciledData]()

// EmitSessionStateChanged emits a signal when the authorization session transitions
func EmitSessionStateChanged(ctx context.Context, state string, authenticated bool) {
	SessionStateChanged.Emit(ctx, SessionStateData{
		State:         state,
		Authenticated: authenticated,
	})
}

// EmitWeekSelected emits a signal when the user navigates to another week
func EmitWeekSelected(ctx context.Context, weekStart time.Time) {
	WeekSelected.Emit(ctx, WeekSelectedData{
		WeekStart: weekStart,
	})
}

// EmitEventsReconciled emits a signal once a fetch has been merged into the event set
func EmitEventsReconciled(ctx context.Context, weekStart time.Time, externalCount int) {
	EventsReconciled.Emit(ctx, EventsReconciledData{
		WeekStart:     weekStart,
		ExternalCount: externalCount,
	})
}

// OnSessionStateChanged registers a handler for session transitions
func OnSessionStateChanged(handler func(ctx context.Context, data SessionStateData), key ...string) {
	if len(key) > 0 {
		SessionStateChanged.AddListener(handler, key[0])
	} else {
		SessionStateChanged.AddListener(handler)
	}
}

// OnWeekSelected registers a handler for week navigation events
func OnWeekSelected(handler func(ctx context.Context, data WeekSelectedData), key ...string) {
	if len(key) > 0 {
		WeekSelected.AddListener(handler, key[0])
	} else {
		WeekSelected.AddListener(handler)
	}
}

// OnEventsReconciled registers a handler for reconciliation results
func OnEventsReconciled(handler func(ctx context.Context, data EventsReconciledData), key ...string) {
	if len(key) > 0 {
		EventsReconciled.AddListener(handler, key[0])
	} else {
		EventsReconciled.AddListener(handler)
	}
}
