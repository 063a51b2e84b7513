package calendar

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/lucasromanh/lucha-fit/internal/notify"
	"github.com/lucasromanh/lucha-fit/internal/schedule"
	"github.com/lucasromanh/lucha-fit/internal/token"
)

// fakeLister fabricates provider responses. When blocked is set, ListEvents
// parks until release is closed, which lets tests interleave a week
// navigation with an in-flight fetch.
type fakeLister struct {
	mu    sync.Mutex
	items []*gcal.Event
	err   error

	calls     int
	lastStart time.Time
	lastEnd   time.Time

	blocked chan struct{}
	started chan struct{}
}

func (f *fakeLister) ListEvents(ctx context.Context, start, end time.Time) ([]*gcal.Event, error) {
	f.mu.Lock()
	f.calls++
	f.lastStart = start
	f.lastEnd = end
	items, err := f.items, f.err
	blocked, started := f.blocked, f.started
	f.mu.Unlock()

	if started != nil {
		close(started)
		f.mu.Lock()
		f.started = nil
		f.mu.Unlock()
	}
	if blocked != nil {
		select {
		case <-blocked:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return items, err
}

func (f *fakeLister) set(items []*gcal.Event, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
	f.err = err
	f.blocked = nil
}

type grantingFlow struct{}

func (grantingFlow) RequestConsent(context.Context, *oauth2.Token) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "ya29.test", Expiry: time.Now().Add(time.Hour)}, nil
}

func authorizedSession(t *testing.T) *token.SessionManager {
	t.Helper()
	ctx := context.Background()
	sm := token.NewSessionManager(grantingFlow{}, nil)
	sm.MarkDataClientReady(ctx, nil)
	sm.MarkIdentityClientReady(ctx, nil)
	require.NoError(t, sm.Authorize(ctx))
	return sm
}

func timedItem(id, title, start, end string) *gcal.Event {
	return &gcal.Event{
		Id:      id,
		Summary: title,
		Start:   &gcal.EventDateTime{DateTime: start},
		End:     &gcal.EventDateTime{DateTime: end},
	}
}

func refDate(t *testing.T) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", "2025-06-11")
	require.NoError(t, err)
	return d
}

func newService(t *testing.T, lister EventsLister, session *token.SessionManager) *Service {
	t.Helper()
	return New(lister, session, notify.New(time.Minute), refDate(t))
}

func TestReconcileRequiresAuthorizedSession(t *testing.T) {
	sm := token.NewSessionManager(grantingFlow{}, nil)
	svc := newService(t, &fakeLister{}, sm)

	err := svc.Reconcile(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestReconcileMergesExternalWithLocal(t *testing.T) {
	lister := &fakeLister{items: []*gcal.Event{
		timedItem("g1", "Turno gimnasio", "2025-06-09T09:00:00Z", "2025-06-09T10:00:00Z"),
		timedItem("g2", "", "2025-06-10T15:00:00Z", "2025-06-10T15:30:00Z"),
	}}
	svc := newService(t, lister, authorizedSession(t))
	svc.SetLocalEvents([]schedule.Event{
		{ID: "a1", Title: "Consulta Ana", Origin: schedule.OriginLocal},
	})

	require.NoError(t, svc.Reconcile(context.Background()))

	events := svc.Events()
	require.Len(t, events, 3)
	byID := map[string]schedule.Event{}
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	assert.Equal(t, schedule.OriginLocal, byID["a1"].Origin)
	assert.Equal(t, schedule.OriginExternal, byID["g1"].Origin)
	assert.Equal(t, schedule.UntitledPlaceholder, byID["g2"].Title,
		"untitled provider events get the placeholder")

	// The fetch window is the inclusive-start/exclusive-end week range.
	assert.Equal(t, svc.Window().Start, lister.lastStart)
	assert.Equal(t, svc.Window().End(), lister.lastEnd)
}

func TestReconcileTwiceDoesNotDuplicate(t *testing.T) {
	lister := &fakeLister{items: []*gcal.Event{
		timedItem("g1", "Turno", "2025-06-09T09:00:00Z", "2025-06-09T10:00:00Z"),
	}}
	svc := newService(t, lister, authorizedSession(t))
	svc.SetLocalEvents([]schedule.Event{{ID: "a1", Origin: schedule.OriginLocal}})

	require.NoError(t, svc.Reconcile(context.Background()))
	require.NoError(t, svc.Reconcile(context.Background()))

	events := svc.Events()
	require.Len(t, events, 2)
	seen := map[string]int{}
	for _, ev := range events {
		seen[ev.ID]++
	}
	assert.Equal(t, map[string]int{"a1": 1, "g1": 1}, seen)
}

func TestFetchFailurePreservesEventSet(t *testing.T) {
	lister := &fakeLister{items: []*gcal.Event{
		timedItem("g1", "Turno", "2025-06-09T09:00:00Z", "2025-06-09T10:00:00Z"),
	}}
	session := authorizedSession(t)
	svc := newService(t, lister, session)
	svc.SetLocalEvents([]schedule.Event{{ID: "a1", Origin: schedule.OriginLocal}})
	require.NoError(t, svc.Reconcile(context.Background()))
	before := svc.Events()

	lister.set(nil, errors.New("network unreachable"))
	err := svc.Reconcile(context.Background())

	require.Error(t, err)
	assert.Equal(t, before, svc.Events(),
		"a transient failure must not clear previously fetched external events")
	assert.True(t, session.IsAuthorized(), "non-auth failures keep the session authorized")
}

func TestUnauthorizedResponseForcesDeauthorization(t *testing.T) {
	lister := &fakeLister{err: &googleapi.Error{Code: http.StatusUnauthorized, Message: "Invalid Credentials"}}
	session := authorizedSession(t)
	svc := newService(t, lister, session)
	svc.SetLocalEvents([]schedule.Event{{ID: "a1", Origin: schedule.OriginLocal}})

	err := svc.Reconcile(context.Background())
	require.Error(t, err)

	assert.False(t, session.IsAuthorized())
	assert.Equal(t, token.StateReady, session.State(), "session reverts to requiring re-grant")
	require.Len(t, svc.Events(), 1, "existing events stay put on auth failure")

	// Further reconciliation before re-authorization is rejected.
	err = svc.Reconcile(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestForbiddenInvalidGrantForcesDeauthorization(t *testing.T) {
	lister := &fakeLister{err: &googleapi.Error{
		Code:   http.StatusForbidden,
		Errors: []googleapi.ErrorItem{{Reason: "authError", Message: "Invalid Credentials"}},
	}}
	session := authorizedSession(t)
	svc := newService(t, lister, session)

	require.Error(t, svc.Reconcile(context.Background()))
	assert.False(t, session.IsAuthorized(), "a 403 invalid-grant revokes the session")
}

func TestForbiddenRateLimitIsTransient(t *testing.T) {
	lister := &fakeLister{err: &googleapi.Error{
		Code:   http.StatusForbidden,
		Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded", Message: "Rate Limit Exceeded"}},
	}}
	session := authorizedSession(t)
	svc := newService(t, lister, session)

	require.Error(t, svc.Reconcile(context.Background()))
	assert.True(t, session.IsAuthorized(), "quota 403s must not revoke the session")
}

func TestStaleResponseForSupersededWeekIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	lister := &fakeLister{
		items: []*gcal.Event{
			timedItem("g-old", "Semana vieja", "2025-06-09T09:00:00Z", "2025-06-09T10:00:00Z"),
		},
		blocked: release,
		started: started,
	}
	svc := newService(t, lister, authorizedSession(t))

	// Kick off a fetch for the current week and park it in flight.
	done := make(chan error, 1)
	go func() { done <- svc.Reconcile(context.Background()) }()
	<-started

	// Navigate to the next week while the old fetch is still pending. The
	// navigation-triggered fetch returns fresh events immediately.
	lister.set([]*gcal.Event{
		timedItem("g-new", "Semana nueva", "2025-06-16T09:00:00Z", "2025-06-16T10:00:00Z"),
	}, nil)
	nextWeek := refDate(t).AddDate(0, 0, 7)
	svc.SelectWeek(context.Background(), nextWeek)

	events := svc.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "g-new", events[0].ID)

	// Release the stale fetch; its late-arriving result must be discarded.
	close(release)
	require.NoError(t, <-done)

	events = svc.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "g-new", events[0].ID,
		"a response for an earlier-requested, superseded window must not overwrite the newer one")
}

func TestSelectWeekSameWeekIsNoOp(t *testing.T) {
	lister := &fakeLister{}
	svc := newService(t, lister, authorizedSession(t))

	w1 := svc.SelectWeek(context.Background(), refDate(t))
	calls := lister.calls

	// Another day of the same Sunday-to-Saturday span changes nothing.
	w2 := svc.SelectWeek(context.Background(), refDate(t).AddDate(0, 0, 2))

	assert.True(t, w1.Equal(w2))
	assert.Equal(t, calls, lister.calls, "no refetch for the same window")
}

func TestSelectWeekWithoutAuthorizationStillNavigates(t *testing.T) {
	lister := &fakeLister{}
	sm := token.NewSessionManager(grantingFlow{}, nil)
	svc := newService(t, lister, sm)

	w := svc.SelectWeek(context.Background(), refDate(t).AddDate(0, 0, 14))

	assert.Equal(t, 0, lister.calls)
	assert.True(t, svc.Window().Equal(w))
}
