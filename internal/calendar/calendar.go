// Package calendar owns the fetch-and-reconcile half of the weekly view:
// it retrieves externally synced events for the displayed week and merges
// them into the event set without ever disturbing locally authored
// appointments.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/lucasromanh/lucha-fit/internal/logging"
	"github.com/lucasromanh/lucha-fit/internal/notify"
	"github.com/lucasromanh/lucha-fit/internal/schedule"
	"github.com/lucasromanh/lucha-fit/internal/signals"
	"github.com/lucasromanh/lucha-fit/internal/token"
)

// ErrNotAuthorized is returned when a reconciliation is attempted without an
// authorized session.
var ErrNotAuthorized = errors.New("calendar sync requires an authorized session")

// Service holds the merged event set for the currently displayed week and
// runs reconciliation passes against the external provider.
type Service struct {
	lister   EventsLister
	session  *token.SessionManager
	notifier *notify.Notifier
	logger   zerolog.Logger

	mu     sync.Mutex
	window schedule.WeekWindow
	events []schedule.Event

	// generation tags each fetch with the window it was issued for. A week
	// navigation bumps it, so a late-arriving response for a superseded
	// window is discarded instead of overwriting the newer external subset.
	generation atomic.Int64
}

// New creates the service with the week containing ref as its initial window.
func New(lister EventsLister, session *token.SessionManager, notifier *notify.Notifier, ref time.Time) *Service {
	return &Service{
		lister:   lister,
		session:  session,
		notifier: notifier,
		window:   schedule.NewWeekWindow(ref),
		logger:   logging.GetLogger("calendar"),
	}
}

// RegisterTriggers wires the automatic reconciliation that runs once,
// immediately after a successful authorization, against the displayed week.
func (s *Service) RegisterTriggers() {
	signals.OnSessionStateChanged(func(ctx context.Context, data signals.SessionStateData) {
		if data.State != string(token.StateAuthorized) {
			return
		}
		if err := s.Reconcile(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Post-authorization sync failed")
		}
	}, "calendar-post-auth")
}

// Window returns the currently displayed week.
func (s *Service) Window() schedule.WeekWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// Events returns a snapshot of the merged event set.
func (s *Service) Events() []schedule.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]schedule.Event, len(s.events))
	copy(snapshot, s.events)
	return snapshot
}

// SetLocalEvents replaces the locally authored subset, keeping whatever
// external events the last reconciliation produced.
func (s *Service) SetLocalEvents(locals []schedule.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]schedule.Event, 0, len(s.events)+len(locals))
	for _, ev := range locals {
		if ev.IsLocal() {
			kept = append(kept, ev)
		}
	}
	for _, ev := range s.events {
		if !ev.IsLocal() {
			kept = append(kept, ev)
		}
	}
	s.events = kept
}

// SelectWeek moves the displayed window to the week containing ref. While
// the session is authorized, navigating re-runs reconciliation for the new
// window; navigation itself always succeeds even with the integration down.
func (s *Service) SelectWeek(ctx context.Context, ref time.Time) schedule.WeekWindow {
	window := schedule.NewWeekWindow(ref)

	s.mu.Lock()
	changed := !window.Equal(s.window)
	if changed {
		s.window = window
		s.generation.Inc()
	}
	s.mu.Unlock()

	if !changed {
		return window
	}

	s.logger.Debug().Time("week_start", window.Start).Msg("Week selected")
	signals.EmitWeekSelected(ctx, window.Start)

	if s.session.IsAuthorized() {
		if err := s.Reconcile(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Sync after week navigation failed")
		}
	}
	return window
}

// Reconcile fetches the external events overlapping the displayed week and
// applies the merge policy. On any failure the existing event set is left
// untouched; a 401-class response additionally forces de-authorization.
func (s *Service) Reconcile(ctx context.Context) error {
	if !s.session.IsAuthorized() {
		return ErrNotAuthorized
	}

	s.mu.Lock()
	window := s.window
	gen := s.generation.Load()
	s.mu.Unlock()

	s.logger.Debug().
		Time("time_min", window.Start).
		Time("time_max", window.End()).
		Msg("Fetching provider events for week")

	items, err := s.lister.ListEvents(ctx, window.Start, window.End())
	if err != nil {
		if isAuthError(err) {
			s.logger.Warn().Err(err).Msg("Provider rejected the access token")
			s.session.Invalidate(ctx)
			return fmt.Errorf("provider authorization expired: %w", err)
		}
		s.logger.Error().Err(err).Msg("Failed to list provider events")
		if s.notifier != nil {
			s.notifier.Publish("No se pudo sincronizar con Google Calendar", err)
		}
		return fmt.Errorf("failed to list provider events: %w", err)
	}

	external, convErr := convertItems(items)
	if convErr != nil {
		// Malformed items are skipped, never fatal for the pass.
		s.logger.Warn().Err(convErr).Msg("Skipped malformed provider events")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() != gen {
		s.logger.Debug().
			Time("week_start", window.Start).
			Msg("Discarding stale fetch result for superseded week")
		return nil
	}

	s.events = schedule.Merge(s.events, external)
	s.logger.Info().
		Time("week_start", window.Start).
		Int("external_count", len(external)).
		Msg("Reconciliation completed")
	signals.EmitEventsReconciled(ctx, window.Start, len(external))
	return nil
}

// isAuthError reports whether the provider signaled an expired or revoked
// grant rather than a transient failure. A 403 only counts when it carries
// an invalid-grant shape; quota and rate-limit 403s stay transient.
func isAuthError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return true
		case http.StatusForbidden:
			for _, item := range gerr.Errors {
				if item.Reason == "authError" {
					return true
				}
			}
			return strings.Contains(gerr.Message, "invalid_grant")
		}
		return false
	}
	var rerr *oauth2.RetrieveError
	return errors.As(err, &rerr)
}
