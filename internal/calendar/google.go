package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/lucasromanh/lucha-fit/internal/constants"
	"github.com/lucasromanh/lucha-fit/internal/token"
)

// GoogleLister is the production EventsLister backed by the Google Calendar
// API. The service client is built per call so each fetch uses the token
// held by the session at that moment; an earlier 401 can have dropped it.
type GoogleLister struct {
	calendarID  string
	oauthConfig *oauth2.Config
	session     *token.SessionManager
}

// NewGoogleLister creates a lister for a single calendar. An empty
// calendarID falls back to the account's primary calendar.
func NewGoogleLister(oauthConfig *oauth2.Config, session *token.SessionManager, calendarID string) *GoogleLister {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleLister{
		calendarID:  calendarID,
		oauthConfig: oauthConfig,
		session:     session,
	}
}

// ListEvents issues the single list query for the window: recurring events
// pre-expanded to single occurrences, ordered by start time, capped at
// MaxEventsPerWindow. Excess events past the cap are simply not shown.
func (l *GoogleLister) ListEvents(ctx context.Context, start, end time.Time) ([]*gcal.Event, error) {
	tok := l.session.Token()
	if tok == nil {
		return nil, fmt.Errorf("no access token held")
	}

	client := l.oauthConfig.Client(ctx, tok)
	srv, err := gcal.NewService(ctx,
		option.WithHTTPClient(client),
		option.WithUserAgent(constants.LuchaFitIdentifier))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	events, err := srv.Events.List(l.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(constants.MaxEventsPerWindow).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events for window: %w", err)
	}

	return events.Items, nil
}
