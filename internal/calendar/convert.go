package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/lucasromanh/lucha-fit/internal/schedule"
)

// convertItems maps provider items onto external-origin events. Items that
// cannot be converted are skipped and reported through the returned joined
// error; the good ones always make it through.
func convertItems(items []*gcal.Event) ([]schedule.Event, error) {
	events := make([]schedule.Event, 0, len(items))
	var errs *multierror.Error
	for _, item := range items {
		ev, err := convertItem(item)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		events = append(events, ev)
	}
	return events, errs.ErrorOrNil()
}

func convertItem(item *gcal.Event) (schedule.Event, error) {
	if item == nil {
		return schedule.Event{}, fmt.Errorf("nil provider event")
	}
	if item.Start == nil || item.End == nil {
		return schedule.Event{}, fmt.Errorf("provider event %s has no start or end", item.Id)
	}

	title := strings.TrimSpace(item.Summary)
	if title == "" {
		title = schedule.UntitledPlaceholder
	}

	var start, end time.Time
	switch {
	case item.Start.Date != "":
		firstDay, err := time.ParseInLocation("2006-01-02", item.Start.Date, time.Local)
		if err != nil {
			return schedule.Event{}, fmt.Errorf("provider event %s has invalid start date %q: %w", item.Id, item.Start.Date, err)
		}
		lastDay := firstDay
		if item.End.Date != "" {
			lastDay, err = time.ParseInLocation("2006-01-02", item.End.Date, time.Local)
			if err != nil {
				return schedule.Event{}, fmt.Errorf("provider event %s has invalid end date %q: %w", item.Id, item.End.Date, err)
			}
			// The provider marks the exclusive next day as the end of an
			// all-day event; pull it back so normalization lands on the
			// actual last day.
			if lastDay.After(firstDay) {
				lastDay = lastDay.AddDate(0, 0, -1)
			}
		}
		start, end = schedule.NormalizeAllDay(firstDay, lastDay)
	default:
		var err error
		start, err = time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return schedule.Event{}, fmt.Errorf("provider event %s has invalid start time %q: %w", item.Id, item.Start.DateTime, err)
		}
		end, err = time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return schedule.Event{}, fmt.Errorf("provider event %s has invalid end time %q: %w", item.Id, item.End.DateTime, err)
		}
	}

	if end.Before(start) {
		return schedule.Event{}, fmt.Errorf("provider event %s ends before it starts", item.Id)
	}

	return schedule.Event{
		ID:          item.Id,
		Title:       title,
		Start:       start,
		End:         end,
		Description: item.Description,
		Origin:      schedule.OriginExternal,
	}, nil
}
