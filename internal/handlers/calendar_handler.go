package handlers

import (
	"net/http"
	"time"

	"github.com/lucasromanh/lucha-fit/internal/calendar"
	"github.com/lucasromanh/lucha-fit/internal/notify"
	"github.com/lucasromanh/lucha-fit/internal/schedule"
	"github.com/lucasromanh/lucha-fit/internal/token"
)

// CalendarHandler serves the weekly view projection: the week days, the
// merged event set with layout boxes, and the session state. All visual
// output stays in the frontend; this is plain data.
type CalendarHandler struct {
	*BaseHandler
	Service  calendar.CalendarService
	Session  *token.SessionManager
	Notifier *notify.Notifier
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(base *BaseHandler, service calendar.CalendarService, session *token.SessionManager, notifier *notify.Notifier) *CalendarHandler {
	return &CalendarHandler{
		BaseHandler: base,
		Service:     service,
		Session:     session,
		Notifier:    notifier,
	}
}

// RegisterRoutes registers the weekly view routes
func (h *CalendarHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/week", h.handleWeek)
	mux.HandleFunc("/api/notification/dismiss", h.handleDismissNotification)
}

// EventView is one event plus its layout box on the day grid.
type EventView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Description string  `json:"description,omitempty"`
	Origin      string  `json:"origin"`
	Top         float64 `json:"top"`
	Height      float64 `json:"height"`
}

// NotificationView is the currently visible, dismissible notification.
type NotificationView struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WeekResponse is the projection the rendering layer consumes.
type WeekResponse struct {
	WeekStart     string            `json:"week_start"`
	Days          []string          `json:"days"`
	Events        []EventView       `json:"events"`
	SessionState  string            `json:"session_state"`
	Authenticated bool              `json:"authenticated"`
	Notification  *NotificationView `json:"notification,omitempty"`
}

// handleWeek selects the week containing the date parameter (today when
// absent) and returns the projection. Selecting a new week re-runs the sync
// when the session is authorized; navigation works regardless.
func (h *CalendarHandler) handleWeek(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleWeek").Logger()

	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	ref := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			handlerLogger.Warn().Err(err).Str("date", raw).Msg("Invalid date parameter")
			h.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid date format. Expected YYYY-MM-DD")
			return
		}
		ref = parsed
	}

	window := h.Service.SelectWeek(r.Context(), ref)
	events := h.Service.Events()

	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		if !window.Overlaps(ev.Start, ev.End) {
			continue
		}
		box := schedule.Layout(ev)
		views = append(views, EventView{
			ID:          ev.ID,
			Title:       ev.Title,
			Start:       ev.Start.Format(time.RFC3339),
			End:         ev.End.Format(time.RFC3339),
			Description: ev.Description,
			Origin:      string(ev.Origin),
			Top:         box.Top,
			Height:      box.Height,
		})
	}

	days := make([]string, 0, len(window.Days))
	for _, d := range window.Days {
		days = append(days, d.Format("2006-01-02"))
	}

	resp := WeekResponse{
		WeekStart:     window.Start.Format("2006-01-02"),
		Days:          days,
		Events:        views,
		SessionState:  string(h.Session.State()),
		Authenticated: h.Session.IsAuthorized(),
	}
	if n := h.Notifier.Current(); n != nil {
		view := &NotificationView{Message: n.Message}
		if n.Err != nil {
			view.Detail = n.Err.Error()
		}
		resp.Notification = view
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleDismissNotification clears the visible notification.
func (h *CalendarHandler) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	h.Notifier.Dismiss()
	h.Session.DismissError(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]bool{"dismissed": true})
}
