package handlers

import (
	"net/http"

	"github.com/lucasromanh/lucha-fit/internal/calendar"
	"github.com/lucasromanh/lucha-fit/internal/token"
)

// SyncHandler exposes the manual re-sync trigger, the user-initiated retry
// path after a transient fetch failure.
type SyncHandler struct {
	*BaseHandler
	Service calendar.CalendarService
	Session *token.SessionManager
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(base *BaseHandler, service calendar.CalendarService, session *token.SessionManager) *SyncHandler {
	return &SyncHandler{
		BaseHandler: base,
		Service:     service,
		Session:     session,
	}
}

// RegisterRoutes registers sync related routes
func (h *SyncHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sync", h.handleSync)
}

// SyncResponse represents the JSON response for sync
type SyncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleSync re-runs reconciliation for the displayed week.
func (h *SyncHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleSync").Logger()

	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, SyncResponse{Success: false, Error: "Method not allowed"})
		return
	}

	if !h.Session.IsAuthorized() {
		handlerLogger.Warn().Str("state", string(h.Session.State())).Msg("Sync requested without authorization")
		h.writeJSON(w, http.StatusUnauthorized, SyncResponse{Success: false, Error: ErrCodeAuthRequired})
		return
	}

	if err := h.Service.Reconcile(r.Context()); err != nil {
		handlerLogger.Error().Err(err).Msg("Manual sync failed")
		h.writeJSON(w, http.StatusInternalServerError, SyncResponse{Success: false, Error: ErrCodeSyncFailed})
		return
	}

	h.writeJSON(w, http.StatusOK, SyncResponse{Success: true, Message: "Week synced successfully"})
}
