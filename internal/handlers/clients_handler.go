package handlers

import (
	"net/http"

	"github.com/lucasromanh/lucha-fit/internal/clients"
)

// ClientsHandler serves the read-only client directory used to label
// locally authored appointments.
type ClientsHandler struct {
	*BaseHandler
	Directory *clients.Directory
}

// NewClientsHandler creates a new clients handler
func NewClientsHandler(base *BaseHandler, directory *clients.Directory) *ClientsHandler {
	return &ClientsHandler{BaseHandler: base, Directory: directory}
}

// RegisterRoutes registers the client directory routes
func (h *ClientsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/clients", h.handleList)
}

// ClientView is one directory entry.
type ClientView struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

func (h *ClientsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	records := h.Directory.All()
	views := make([]ClientView, 0, len(records))
	for _, rec := range records {
		views = append(views, ClientView{ID: rec.ID, FullName: rec.FullName})
	}
	h.writeJSON(w, http.StatusOK, views)
}
