package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lucasromanh/lucha-fit/internal/config"
	"github.com/lucasromanh/lucha-fit/internal/logging"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	logger zerolog.Logger
	Config *config.Config
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(cfg *config.Config) *BaseHandler {
	return &BaseHandler{
		logger: logging.GetLogger("handlers"),
		Config: cfg,
	}
}

// writeJSON serializes v with the given status code.
func (h *BaseHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *BaseHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, errorResponse{Error: message, Code: code})
}
