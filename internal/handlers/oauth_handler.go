package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/lucasromanh/lucha-fit/internal/token"
)

// OAuthHandler drives the interactive half of the consent flow: /auth sends
// the user to the provider's consent page, /oauth/callback completes the
// pending grant with the authorization code (or the denial).
type OAuthHandler struct {
	*BaseHandler
	Flow    *token.GoogleConsentFlow
	Session *token.SessionManager
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(base *BaseHandler, flow *token.GoogleConsentFlow, session *token.SessionManager) *OAuthHandler {
	return &OAuthHandler{
		BaseHandler: base,
		Flow:        flow,
		Session:     session,
	}
}

// RegisterRoutes registers the OAuth routes
func (h *OAuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/auth", h.handleAuth)
	mux.HandleFunc("/oauth/callback", h.handleCallback)
}

// handleAuth initiates the grant. With a token already held the re-grant is
// silent and completes inline; otherwise the session is parked awaiting
// consent and the user is redirected to the provider dialog.
func (h *OAuthHandler) handleAuth(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleAuth").Logger()

	if h.Session.IsAuthorized() {
		if err := h.Session.Authorize(r.Context()); err != nil {
			handlerLogger.Warn().Err(err).Msg("Silent re-grant failed")
			http.Redirect(w, r, "/?error="+ErrCodeAuthDenied, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/?success="+SuccessCodeConnected, http.StatusSeeOther)
		return
	}

	// The interactive grant blocks until the callback lands, so it runs off
	// the request goroutine while the user is bounced to the consent page.
	go func() {
		if err := h.Session.Authorize(context.Background()); err != nil {
			if errors.Is(err, token.ErrConsentInProgress) || errors.Is(err, token.ErrNotReady) {
				handlerLogger.Warn().Err(err).Msg("Authorize not started")
				return
			}
			handlerLogger.Warn().Err(err).Msg("Consent flow ended in failure")
		}
	}()

	http.Redirect(w, r, h.Flow.AuthCodeURL("state"), http.StatusTemporaryRedirect)
}

// handleCallback processes the OAuth callback
func (h *OAuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCallback").Logger()

	if denial := r.URL.Query().Get("error"); denial != "" {
		handlerLogger.Warn().Str("reason", denial).Msg("Consent denied by user or provider")
		h.Flow.Deny(denial)
		http.Redirect(w, r, "/?error="+ErrCodeAuthDenied, http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Missing authorization code")
		return
	}

	if err := h.Flow.Resolve(r.Context(), code); err != nil {
		handlerLogger.Error().Err(err).Msg("Token exchange failed")
		http.Redirect(w, r, "/?error="+ErrCodeAuthDenied, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/?success="+SuccessCodeConnected, http.StatusSeeOther)
}
