// Package token models the lifecycle of the access grant obtained from the
// external calendar provider. The session starts uninitialized, becomes
// ready once both provider client libraries have finished loading, and only
// an explicit user action moves it through consent to authorized.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/lucasromanh/lucha-fit/internal/logging"
	"github.com/lucasromanh/lucha-fit/internal/notify"
	"github.com/lucasromanh/lucha-fit/internal/signals"
)

// State is the authorization session state.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateReady           State = "ready"
	StateAwaitingConsent State = "awaiting_consent"
	StateAuthorized      State = "authorized"
	StateError           State = "error"
)

// ErrorExpiry is how long a consent failure stays on the session before it
// clears itself, absent an explicit dismissal.
const ErrorExpiry = 4 * time.Second

var (
	// ErrNotReady is returned when Authorize is invoked before both provider
	// client libraries have loaded, or after an initialization failure.
	ErrNotReady = errors.New("authorization session is not ready")
	// ErrConsentInProgress is returned when a grant request is already in flight.
	ErrConsentInProgress = errors.New("a consent request is already in progress")
)

// ConsentFlow is the identity-client capability handle. RequestConsent
// performs the provider's grant handshake and blocks until the user responds,
// the provider fails, or ctx is done. When prior is non-nil the flow must
// obtain the grant silently (token refresh, no consent prompt); a nil prior
// runs the full interactive dialog.
type ConsentFlow interface {
	RequestConsent(ctx context.Context, prior *oauth2.Token) (*oauth2.Token, error)
}

// SessionManager holds the authorization session and enforces its
// transitions. All methods are safe for concurrent use; the session token is
// the one piece of shared mutable state read by every fetch.
type SessionManager struct {
	mu sync.Mutex

	state   State
	token   *oauth2.Token
	lastErr error

	// Readiness is an explicit join of the two independent client-library
	// initializations. The callbacks can land in either order.
	dataClientReady     bool
	identityClientReady bool
	initFailed          bool

	// errGeneration invalidates a pending auto-clear timer once a newer
	// error, or an explicit dismissal, supersedes the one it was armed for.
	errGeneration uint64

	consent     ConsentFlow
	notifier    *notify.Notifier
	errorExpiry time.Duration
	logger      zerolog.Logger
}

// NewSessionManager creates a session in the uninitialized state.
func NewSessionManager(consent ConsentFlow, notifier *notify.Notifier) *SessionManager {
	return &SessionManager{
		state:       StateUninitialized,
		consent:     consent,
		notifier:    notifier,
		errorExpiry: ErrorExpiry,
		logger:      logging.GetLogger("token"),
	}
}

// SetErrorExpiry overrides the consent-failure auto-clear delay.
func (sm *SessionManager) SetErrorExpiry(d time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if d > 0 {
		sm.errorExpiry = d
	}
}

// MarkDataClientReady records the outcome of the data-client library load.
func (sm *SessionManager) MarkDataClientReady(ctx context.Context, err error) {
	sm.markClientReady(ctx, err, &sm.dataClientReady, "data")
}

// MarkIdentityClientReady records the outcome of the identity-client library load.
func (sm *SessionManager) MarkIdentityClientReady(ctx context.Context, err error) {
	sm.markClientReady(ctx, err, &sm.identityClientReady, "identity")
}

func (sm *SessionManager) markClientReady(ctx context.Context, err error, flag *bool, name string) {
	sm.mu.Lock()

	if err != nil {
		sm.initFailed = true
		sm.lastErr = fmt.Errorf("%s client initialization failed: %w", name, err)
		sm.logger.Error().Err(err).Str("client", name).Msg("Provider client library failed to load")
		sm.mu.Unlock()
		if sm.notifier != nil {
			sm.notifier.Publish("No se pudo inicializar la integración con Google Calendar", err)
		}
		return
	}

	*flag = true
	sm.logger.Debug().Str("client", name).Msg("Provider client library loaded")

	// Both loads must land, in any order, before the session is ready.
	becameReady := sm.dataClientReady && sm.identityClientReady &&
		!sm.initFailed && sm.state == StateUninitialized
	if becameReady {
		sm.state = StateReady
		sm.logger.Info().Msg("Authorization session ready")
	}
	sm.mu.Unlock()

	if becameReady {
		signals.EmitSessionStateChanged(ctx, string(StateReady), false)
	}
}

// Authorize runs the grant handshake. From ready it opens the interactive
// consent dialog; from authorized it requests a silent re-grant using the
// held token. On success the session stores the new token and emits the
// authorized transition, which triggers a fetch of the displayed week.
func (sm *SessionManager) Authorize(ctx context.Context) error {
	sm.mu.Lock()
	switch sm.state {
	case StateReady, StateAuthorized:
		// allowed
	case StateAwaitingConsent:
		sm.mu.Unlock()
		return ErrConsentInProgress
	default:
		sm.mu.Unlock()
		return ErrNotReady
	}

	// Silent re-grant only from authorized; every other entry state runs
	// the interactive dialog.
	var prior *oauth2.Token
	if sm.state == StateAuthorized {
		prior = sm.token
	}
	sm.state = StateAwaitingConsent
	consent := sm.consent
	sm.mu.Unlock()

	sm.logger.Info().Bool("interactive", prior == nil).Msg("Requesting provider consent")
	signals.EmitSessionStateChanged(ctx, string(StateAwaitingConsent), prior != nil)

	granted, err := consent.RequestConsent(ctx, prior)
	if err != nil {
		sm.enterError(ctx, fmt.Errorf("consent request failed: %w", err))
		return fmt.Errorf("consent request failed: %w", err)
	}

	sm.mu.Lock()
	sm.token = granted
	sm.lastErr = nil
	sm.state = StateAuthorized
	sm.mu.Unlock()

	sm.logger.Info().Msg("Authorization granted")
	signals.EmitSessionStateChanged(ctx, string(StateAuthorized), true)
	return nil
}

// Restore seeds the session with a previously persisted token so a restart
// skips the consent round trip. Only valid once the session is ready.
func (sm *SessionManager) Restore(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("cannot restore a nil token")
	}
	sm.mu.Lock()
	if sm.state != StateReady {
		sm.mu.Unlock()
		return ErrNotReady
	}
	sm.token = tok
	sm.state = StateAuthorized
	sm.mu.Unlock()

	sm.logger.Info().Msg("Authorization restored from persisted token")
	signals.EmitSessionStateChanged(ctx, string(StateAuthorized), true)
	return nil
}

// enterError moves the session to the error state and arms the auto-clear
// timer. Any held token is dropped: a token only exists while authorized,
// and the next grant after a failure is a full interactive one.
func (sm *SessionManager) enterError(ctx context.Context, err error) {
	sm.mu.Lock()
	sm.state = StateError
	sm.token = nil
	sm.lastErr = err
	sm.errGeneration++
	gen := sm.errGeneration
	expiry := sm.errorExpiry
	sm.mu.Unlock()

	sm.logger.Warn().Err(err).Msg("Authorization session entered error state")
	signals.EmitSessionStateChanged(ctx, string(StateError), false)
	if sm.notifier != nil {
		sm.notifier.Publish("No se pudo autorizar el acceso a Google Calendar", err)
	}

	time.AfterFunc(expiry, func() {
		sm.clearError(context.Background(), gen)
	})
}

func (sm *SessionManager) clearError(ctx context.Context, gen uint64) {
	sm.mu.Lock()
	if sm.errGeneration != gen || sm.state != StateError {
		sm.mu.Unlock()
		return
	}
	sm.lastErr = nil
	next := StateUninitialized
	if sm.dataClientReady && sm.identityClientReady && !sm.initFailed {
		next = StateReady
	}
	sm.state = next
	sm.mu.Unlock()

	sm.logger.Debug().Str("state", string(next)).Msg("Authorization error cleared")
	signals.EmitSessionStateChanged(ctx, string(next), false)
}

// DismissError clears a visible consent failure immediately.
func (sm *SessionManager) DismissError(ctx context.Context) {
	sm.mu.Lock()
	gen := sm.errGeneration
	sm.mu.Unlock()
	sm.clearError(ctx, gen)
}

// Invalidate handles an authorization-class fetch failure (expired or
// revoked token). The token is dropped and the session reverts to ready,
// unauthenticated: the user must explicitly re-consent before further
// fetches succeed. Re-consent is never auto-prompted.
func (sm *SessionManager) Invalidate(ctx context.Context) {
	sm.mu.Lock()
	if sm.state != StateAuthorized {
		sm.mu.Unlock()
		return
	}
	sm.token = nil
	sm.state = StateReady
	sm.mu.Unlock()

	sm.logger.Warn().Msg("Provider reported an expired or revoked grant, re-authorization required")
	signals.EmitSessionStateChanged(ctx, string(StateReady), false)
	if sm.notifier != nil {
		sm.notifier.Publish("La sesión de Google Calendar expiró, volvé a conectarla", nil)
	}
}

// State returns the current session state.
func (sm *SessionManager) State() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// Token returns the held access token, or nil. Callers must read it at the
// moment of each fetch rather than caching it, since a 401 from an earlier
// fetch can invalidate it asynchronously.
func (sm *SessionManager) Token() *oauth2.Token {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.token == nil {
		return nil
	}
	copied := *sm.token
	return &copied
}

// LastError returns the error recorded by the most recent failure, if the
// session is currently in the error state or failed to initialize.
func (sm *SessionManager) LastError() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.lastErr
}

// IsAuthorized reports whether a fetch may proceed right now.
func (sm *SessionManager) IsAuthorized() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state == StateAuthorized && sm.token != nil
}
