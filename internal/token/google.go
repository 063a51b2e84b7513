package token

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/lucasromanh/lucha-fit/internal/logging"
)

// consentOutcome is the terminal result of one interactive grant attempt.
type consentOutcome struct {
	token *oauth2.Token
	err   error
}

// GoogleConsentFlow is the production ConsentFlow, built on the standard
// OAuth2 authorization-code dance. An interactive grant parks the caller on
// a channel until the browser round trip lands on Resolve or Deny; a silent
// re-grant goes straight through the token source without prompting.
type GoogleConsentFlow struct {
	conf *oauth2.Config

	mu      sync.Mutex
	pending chan consentOutcome
}

// NewGoogleConsentFlow builds the flow from the opaque credentials supplied
// at initialization. An empty scopes slice defaults to read-only events
// access, the only permission the weekly view needs.
func NewGoogleConsentFlow(clientID, clientSecret, redirectURL string, scopes []string) *GoogleConsentFlow {
	if len(scopes) == 0 {
		scopes = []string{gcal.CalendarEventsReadonlyScope}
	}
	return &GoogleConsentFlow{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// Config exposes the underlying OAuth2 configuration for the lister and the
// HTTP handlers.
func (f *GoogleConsentFlow) Config() *oauth2.Config {
	return f.conf
}

// AuthCodeURL returns the provider consent page URL for an interactive grant.
func (f *GoogleConsentFlow) AuthCodeURL(state string) string {
	return f.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// RequestConsent implements ConsentFlow. The interactive branch blocks until
// the user finishes or abandons the provider dialog; cancellation of ctx
// resolves the wait instead of hanging forever.
func (f *GoogleConsentFlow) RequestConsent(ctx context.Context, prior *oauth2.Token) (*oauth2.Token, error) {
	if prior != nil {
		tok, err := f.conf.TokenSource(ctx, prior).Token()
		if err != nil {
			return nil, fmt.Errorf("silent re-grant failed: %w", err)
		}
		return tok, nil
	}

	ch := make(chan consentOutcome, 1)
	f.mu.Lock()
	if f.pending != nil {
		f.mu.Unlock()
		return nil, ErrConsentInProgress
	}
	f.pending = ch
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		if f.pending == ch {
			f.pending = nil
		}
		f.mu.Unlock()
	}()

	select {
	case out := <-ch:
		return out.token, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolve completes the pending interactive grant with the authorization
// code delivered to the redirect endpoint.
func (f *GoogleConsentFlow) Resolve(ctx context.Context, code string) error {
	tok, err := f.conf.Exchange(ctx, code)
	if err != nil {
		f.deliver(consentOutcome{err: fmt.Errorf("code exchange failed: %w", err)})
		return fmt.Errorf("code exchange failed: %w", err)
	}
	f.deliver(consentOutcome{token: tok})
	return nil
}

// Deny completes the pending interactive grant as declined by the user or
// the provider.
func (f *GoogleConsentFlow) Deny(reason string) {
	if reason == "" {
		reason = "access_denied"
	}
	f.deliver(consentOutcome{err: fmt.Errorf("consent denied: %s", reason)})
}

func (f *GoogleConsentFlow) deliver(out consentOutcome) {
	f.mu.Lock()
	ch := f.pending
	f.pending = nil
	f.mu.Unlock()

	if ch == nil {
		logger := logging.GetLogger("token")
		logger.Warn().Msg("Consent outcome arrived with no pending grant request")
		return
	}
	ch <- out
}

var _ ConsentFlow = (*GoogleConsentFlow)(nil)
