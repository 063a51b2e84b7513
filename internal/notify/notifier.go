// Package notify holds the user-visible, dismissible notification surface.
// Every failure in the sync subsystem ends up here instead of propagating:
// the local event set and week navigation stay usable even with the external
// integration fully failed.
package notify

import (
	"sync"
	"time"

	"github.com/lucasromanh/lucha-fit/internal/logging"
	"github.com/rs/zerolog"
)

// DefaultExpiry is how long a notification stays visible before it clears
// itself, matching the dashboard's 4 second toast.
const DefaultExpiry = 4 * time.Second

// Notification is a single user-visible message.
type Notification struct {
	Message string
	Err     error
	At      time.Time
}

// Notifier keeps at most one current notification. Publishing replaces the
// previous one; each notification auto-expires after the configured delay
// unless dismissed explicitly first.
type Notifier struct {
	mu      sync.Mutex
	current *Notification
	// generation invalidates pending expiry timers once a newer
	// notification replaces the one they were armed for.
	generation uint64
	expiry     time.Duration
	logger     zerolog.Logger
}

// New creates a Notifier. A non-positive expiry falls back to DefaultExpiry.
func New(expiry time.Duration) *Notifier {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Notifier{
		expiry: expiry,
		logger: logging.GetLogger("notify"),
	}
}

// Publish surfaces a message, replacing any current notification and arming
// the auto-expiry timer.
func (n *Notifier) Publish(message string, err error) {
	n.mu.Lock()
	n.generation++
	gen := n.generation
	n.current = &Notification{Message: message, Err: err, At: time.Now()}
	n.mu.Unlock()

	n.logger.Warn().Err(err).Str("message", message).Msg("Notification published")

	time.AfterFunc(n.expiry, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.generation == gen && n.current != nil {
			n.current = nil
			n.logger.Debug().Str("message", message).Msg("Notification expired")
		}
	})
}

// Current returns the visible notification, or nil when there is none.
func (n *Notifier) Current() *Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	copied := *n.current
	return &copied
}

// Dismiss clears the visible notification immediately.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.generation++
	n.current = nil
}
