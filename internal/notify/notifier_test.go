package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndDismiss(t *testing.T) {
	n := New(time.Minute)

	n.Publish("No se pudo sincronizar el calendario", errors.New("boom"))

	current := n.Current()
	require.NotNil(t, current)
	assert.Equal(t, "No se pudo sincronizar el calendario", current.Message)
	assert.EqualError(t, current.Err, "boom")

	n.Dismiss()
	assert.Nil(t, n.Current())
}

func TestPublishReplacesPrevious(t *testing.T) {
	n := New(time.Minute)

	n.Publish("first", nil)
	n.Publish("second", nil)

	current := n.Current()
	require.NotNil(t, current)
	assert.Equal(t, "second", current.Message)
}

func TestAutoExpiry(t *testing.T) {
	n := New(20 * time.Millisecond)

	n.Publish("transient", nil)
	require.NotNil(t, n.Current())

	assert.Eventually(t, func() bool {
		return n.Current() == nil
	}, time.Second, 5*time.Millisecond, "notification should auto-expire")
}

func TestExpiryOfReplacedNotificationDoesNotClearNewerOne(t *testing.T) {
	n := New(30 * time.Millisecond)

	n.Publish("old", nil)
	time.Sleep(10 * time.Millisecond)
	n.Publish("new", nil)

	// The old notification's timer fires around 30ms; the new one must survive it.
	time.Sleep(25 * time.Millisecond)
	current := n.Current()
	require.NotNil(t, current, "newer notification cleared by stale timer")
	assert.Equal(t, "new", current.Message)
}

func TestCurrentReturnsCopy(t *testing.T) {
	n := New(time.Minute)
	n.Publish("msg", nil)

	first := n.Current()
	first.Message = "mutated"

	second := n.Current()
	assert.Equal(t, "msg", second.Message)
}
