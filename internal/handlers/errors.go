package handlers

// Error codes surfaced to the frontend via redirects and JSON bodies
const (
	ErrCodeAuthRequired      = "auth_required"
	ErrCodeAuthDenied        = "auth_denied"
	ErrCodeConsentInProgress = "consent_in_progress"
	ErrCodeSyncFailed        = "sync_failed"
	ErrCodeInvalidRequest    = "invalid_request"
)

// Success codes
const (
	SuccessCodeConnected    = "calendar_connected"
	SuccessCodeSyncComplete = "sync_complete"
)
