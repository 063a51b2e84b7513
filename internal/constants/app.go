// Package constants provides shared constants for the LUCHA FIT scheduling service
package constants

// LuchaFitIdentifier names this application in logs and provider requests.
const LuchaFitIdentifier = "LUCHA FIT"

// MaxEventsPerWindow caps a single provider fetch for one displayed week.
// Anything past the cap is silently not shown; it is never an error.
const MaxEventsPerWindow = 50
