package schedule

// Merge applies the reconciliation policy to an event set: every locally
// authored event in existing survives untouched, while the previous
// external subset is discarded in favor of freshExternal. Running Merge
// twice with the same fresh set therefore never duplicates events, and a
// caller that skips Merge on a failed fetch keeps its stale external
// events visible instead of losing them.
func Merge(existing, freshExternal []Event) []Event {
	merged := make([]Event, 0, len(existing)+len(freshExternal))
	for _, ev := range existing {
		if ev.IsLocal() {
			merged = append(merged, ev)
		}
	}
	return append(merged, freshExternal...)
}
