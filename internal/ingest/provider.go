// Package ingest imports workout history recorded by other apps.
package ingest

// Result holds the outcome of an import.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	WorkoutsImported int `json:"workouts_imported"`
	// WorkoutsSkipped counts sessions already logged at the same time, or
	// with no set that maps to a library exercise.
	WorkoutsSkipped int `json:"workouts_skipped"`
	SetsImported    int `json:"sets_imported"`
	WarmupsSkipped  int `json:"warmups_skipped"`
	// Unmatched lists export exercise names with no library equivalent.
	// Their sets are dropped.
	Unmatched []string `json:"unmatched,omitempty"`
}
