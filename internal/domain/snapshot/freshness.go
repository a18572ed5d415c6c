package snapshot

import "time"

type Decision int

const (
	Refresh Decision = iota
	UseCached
)

func (d Decision) String() string {
	if d == UseCached {
		return "use_cached"
	}
	return "refresh"
}

// DecideFreshness keeps a snapshot while its age is within allowed.
// A zero lastSyncedAt always refreshes.
func DecideFreshness(lastSyncedAt time.Time, allowed time.Duration, now time.Time) Decision {
	if lastSyncedAt.IsZero() {
		return Refresh
	}
	if now.Sub(lastSyncedAt) <= allowed {
		return UseCached
	}
	return Refresh
}
