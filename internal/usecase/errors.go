package usecase

import "github.com/cockroachdb/errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")

	// ErrNoLinkedTeam means the user has not linked an upstream team yet.
	ErrNoLinkedTeam = errors.WithHint(
		errors.New("no linked fantasy team"),
		"link a team id to the user before syncing",
	)
	// ErrUpstreamUnavailable covers network failures, non-2xx responses and
	// an open circuit. Callers may retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrDataIntegrity aborts a sync run; nothing from the run is committed.
	ErrDataIntegrity          = errors.New("data integrity violation")
	ErrCurrentGameweekUnknown = errors.New("current gameweek unknown")
)

// IsRetryable reports whether err is worth retrying later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
