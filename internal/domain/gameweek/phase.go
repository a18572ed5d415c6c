package gameweek

import "time"

// Phase is the competition state of a gameweek at an instant.
type Phase string

const (
	PhasePreDeadline       Phase = "PRE_DEADLINE"
	PhaseDuringMatchWindow Phase = "DURING_MATCH_WINDOW"
	PhaseBetweenMatches    Phase = "BETWEEN_MATCHES_IN_GAMEWEEK"
	PhaseFinishedNotFinal  Phase = "GAMEWEEK_FINISHED_NOT_FINAL"
	PhaseFinalOrOff        Phase = "GAMEWEEK_FINAL_OR_OFF"
)

const (
	// A fixture counts as live from 30 minutes before kickoff until
	// 150 minutes after it.
	matchWindowLead  = 30 * time.Minute
	matchWindowTrail = 150 * time.Minute

	minutesPerFinishedGameweek = 60

	DefaultMaxStaleness = 60 * time.Minute
)

// ClassifyPhase applies the phase rules in order. gw is nil when the
// gameweek id is not known; fixtures are the fixtures of that gameweek.
func ClassifyPhase(gw *Gameweek, fixtures []Fixture, now time.Time) Phase {
	if gw == nil {
		return PhaseFinalOrOff
	}
	if now.Before(gw.Deadline) {
		return PhasePreDeadline
	}
	if gw.Finished {
		if gw.ResultsFinalized {
			return PhaseFinalOrOff
		}
		return PhaseFinishedNotFinal
	}

	for _, f := range fixtures {
		if f.Finished || f.Kickoff == nil {
			continue
		}
		if inMatchWindow(*f.Kickoff, now) {
			return PhaseDuringMatchWindow
		}
	}

	return PhaseBetweenMatches
}

func inMatchWindow(kickoff, now time.Time) bool {
	sinceKickoff := now.Sub(kickoff)
	return sinceKickoff >= -matchWindowLead && sinceKickoff <= matchWindowTrail
}

// MaxStaleness is how old a team snapshot may be in a given phase.
func MaxStaleness(phase Phase) time.Duration {
	switch phase {
	case PhaseDuringMatchWindow:
		return 10 * time.Minute
	case PhasePreDeadline, PhaseBetweenMatches, PhaseFinishedNotFinal:
		return 60 * time.Minute
	case PhaseFinalOrOff:
		return 720 * time.Minute
	default:
		return DefaultMaxStaleness
	}
}

// MinMinutesForPer90 scales the per-90 eligibility floor with the season:
// 60 minutes per gameweek that is finished or finalized, at least 60.
func MinMinutesForPer90(items []Gameweek) int {
	done := 0
	for _, item := range items {
		if item.Finished || item.ResultsFinalized {
			done++
		}
	}
	return max(1, done) * minutesPerFinishedGameweek
}
