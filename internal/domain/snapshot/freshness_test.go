package snapshot

import (
	"testing"
	"time"
)

func TestDecideFreshness(t *testing.T) {
	now := time.Date(2025, 9, 13, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		synced  time.Time
		allowed time.Duration
		want    Decision
	}{
		{name: "within window", synced: now.Add(-5 * time.Minute), allowed: 10 * time.Minute, want: UseCached},
		{name: "exactly at limit", synced: now.Add(-10 * time.Minute), allowed: 10 * time.Minute, want: UseCached},
		{name: "past limit", synced: now.Add(-11 * time.Minute), allowed: 10 * time.Minute, want: Refresh},
		{name: "never synced", synced: time.Time{}, allowed: 720 * time.Minute, want: Refresh},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecideFreshness(tc.synced, tc.allowed, now); got != tc.want {
				t.Fatalf("DecideFreshness() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestLeagueCodes(t *testing.T) {
	if ScoringFromCode("h") != ScoringH2H || ScoringFromCode("c") != ScoringClassic {
		t.Fatalf("unexpected scoring mapping")
	}
	cases := map[string]LeagueKind{"s": LeagueKindStandard, "x": LeagueKindInvitation, "c": LeagueKindCup, "z": LeagueKindUnknown}
	for code, want := range cases {
		if got := LeagueKindFromCode(code); got != want {
			t.Fatalf("LeagueKindFromCode(%q) = %s, want %s", code, got, want)
		}
	}
}
