package player

import "testing"

func intPtr(v int) *int { return &v }

func TestComputeMetrics(t *testing.T) {
	p := Player{
		ExternalID: 1,
		Price:      80,
		Stats:      Stats{TotalPoints: 96, Minutes: 1800, PointsPerGame: "5.3", Status: "a"},
	}

	m := ComputeMetrics(p, 180)
	if m.ValueMillions != 8.0 {
		t.Fatalf("ValueMillions = %v, want 8.0", m.ValueMillions)
	}
	if m.PointsPerMillion == nil || *m.PointsPerMillion != 12.00 {
		t.Fatalf("PointsPerMillion = %v, want 12.00", m.PointsPerMillion)
	}
	if m.PointsPerNinety == nil || *m.PointsPerNinety != 4.8 {
		t.Fatalf("PointsPerNinety = %v, want 4.8", m.PointsPerNinety)
	}
	if m.PointsPerGame != 5.3 {
		t.Fatalf("PointsPerGame = %v, want 5.3", m.PointsPerGame)
	}
	if m.Availability != AvailabilityAvailable {
		t.Fatalf("Availability = %s", m.Availability)
	}
}

func TestComputeMetrics_Per90Threshold(t *testing.T) {
	p := Player{Price: 60, Stats: Stats{TotalPoints: 180, Minutes: 1800}}

	if m := ComputeMetrics(p, 1800); m.PointsPerNinety == nil || *m.PointsPerNinety != 9.00 {
		t.Fatalf("expected 9.00 at threshold, got %v", m.PointsPerNinety)
	}
	if m := ComputeMetrics(p, 1801); m.PointsPerNinety != nil {
		t.Fatalf("expected nil below threshold, got %v", *m.PointsPerNinety)
	}
}

func TestComputeMetrics_ZeroPrice(t *testing.T) {
	m := ComputeMetrics(Player{Price: 0, Stats: Stats{TotalPoints: 10, PointsPerGame: "bad"}}, 60)
	if m.PointsPerMillion != nil {
		t.Fatalf("expected nil points per million for zero price")
	}
	if m.PointsPerGame != 0 {
		t.Fatalf("expected unparseable points per game to be 0, got %v", m.PointsPerGame)
	}
}

func TestAvailabilityOf(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  Availability
	}{
		{name: "injured", stats: Stats{Status: "i"}, want: AvailabilityUnavailable},
		{name: "suspended overrides chance", stats: Stats{Status: "s", ChanceOfPlayingNext: intPtr(100)}, want: AvailabilityUnavailable},
		{name: "not available", stats: Stats{Status: "n"}, want: AvailabilityUnavailable},
		{name: "unknown", stats: Stats{Status: "u"}, want: AvailabilityUnavailable},
		{name: "chance 25", stats: Stats{Status: "a", ChanceOfPlayingNext: intPtr(25)}, want: AvailabilityUnavailable},
		{name: "chance 50", stats: Stats{Status: "d", ChanceOfPlayingNext: intPtr(50)}, want: AvailabilityRisky},
		{name: "chance 75 doubtful", stats: Stats{Status: "d", ChanceOfPlayingNext: intPtr(75)}, want: AvailabilityAvailable},
		{name: "chance 80 doubtful", stats: Stats{Status: "d", ChanceOfPlayingNext: intPtr(80)}, want: AvailabilityAvailable},
		{name: "this round chance overrides doubtful", stats: Stats{Status: "d", ChanceOfPlayingThis: intPtr(100)}, want: AvailabilityAvailable},
		{name: "this round fallback", stats: Stats{Status: "a", ChanceOfPlayingThis: intPtr(0)}, want: AvailabilityUnavailable},
		{name: "next round wins", stats: Stats{Status: "a", ChanceOfPlayingNext: intPtr(100), ChanceOfPlayingThis: intPtr(0)}, want: AvailabilityAvailable},
		{name: "doubtful without chance", stats: Stats{Status: "d"}, want: AvailabilityRisky},
		{name: "available", stats: Stats{Status: "a"}, want: AvailabilityAvailable},
		{name: "empty", stats: Stats{}, want: AvailabilityAvailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AvailabilityOf(tc.stats); got != tc.want {
				t.Fatalf("AvailabilityOf() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestJoinFullName(t *testing.T) {
	if got := JoinFullName("  Mohamed ", " Salah  "); got == nil || *got != "Mohamed Salah" {
		t.Fatalf("unexpected full name %v", got)
	}
	if got := JoinFullName(" ", ""); got != nil {
		t.Fatalf("expected nil for blank names, got %q", *got)
	}
}

func TestPositionFromElementType(t *testing.T) {
	want := map[int]Position{1: PositionGoalkeeper, 2: PositionDefender, 3: PositionMidfielder, 4: PositionForward}
	for code, pos := range want {
		got, ok := PositionFromElementType(code)
		if !ok || got != pos {
			t.Fatalf("PositionFromElementType(%d) = %s, %v", code, got, ok)
		}
	}
	if _, ok := PositionFromElementType(5); ok {
		t.Fatalf("expected unknown element type to fail")
	}
}
