package player

import (
	"math"
	"strconv"
	"strings"
)

type Availability string

const (
	AvailabilityAvailable   Availability = "AVAILABLE"
	AvailabilityRisky       Availability = "RISKY"
	AvailabilityUnavailable Availability = "UNAVAILABLE"
)

// AvailabilityOf derives availability from status code and chance of
// playing. Chance for the next round wins over the current round, and a
// present chance decides the result before the doubtful status is looked at.
func AvailabilityOf(stats Stats) Availability {
	switch strings.ToLower(strings.TrimSpace(stats.Status)) {
	case "i", "s", "n", "u":
		return AvailabilityUnavailable
	}

	chance := stats.ChanceOfPlayingNext
	if chance == nil {
		chance = stats.ChanceOfPlayingThis
	}
	if chance != nil {
		if *chance <= 25 {
			return AvailabilityUnavailable
		}
		if *chance < 75 {
			return AvailabilityRisky
		}
		return AvailabilityAvailable
	}

	if strings.EqualFold(strings.TrimSpace(stats.Status), "d") {
		return AvailabilityRisky
	}
	return AvailabilityAvailable
}

// Metrics are derived per read and never stored.
type Metrics struct {
	ValueMillions    float64
	TotalPoints      int
	Minutes          int
	PointsPerGame    float64
	PointsPerMillion *float64
	PointsPerNinety  *float64
	Availability     Availability
}

// ComputeMetrics derives the read-side metrics. Per-90 is only reported
// once a player has at least minMinutesForPer90 minutes.
func ComputeMetrics(p Player, minMinutesForPer90 int) Metrics {
	value := float64(p.Price) / 10
	m := Metrics{
		ValueMillions: value,
		TotalPoints:   p.Stats.TotalPoints,
		Minutes:       p.Stats.Minutes,
		PointsPerGame: parseFloat(p.Stats.PointsPerGame),
		Availability:  AvailabilityOf(p.Stats),
	}

	if value > 0 {
		ppm := Round2(float64(p.Stats.TotalPoints) / value)
		m.PointsPerMillion = &ppm
	}
	if p.Stats.Minutes > 0 && p.Stats.Minutes >= minMinutesForPer90 {
		per90 := Round2(float64(p.Stats.TotalPoints) * 90 / float64(p.Stats.Minutes))
		m.PointsPerNinety = &per90
	}
	return m
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
