package gameweek

import (
	"sort"
	"time"
)

// DifficultySums holds summed opponent difficulty over the next 3 and 5
// fixtures of a club. Nil means the club has no upcoming fixtures.
type DifficultySums struct {
	Next3 *int
	Next5 *int
}

type clubFixture struct {
	event      int64
	kickoff    *time.Time
	difficulty int
	opponent   int64
	home       bool
}

// SumUpcomingDifficulty groups unfinished fixtures by club, orders them by
// gameweek and sums the first 3 and 5 difficulties.
func SumUpcomingDifficulty(fixtures []Fixture) map[int64]DifficultySums {
	byClub := groupByClub(fixtures)
	out := make(map[int64]DifficultySums, len(byClub))
	for clubID, items := range byClub {
		if len(items) == 0 {
			continue
		}
		out[clubID] = DifficultySums{
			Next3: sumFirst(items, 3),
			Next5: sumFirst(items, 5),
		}
	}
	return out
}

// TickerFixture is one cell of the fixture ticker.
type TickerFixture struct {
	Event      int64
	Kickoff    *time.Time
	OpponentID int64
	IsHome     bool
	Difficulty int
}

// TickerRow lists a club's upcoming fixtures in play order.
type TickerRow struct {
	ClubID   int64
	Fixtures []TickerFixture
}

// BuildTicker returns one row per club that has at least one unfinished
// fixture, rows ordered by club id.
func BuildTicker(fixtures []Fixture) []TickerRow {
	byClub := groupByClub(fixtures)
	rows := make([]TickerRow, 0, len(byClub))
	for clubID, items := range byClub {
		if len(items) == 0 {
			continue
		}
		row := TickerRow{ClubID: clubID, Fixtures: make([]TickerFixture, 0, len(items))}
		for _, item := range items {
			row.Fixtures = append(row.Fixtures, TickerFixture{
				Event:      item.event,
				Kickoff:    item.kickoff,
				OpponentID: item.opponent,
				IsHome:     item.home,
				Difficulty: item.difficulty,
			})
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClubID < rows[j].ClubID })
	return rows
}

func groupByClub(fixtures []Fixture) map[int64][]clubFixture {
	byClub := make(map[int64][]clubFixture)
	for _, f := range fixtures {
		if f.Finished || f.Event == nil {
			continue
		}
		byClub[f.HomeClubID] = append(byClub[f.HomeClubID], clubFixture{
			event:      *f.Event,
			kickoff:    f.Kickoff,
			difficulty: f.HomeDifficulty,
			opponent:   f.AwayClubID,
			home:       true,
		})
		byClub[f.AwayClubID] = append(byClub[f.AwayClubID], clubFixture{
			event:      *f.Event,
			kickoff:    f.Kickoff,
			difficulty: f.AwayDifficulty,
			opponent:   f.HomeClubID,
			home:       false,
		})
	}

	for _, items := range byClub {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].event != items[j].event {
				return items[i].event < items[j].event
			}
			return kickoffBefore(items[i].kickoff, items[j].kickoff)
		})
	}
	return byClub
}

// kickoffBefore orders unknown kickoffs last.
func kickoffBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

func sumFirst(items []clubFixture, n int) *int {
	if len(items) == 0 {
		return nil
	}
	total := 0
	for _, item := range items[:min(n, len(items))] {
		total += item.difficulty
	}
	return &total
}
