package gameweek

import (
	"sort"
	"time"
)

// Gameweek is one scoring round of the season.
type Gameweek struct {
	ID               int64
	Deadline         time.Time
	Finished         bool
	ResultsFinalized bool
}

// Fixture is a single match. Event is nil for postponed fixtures that have
// not been rescheduled; Kickoff is nil until the slot is confirmed.
type Fixture struct {
	ID             int64
	Event          *int64
	Kickoff        *time.Time
	Started        bool
	Finished       bool
	Minutes        int
	HomeClubID     int64
	AwayClubID     int64
	HomeDifficulty int
	AwayDifficulty int
}

func SortByID(items []Gameweek) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

// Find returns the gameweek with the given id from a list.
func Find(items []Gameweek, id int64) (Gameweek, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return Gameweek{}, false
}

// UpcomingWindow returns up to n gameweek ids starting at the first
// unfinished gameweek, or at the last one when every gameweek is finished.
// items must be sorted by id.
func UpcomingWindow(items []Gameweek, n int) []int64 {
	if len(items) == 0 || n <= 0 {
		return nil
	}

	start := len(items) - 1
	for i, item := range items {
		if !item.Finished {
			start = i
			break
		}
	}

	end := min(start+n, len(items))
	out := make([]int64, 0, end-start)
	for _, item := range items[start:end] {
		out = append(out, item.ID)
	}
	return out
}
