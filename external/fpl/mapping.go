package fpl

import (
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/gameweek"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
	"github.com/jeromehjj/fpl-playmaker/internal/usecase"
)

func mapBootstrap(envelope bootstrapEnvelope) (usecase.ExternalBootstrap, error) {
	out := usecase.ExternalBootstrap{
		Gameweeks: make([]gameweek.Gameweek, 0, len(envelope.Events)),
		Clubs:     make([]player.Club, 0, len(envelope.Teams)),
		Players:   make([]usecase.ExternalPlayer, 0, len(envelope.Elements)),
	}

	for _, event := range envelope.Events {
		out.Gameweeks = append(out.Gameweeks, gameweek.Gameweek{
			ID:               event.ID,
			Deadline:         event.DeadlineTime.UTC(),
			Finished:         event.Finished,
			ResultsFinalized: event.DataChecked,
		})
	}
	for _, team := range envelope.Teams {
		out.Clubs = append(out.Clubs, player.Club{
			ExternalID: team.ID,
			Name:       team.Name,
			ShortName:  team.ShortName,
		})
	}

	for i, raw := range envelope.Elements {
		var element elementPayload
		if err := sonic.Unmarshal(raw, &element); err != nil {
			return usecase.ExternalBootstrap{}, fmt.Errorf("decode element index=%d: %w", i, err)
		}
		out.Players = append(out.Players, usecase.ExternalPlayer{
			ID:          element.ID,
			ClubID:      element.Team,
			WebName:     element.WebName,
			FirstName:   element.FirstName,
			SecondName:  element.SecondName,
			ElementType: element.ElementType,
			NowCost:     element.NowCost,
			Stats: player.Stats{
				TotalPoints:         element.TotalPoints,
				Minutes:             element.Minutes,
				PointsPerGame:       element.PointsPerGame,
				Status:              element.Status,
				ChanceOfPlayingNext: element.ChanceOfPlayingNextRound,
				ChanceOfPlayingThis: element.ChanceOfPlayingThisRound,
			},
			Raw: append([]byte(nil), raw...),
		})
	}
	return out, nil
}

func mapEntry(envelope entryPayload, raw []byte) usecase.ExternalEntry {
	return usecase.ExternalEntry{
		ID:                envelope.ID,
		Name:              envelope.Name,
		ManagerFirstName:  envelope.PlayerFirstName,
		ManagerLastName:   envelope.PlayerLastName,
		Region:            envelope.PlayerRegionName,
		RegionCode:        envelope.PlayerRegionISOCodeShort,
		OverallPoints:     envelope.SummaryOverallPoints,
		OverallRank:       envelope.SummaryOverallRank,
		GameweekPoints:    envelope.SummaryEventPoints,
		GameweekRank:      envelope.SummaryEventRank,
		CurrentGameweek:   envelope.CurrentEvent,
		ClassicLeagues:    mapLeagues(envelope.Leagues.Classic),
		HeadToHeadLeagues: mapLeagues(envelope.Leagues.H2H),
		Raw:               raw,
	}
}

func mapLeagues(items []leaguePayload) []usecase.ExternalLeague {
	out := make([]usecase.ExternalLeague, 0, len(items))
	for _, item := range items {
		out = append(out, usecase.ExternalLeague{
			ID:                  item.ID,
			Name:                item.Name,
			ShortName:           item.ShortName,
			Scoring:             item.Scoring,
			LeagueType:          item.LeagueType,
			Closed:              item.Closed,
			EntryCanAdmin:       item.EntryCanAdmin,
			EntryCanLeave:       item.EntryCanLeave,
			EntryRank:           item.EntryRank,
			EntryLastRank:       item.EntryLastRank,
			RankCount:           item.RankCount,
			EntryPercentileRank: item.EntryPercentileRank,
		})
	}
	return out
}

func mapPicks(envelope picksEnvelope) usecase.ExternalPicks {
	out := usecase.ExternalPicks{
		Event: envelope.EntryHistory.Event,
		Bank:  envelope.EntryHistory.Bank,
		Value: envelope.EntryHistory.Value,
		Picks: make([]usecase.ExternalPick, 0, len(envelope.Picks)),
	}
	for _, pick := range envelope.Picks {
		out.Picks = append(out.Picks, usecase.ExternalPick{
			Element:       pick.Element,
			Position:      pick.Position,
			Multiplier:    pick.Multiplier,
			IsCaptain:     pick.IsCaptain,
			IsViceCaptain: pick.IsViceCaptain,
		})
	}
	return out
}

func mapLive(envelope liveEnvelope) usecase.ExternalLive {
	points := make(map[int64]int, len(envelope.Elements))
	for _, element := range envelope.Elements {
		points[element.ID] = element.Stats.TotalPoints
	}
	return usecase.ExternalLive{Points: points}
}

// mapFixtures treats a missing started flag as false and a missing minutes
// count as zero.
func mapFixtures(items []fixturePayload) []gameweek.Fixture {
	out := make([]gameweek.Fixture, 0, len(items))
	for _, item := range items {
		f := gameweek.Fixture{
			ID:             item.ID,
			Event:          item.Event,
			Finished:       item.Finished,
			HomeClubID:     item.TeamH,
			AwayClubID:     item.TeamA,
			HomeDifficulty: item.TeamHDifficulty,
			AwayDifficulty: item.TeamADifficulty,
		}
		if item.KickoffTime != nil {
			kickoff := item.KickoffTime.UTC()
			f.Kickoff = &kickoff
		}
		if item.Started != nil {
			f.Started = *item.Started
		}
		if item.Minutes != nil {
			f.Minutes = *item.Minutes
		}
		out = append(out, f)
	}
	return out
}
