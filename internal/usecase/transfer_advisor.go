package usecase

import (
	"context"
	"math"
	"sort"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/player"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
)

const (
	maxSuggestions         = 20
	maxCandidatesPerPlayer = 3
	minOutgoingMinutes     = 180
	candidatePoolSize      = 1000
)

type TransferSuggestion struct {
	Out                  SquadPlayer
	In                   CatalogPlayer
	CostDelta            int
	BankAfter            int
	PointsPerNinetyGain  float64
	PointsPerMillionGain *float64
}

type currentSquadSource interface {
	CurrentSquad(ctx context.Context, userID string) (Squad, error)
}

// TransferAdvisor proposes one-for-one swaps that raise points per 90
// within the available budget.
type TransferAdvisor struct {
	squads  currentSquadSource
	catalog *PlayerCatalog
	logger  *logging.Logger
}

func NewTransferAdvisor(squads currentSquadSource, catalog *PlayerCatalog, logger *logging.Logger) *TransferAdvisor {
	if logger == nil {
		logger = logging.Default()
	}
	return &TransferAdvisor{
		squads:  squads,
		catalog: catalog,
		logger:  logger.Named("transfer_advisor"),
	}
}

// Suggest returns at most 20 swaps. For each starter with a per-90 rate and
// at least 180 minutes it takes up to 3 affordable, available, unowned
// players of the same position with a strictly higher rate.
func (a *TransferAdvisor) Suggest(ctx context.Context, userID string) ([]TransferSuggestion, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TransferAdvisor.Suggest")
	defer span.End()

	squad, err := a.squads.CurrentSquad(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	minMinutes, err := a.catalog.state.MinMinutesForPer90(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	candidates, err := a.catalog.ranked(ctx, ListPlayersInput{
		MinMinutes: minMinutes,
		Sort:       string(SortPointsPerNinety),
		Direction:  "desc",
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if len(candidates) > candidatePoolSize {
		candidates = candidates[:candidatePoolSize]
	}

	owned := make(map[int64]struct{}, len(squad.Starting)+len(squad.Bench))
	for _, item := range squad.Players() {
		owned[item.ExternalID] = struct{}{}
	}

	var out []TransferSuggestion
	for _, from := range squad.Starting {
		fromPer90 := from.Metrics.PointsPerNinety
		if fromPer90 == nil || from.Metrics.Minutes < minOutgoingMinutes {
			continue
		}
		budget := from.Price + squad.Bank

		taken := 0
		for _, to := range candidates {
			if taken >= maxCandidatesPerPlayer {
				break
			}
			if !eligibleReplacement(from, to, owned, budget) {
				continue
			}

			out = append(out, TransferSuggestion{
				Out:                  from,
				In:                   to,
				CostDelta:            to.Price - from.Price,
				BankAfter:            budget - to.Price,
				PointsPerNinetyGain:  player.Round2(*to.Metrics.PointsPerNinety - *fromPer90),
				PointsPerMillionGain: diffRounded(to.Metrics.PointsPerMillion, from.Metrics.PointsPerMillion),
			})
			taken++
		}
	}

	sortSuggestions(out)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}

	a.logger.DebugContext(ctx, "transfer suggestions computed", "user_id", squad.UserID, "count", len(out))
	return out, nil
}

func eligibleReplacement(from SquadPlayer, to CatalogPlayer, owned map[int64]struct{}, budget int) bool {
	if to.Position != from.Position {
		return false
	}
	if _, ok := owned[to.ExternalID]; ok {
		return false
	}
	if to.Price > budget {
		return false
	}
	if to.Metrics.Availability != player.AvailabilityAvailable {
		return false
	}
	if to.Metrics.PointsPerNinety == nil {
		return false
	}
	return *to.Metrics.PointsPerNinety > *from.Metrics.PointsPerNinety
}

func diffRounded(to, from *float64) *float64 {
	if to == nil || from == nil {
		return nil
	}
	v := player.Round2(*to - *from)
	return &v
}

// sortSuggestions orders by per-90 gain desc, then the incoming player's
// next-3 difficulty asc with unknown last, then cost delta asc.
func sortSuggestions(items []TransferSuggestion) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.PointsPerNinetyGain != b.PointsPerNinetyGain {
			return a.PointsPerNinetyGain > b.PointsPerNinetyGain
		}
		da, db := difficultyOrInf(a.In.NextThreeDifficulty), difficultyOrInf(b.In.NextThreeDifficulty)
		if da != db {
			return da < db
		}
		return a.CostDelta < b.CostDelta
	})
}

func difficultyOrInf(v *int) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return float64(*v)
}
