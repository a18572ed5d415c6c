package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/snapshot"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
)

// Slots 1..11 are the starting eleven; 12..15 the bench.
const startingSlots = 11

type freshSnapshotSource interface {
	GetFresh(ctx context.Context, userID string) (snapshot.TeamSnapshot, error)
}

type PickInfo struct {
	Slot          int
	Multiplier    int
	IsCaptain     bool
	IsViceCaptain bool
	IsStarting    bool
}

type SquadPlayer struct {
	CatalogPlayer
	GameweekPoints int
	Pick           PickInfo
}

type Squad struct {
	UserID         string
	ExternalTeamID int64
	GameweekID     int64
	Bank           int
	Value          int
	Starting       []SquadPlayer
	Bench          []SquadPlayer
	LastSyncedAt   time.Time
}

// Players returns starting then bench players.
func (s Squad) Players() []SquadPlayer {
	out := make([]SquadPlayer, 0, len(s.Starting)+len(s.Bench))
	out = append(out, s.Starting...)
	return append(out, s.Bench...)
}

// SquadProjector joins a team's picks with the catalog and live points.
type SquadProjector struct {
	snapshots freshSnapshotSource
	provider  FPLProvider
	catalog   *PlayerCatalog
	logger    *logging.Logger
}

func NewSquadProjector(snapshots freshSnapshotSource, provider FPLProvider, catalog *PlayerCatalog, logger *logging.Logger) *SquadProjector {
	if logger == nil {
		logger = logging.Default()
	}
	return &SquadProjector{
		snapshots: snapshots,
		provider:  provider,
		catalog:   catalog,
		logger:    logger.Named("squad_projector"),
	}
}

// CurrentSquad projects the user's squad for the current gameweek. Picks
// whose player is missing from the catalog are skipped.
func (p *SquadProjector) CurrentSquad(ctx context.Context, userID string) (Squad, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SquadProjector.CurrentSquad")
	defer span.End()

	snap, err := p.snapshots.GetFresh(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return Squad{}, err
	}
	if snap.CurrentGameweek == nil || *snap.CurrentGameweek <= 0 {
		err := fmt.Errorf("%w: team=%d", ErrCurrentGameweekUnknown, snap.ExternalTeamID)
		recordSpanError(span, err)
		return Squad{}, err
	}
	gameweekID := *snap.CurrentGameweek

	picks, err := p.provider.FetchPicks(ctx, snap.ExternalTeamID, gameweekID)
	if err != nil {
		recordSpanError(span, err)
		return Squad{}, fmt.Errorf("fetch picks team=%d gameweek=%d: %w", snap.ExternalTeamID, gameweekID, err)
	}
	live, err := p.provider.FetchLive(ctx, gameweekID)
	if err != nil {
		recordSpanError(span, err)
		return Squad{}, fmt.Errorf("fetch live gameweek=%d: %w", gameweekID, err)
	}

	ids := make([]int64, 0, len(picks.Picks))
	for _, pick := range picks.Picks {
		ids = append(ids, pick.Element)
	}
	players, err := p.catalog.enrich(ctx, ids)
	if err != nil {
		recordSpanError(span, err)
		return Squad{}, err
	}

	sorted := append([]ExternalPick(nil), picks.Picks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	squad := Squad{
		UserID:         snap.UserID,
		ExternalTeamID: snap.ExternalTeamID,
		GameweekID:     picks.Event,
		Bank:           picks.Bank,
		Value:          picks.Value,
		LastSyncedAt:   snap.LastSyncedAt,
	}
	if squad.GameweekID == 0 {
		squad.GameweekID = gameweekID
	}

	for _, pick := range sorted {
		catalogPlayer, ok := players[pick.Element]
		if !ok {
			p.logger.WarnContext(ctx, "pick references player missing from catalog",
				"team_id", snap.ExternalTeamID,
				"player_id", pick.Element,
			)
			continue
		}

		starting := pick.Position <= startingSlots
		item := SquadPlayer{
			CatalogPlayer:  catalogPlayer,
			GameweekPoints: live.Points[pick.Element],
			Pick: PickInfo{
				Slot:          pick.Position,
				Multiplier:    pick.Multiplier,
				IsCaptain:     pick.IsCaptain,
				IsViceCaptain: pick.IsViceCaptain,
				IsStarting:    starting,
			},
		}
		if starting {
			squad.Starting = append(squad.Starting, item)
		} else {
			squad.Bench = append(squad.Bench, item)
		}
	}

	return squad, nil
}
