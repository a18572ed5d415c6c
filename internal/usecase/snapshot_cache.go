package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeromehjj/fpl-playmaker/internal/domain/gameweek"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/snapshot"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/user"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
)

type phaseClassifier interface {
	ClassifyPhase(ctx context.Context, gameweekID int64, now time.Time) (gameweek.Phase, error)
}

// SnapshotCache serves each user's team summary, refreshing it from
// upstream once it is older than the current phase allows.
type SnapshotCache struct {
	users     user.Directory
	snapshots snapshot.Repository
	provider  FPLProvider
	phases    phaseClassifier
	logger    *logging.Logger
	now       func() time.Time
}

func NewSnapshotCache(
	users user.Directory,
	snapshots snapshot.Repository,
	provider FPLProvider,
	phases phaseClassifier,
	logger *logging.Logger,
) *SnapshotCache {
	if logger == nil {
		logger = logging.Default()
	}
	return &SnapshotCache{
		users:     users,
		snapshots: snapshots,
		provider:  provider,
		phases:    phases,
		logger:    logger.Named("snapshot_cache"),
		now:       time.Now,
	}
}

// GetFresh returns the stored snapshot when it is fresh enough, otherwise
// refetches and persists it.
func (s *SnapshotCache) GetFresh(ctx context.Context, userID string) (snapshot.TeamSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotCache.GetFresh")
	defer span.End()

	userID, teamID, err := s.resolveTeam(ctx, userID)
	if err != nil {
		return snapshot.TeamSnapshot{}, err
	}

	existing, exists, err := s.snapshots.GetByUserID(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return snapshot.TeamSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	now := s.now()
	if exists && existing.ExternalTeamID == teamID {
		allowed := s.allowedStaleness(ctx, existing, now)
		if snapshot.DecideFreshness(existing.LastSyncedAt, allowed, now) == snapshot.UseCached {
			return existing, nil
		}
	}

	snap, err := s.refresh(ctx, userID, teamID, now)
	if err != nil {
		recordSpanError(span, err)
		return snapshot.TeamSnapshot{}, err
	}
	return snap, nil
}

// ForceSync refetches regardless of age.
func (s *SnapshotCache) ForceSync(ctx context.Context, userID string) (snapshot.TeamSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotCache.ForceSync")
	defer span.End()

	userID, teamID, err := s.resolveTeam(ctx, userID)
	if err != nil {
		return snapshot.TeamSnapshot{}, err
	}

	snap, err := s.refresh(ctx, userID, teamID, s.now())
	if err != nil {
		recordSpanError(span, err)
		return snapshot.TeamSnapshot{}, err
	}
	return snap, nil
}

// TeamOverview is the read model of a snapshot.
type TeamOverview struct {
	TeamID          int64
	TeamName        string
	ManagerName     string
	Region          *string
	RegionCode      *string
	OverallPoints   *int64
	OverallRank     *int64
	GameweekPoints  *int64
	GameweekRank    *int64
	CurrentGameweek *int64
	Leagues         []snapshot.LeagueMembership
	LastSyncedAt    time.Time
}

func (s *SnapshotCache) Overview(ctx context.Context, userID string) (TeamOverview, error) {
	snap, err := s.GetFresh(ctx, userID)
	if err != nil {
		return TeamOverview{}, err
	}
	return TeamOverview{
		TeamID:          snap.ExternalTeamID,
		TeamName:        snap.Name,
		ManagerName:     snap.ManagerName,
		Region:          snap.Region,
		RegionCode:      snap.RegionCode,
		OverallPoints:   snap.OverallPoints,
		OverallRank:     snap.OverallRank,
		GameweekPoints:  snap.GameweekPoints,
		GameweekRank:    snap.GameweekRank,
		CurrentGameweek: snap.CurrentGameweek,
		Leagues:         append([]snapshot.LeagueMembership(nil), snap.Leagues...),
		LastSyncedAt:    snap.LastSyncedAt,
	}, nil
}

func (s *SnapshotCache) resolveTeam(ctx context.Context, userID string) (string, int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", 0, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	teamID, ok, err := s.users.FindTeamID(ctx, userID)
	if err != nil {
		return "", 0, fmt.Errorf("find team id: %w", err)
	}
	if !ok || teamID <= 0 {
		return "", 0, fmt.Errorf("%w: user=%s", ErrNoLinkedTeam, userID)
	}
	return userID, teamID, nil
}

// allowedStaleness falls back to the default window when the gameweek or
// its phase cannot be resolved.
func (s *SnapshotCache) allowedStaleness(ctx context.Context, snap snapshot.TeamSnapshot, now time.Time) time.Duration {
	if snap.CurrentGameweek == nil {
		return gameweek.DefaultMaxStaleness
	}

	phase, err := s.phases.ClassifyPhase(ctx, *snap.CurrentGameweek, now)
	if err != nil {
		s.logger.WarnContext(ctx, "classify phase failed, using default staleness",
			"user_id", snap.UserID,
			"gameweek", *snap.CurrentGameweek,
			"error", err,
		)
		return gameweek.DefaultMaxStaleness
	}
	return gameweek.MaxStaleness(phase)
}

func (s *SnapshotCache) refresh(ctx context.Context, userID string, teamID int64, now time.Time) (snapshot.TeamSnapshot, error) {
	entry, err := s.provider.FetchEntry(ctx, teamID)
	if err != nil {
		return snapshot.TeamSnapshot{}, fmt.Errorf("fetch entry team=%d: %w", teamID, err)
	}

	snap := snapshotFromEntry(userID, teamID, entry, now)
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return snapshot.TeamSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "team snapshot refreshed",
		"user_id", userID,
		"team_id", teamID,
		"leagues", len(snap.Leagues),
	)
	return snap, nil
}

func snapshotFromEntry(userID string, teamID int64, entry ExternalEntry, now time.Time) snapshot.TeamSnapshot {
	leagues := make([]snapshot.LeagueMembership, 0, len(entry.ClassicLeagues)+len(entry.HeadToHeadLeagues))
	for _, item := range entry.ClassicLeagues {
		leagues = append(leagues, leagueFromExternal(item, snapshot.ScoringClassic))
	}
	for _, item := range entry.HeadToHeadLeagues {
		leagues = append(leagues, leagueFromExternal(item, snapshot.ScoringH2H))
	}

	return snapshot.TeamSnapshot{
		UserID:          userID,
		ExternalTeamID:  teamID,
		Name:            entry.Name,
		ManagerName:     strings.TrimSpace(entry.ManagerFirstName + " " + entry.ManagerLastName),
		Region:          entry.Region,
		RegionCode:      entry.RegionCode,
		OverallPoints:   entry.OverallPoints,
		OverallRank:     entry.OverallRank,
		GameweekPoints:  entry.GameweekPoints,
		GameweekRank:    entry.GameweekRank,
		CurrentGameweek: entry.CurrentGameweek,
		LastSyncedAt:    now,
		RawPayload:      entry.Raw,
		Leagues:         leagues,
	}
}

func leagueFromExternal(item ExternalLeague, category snapshot.Scoring) snapshot.LeagueMembership {
	return snapshot.LeagueMembership{
		ExternalLeagueID:    item.ID,
		Name:                item.Name,
		ShortName:           item.ShortName,
		Scoring:             snapshot.ScoringFromCode(item.Scoring),
		Kind:                snapshot.LeagueKindFromCode(item.LeagueType),
		RawKind:             item.LeagueType,
		Category:            category,
		Closed:              item.Closed,
		IsAdmin:             item.EntryCanAdmin,
		CanLeave:            item.EntryCanLeave,
		EntryRank:           item.EntryRank,
		EntryLastRank:       item.EntryLastRank,
		RankCount:           item.RankCount,
		EntryPercentileRank: item.EntryPercentileRank,
	}
}
