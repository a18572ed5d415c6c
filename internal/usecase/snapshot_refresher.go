package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/snapshot"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
)

const (
	refreshStatusSuccess = "success"
	refreshStatusFailed  = "failed"
	refreshStatusSkipped = "skipped"

	defaultRefreshWorkers = 4
	maxRefreshWorkers     = 16
)

type forceSyncer interface {
	ForceSync(ctx context.Context, userID string) (snapshot.TeamSnapshot, error)
}

// linkedUserLister lists users that have a linked team.
type linkedUserLister interface {
	ListLinkedUserIDs(ctx context.Context) ([]string, error)
}

type RefreshInput struct {
	// UserIDs limits the run; empty means every linked user.
	UserIDs    []string
	MaxWorkers int
}

type RefreshResult struct {
	UserCount    int                 `json:"user_count"`
	WorkerCount  int                 `json:"worker_count"`
	SuccessCount int                 `json:"success_count"`
	FailedCount  int                 `json:"failed_count"`
	SkippedCount int                 `json:"skipped_count"`
	Users        []RefreshUserResult `json:"users"`
}

type RefreshUserResult struct {
	UserID     string `json:"user_id"`
	TeamID     int64  `json:"team_id,omitempty"`
	Status     string `json:"status"`
	Retryable  bool   `json:"retryable,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// SnapshotRefresher force-syncs many users' snapshots on a worker pool.
// One user's failure never stops the others.
type SnapshotRefresher struct {
	syncer forceSyncer
	users  linkedUserLister
	logger *logging.Logger
}

func NewSnapshotRefresher(syncer forceSyncer, users linkedUserLister, logger *logging.Logger) *SnapshotRefresher {
	if logger == nil {
		logger = logging.Default()
	}
	return &SnapshotRefresher{
		syncer: syncer,
		users:  users,
		logger: logger.Named("snapshot_refresher"),
	}
}

func (r *SnapshotRefresher) RefreshAll(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotRefresher.RefreshAll")
	defer span.End()

	userIDs, err := r.resolveUsers(ctx, input.UserIDs)
	if err != nil {
		recordSpanError(span, err)
		return RefreshResult{}, err
	}

	workerCount := normalizeRefreshWorkerCount(input.MaxWorkers, len(userIDs))
	result := RefreshResult{
		UserCount:   len(userIDs),
		WorkerCount: workerCount,
		Users:       make([]RefreshUserResult, 0, len(userIDs)),
	}
	if len(userIDs) == 0 {
		return result, nil
	}

	results := make(chan RefreshUserResult, len(userIDs))
	var successCount, failedCount, skippedCount atomic.Int32

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	for _, userID := range userIDs {
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			row := r.refreshOne(ctx, userID)
			switch row.Status {
			case refreshStatusSuccess:
				successCount.Add(1)
			case refreshStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			workers.Done()
			return RefreshResult{}, fmt.Errorf("submit refresh to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Users = append(result.Users, row)
	}
	sort.SliceStable(result.Users, func(i, j int) bool {
		return result.Users[i].UserID < result.Users[j].UserID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())

	r.logger.InfoContext(ctx, "snapshot refresh finished",
		"users", result.UserCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
	return result, nil
}

func (r *SnapshotRefresher) refreshOne(ctx context.Context, userID string) RefreshUserResult {
	start := time.Now()
	row := RefreshUserResult{UserID: userID}

	snap, err := r.syncer.ForceSync(ctx, userID)
	row.DurationMs = time.Since(start).Milliseconds()
	switch {
	case err == nil:
		row.Status = refreshStatusSuccess
		row.TeamID = snap.ExternalTeamID
	case errors.Is(err, ErrNoLinkedTeam):
		row.Status = refreshStatusSkipped
		row.Message = err.Error()
	default:
		row.Status = refreshStatusFailed
		row.Retryable = IsRetryable(err)
		row.Message = err.Error()
		r.logger.WarnContext(ctx, "snapshot refresh failed", "user_id", userID, "error", err)
	}
	return row
}

func (r *SnapshotRefresher) resolveUsers(ctx context.Context, requested []string) ([]string, error) {
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, raw := range requested {
		userID := strings.TrimSpace(raw)
		if userID == "" {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		out = append(out, userID)
	}
	if len(out) > 0 || len(requested) > 0 {
		return out, nil
	}

	if r.users == nil {
		return nil, fmt.Errorf("%w: user ids are required", ErrInvalidInput)
	}
	linked, err := r.users.ListLinkedUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list linked users: %w", err)
	}
	return linked, nil
}

func normalizeRefreshWorkerCount(requested, taskCount int) int {
	workers := requested
	if workers <= 0 {
		workers = defaultRefreshWorkers
	}
	workers = min(workers, maxRefreshWorkers)
	if taskCount > 0 {
		workers = min(workers, taskCount)
	}
	return max(workers, 1)
}
