package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jeromehjj/fpl-playmaker/internal/app"
	"github.com/jeromehjj/fpl-playmaker/internal/config"
	"github.com/jeromehjj/fpl-playmaker/internal/domain/snapshot"
	"github.com/jeromehjj/fpl-playmaker/internal/observability"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
	"github.com/jeromehjj/fpl-playmaker/internal/usecase"
)

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSONWriter(os.Stderr, cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	tel, err := observability.Start(cfg, logger)
	if err != nil {
		return fmt.Errorf("start telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	cmd := strings.ToLower(strings.TrimSpace(args[0]))
	rest := args[1:]

	return tel.Run(ctx, cmd, func(ctx context.Context) error {
		// Migrations run before app.New, which expects the schema to exist.
		if cmd == "migrate" {
			return runMigrate(cfg, logger, rest, stdout)
		}

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("build app: %w", err)
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn("close app failed", "error", err)
			}
		}()

		out, err := dispatch(ctx, a, cmd, rest)
		if err != nil {
			return err
		}
		return writeJSON(stdout, out)
	})
}

func dispatch(ctx context.Context, a *app.App, cmd string, args []string) (any, error) {
	switch cmd {
	case "sync-bootstrap":
		return a.Catalog.BulkSync(ctx)
	case "sync-team":
		userID, err := requireUser(cmd, args)
		if err != nil {
			return nil, err
		}
		snap, err := a.Snapshots.ForceSync(ctx, userID)
		if err != nil {
			return nil, err
		}
		return syncTeamOutput(snap), nil
	case "refresh-teams":
		return a.Refresher.RefreshAll(ctx, usecase.RefreshInput{
			UserIDs:    args,
			MaxWorkers: a.Config.SyncMaxWorkers,
		})
	case "team":
		userID, err := requireUser(cmd, args)
		if err != nil {
			return nil, err
		}
		return a.Snapshots.Overview(ctx, userID)
	case "squad":
		userID, err := requireUser(cmd, args)
		if err != nil {
			return nil, err
		}
		return a.Squads.CurrentSquad(ctx, userID)
	case "transfers":
		userID, err := requireUser(cmd, args)
		if err != nil {
			return nil, err
		}
		return a.Transfers.Suggest(ctx, userID)
	case "players":
		input, err := parsePlayersFlags(args)
		if err != nil {
			return nil, err
		}
		return a.Catalog.List(ctx, input)
	case "ticker":
		numEvents, err := parseTickerEvents(args)
		if err != nil {
			return nil, err
		}
		return a.State.FixtureTicker(ctx, numEvents)
	default:
		return nil, fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// teamSnapshotOutput writes the stored upstream payload as JSON rather than
// as a base64 byte slice. RawPayload shadows the embedded field.
type teamSnapshotOutput struct {
	snapshot.TeamSnapshot
	RawPayload json.RawMessage
}

func syncTeamOutput(snap snapshot.TeamSnapshot) teamSnapshotOutput {
	out := teamSnapshotOutput{TeamSnapshot: snap}
	if len(snap.RawPayload) > 0 {
		out.RawPayload = json.RawMessage(snap.RawPayload)
	}
	return out
}

func runMigrate(cfg config.Config, logger *logging.Logger, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: migrate requires an action", errUsage)
	}

	m, err := app.NewMigrator(cfg.DBURL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("close migrator failed", "error", err)
		}
	}()

	switch action := strings.ToLower(strings.TrimSpace(args[0])); action {
	case "up":
		return m.Up()
	case "down":
		steps, err := parseSteps(args[1:])
		if err != nil {
			return err
		}
		return m.Down(steps)
	case "version":
		version, err := m.Version()
		if err != nil {
			return err
		}
		return writeJSON(stdout, version)
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("%w: force requires a version argument", errUsage)
		}
		version, err := parseVersion(args[1])
		if err != nil {
			return err
		}
		return m.Force(version)
	case "goto":
		if len(args) < 2 {
			return fmt.Errorf("%w: goto requires a target version argument", errUsage)
		}
		target, err := parseTarget(args[1])
		if err != nil {
			return err
		}
		return m.Goto(target)
	default:
		return fmt.Errorf("%w: unknown migrate action %q", errUsage, action)
	}
}

func requireUser(cmd string, args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%w: %s requires a user id", errUsage, cmd)
	}
	return strings.TrimSpace(args[0]), nil
}

func parsePlayersFlags(args []string) (usecase.ListPlayersInput, error) {
	fs := flag.NewFlagSet("players", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var input usecase.ListPlayersInput
	fs.Int64Var(&input.ClubID, "club", 0, "club external id")
	fs.StringVar(&input.Position, "position", "", "GK, DEF, MID or FWD")
	fs.StringVar(&input.Search, "search", "", "name substring")
	fs.IntVar(&input.MinMinutes, "min-minutes", 0, "minimum minutes played")
	fs.StringVar(&input.Sort, "sort", "", "sort key")
	fs.StringVar(&input.Direction, "direction", "", "asc or desc")
	fs.IntVar(&input.Limit, "limit", 0, "page size")
	fs.IntVar(&input.Offset, "offset", 0, "page offset")

	if err := fs.Parse(args); err != nil {
		return usecase.ListPlayersInput{}, fmt.Errorf("%w: players: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return usecase.ListPlayersInput{}, fmt.Errorf("%w: players: unexpected argument %q", errUsage, fs.Arg(0))
	}
	input.Position = strings.ToUpper(strings.TrimSpace(input.Position))
	return input, nil
}

func parseTickerEvents(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid ticker events %q", errUsage, args[0])
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: ticker events must be >= 0", errUsage)
	}
	return n, nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("version is too large for this platform")
	}
	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func writeJSON(w io.Writer, v any) error {
	body, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	body = append(body, '\n')
	_, err = w.Write(body)
	return err
}

func printUsage(w io.Writer) {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <command> [args]\n", name)
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  sync-bootstrap                 mirror clubs and players")
	fmt.Fprintln(w, "  sync-team <user>               force a snapshot sync")
	fmt.Fprintln(w, "  refresh-teams [user...]        force-sync many users")
	fmt.Fprintln(w, "  team <user>                    team overview")
	fmt.Fprintln(w, "  squad <user>                   current squad with live points")
	fmt.Fprintln(w, "  transfers <user>               transfer suggestions")
	fmt.Fprintln(w, "  players [flags]                catalog page (-club -position -search -min-minutes -sort -direction -limit -offset)")
	fmt.Fprintln(w, "  ticker [n]                     fixture ticker over n gameweeks")
	fmt.Fprintln(w, "  migrate <up|down [n]|version|force v|goto v>")
}
