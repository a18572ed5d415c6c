package fpl

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeromehjj/fpl-playmaker/internal/platform/logging"
	"github.com/jeromehjj/fpl-playmaker/internal/platform/resilience"
	"github.com/jeromehjj/fpl-playmaker/internal/usecase"
)

const bootstrapBody = `{
  "events": [
    {"id": 1, "deadline_time": "2025-08-15T17:30:00Z", "finished": true, "data_checked": true},
    {"id": 2, "deadline_time": "2025-08-22T17:30:00Z", "finished": false, "data_checked": false}
  ],
  "teams": [{"id": 1, "name": "Arsenal", "short_name": "ARS"}],
  "elements": [
    {"id": 7, "team": 1, "web_name": "Saka", "first_name": "Bukayo", "second_name": "Saka",
     "element_type": 3, "now_cost": 100, "total_points": 60, "minutes": 810,
     "points_per_game": "6.7", "status": "d", "chance_of_playing_next_round": 50,
     "chance_of_playing_this_round": null, "news": "knock"}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientConfig)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		HTTPClient:   server.Client(),
		BaseURL:      server.URL,
		RetryBackoff: time.Millisecond,
		Logger:       logging.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg)
}

func TestClient_FetchBootstrap(t *testing.T) {
	t.Parallel()

	var userAgent atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bootstrap-static/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		userAgent.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(bootstrapBody))
	}, nil)

	got, err := client.FetchBootstrap(t.Context())
	if err != nil {
		t.Fatalf("fetch bootstrap: %v", err)
	}

	if len(got.Gameweeks) != 2 || !got.Gameweeks[0].ResultsFinalized || got.Gameweeks[1].Finished {
		t.Fatalf("unexpected gameweeks: %+v", got.Gameweeks)
	}
	if len(got.Clubs) != 1 || got.Clubs[0].ShortName != "ARS" {
		t.Fatalf("unexpected clubs: %+v", got.Clubs)
	}
	if len(got.Players) != 1 {
		t.Fatalf("expected 1 player, got=%d", len(got.Players))
	}
	p := got.Players[0]
	if p.WebName != "Saka" || p.ElementType != 3 || p.NowCost != 100 {
		t.Fatalf("unexpected player: %+v", p)
	}
	if p.Stats.ChanceOfPlayingNext == nil || *p.Stats.ChanceOfPlayingNext != 50 || p.Stats.ChanceOfPlayingThis != nil {
		t.Fatalf("unexpected chance of playing: %+v", p.Stats)
	}
	if len(p.Raw) == 0 || !strings.Contains(string(p.Raw), `"news"`) {
		t.Fatalf("expected raw element payload to be kept, got=%s", p.Raw)
	}
	if got := userAgent.Load(); got != DefaultUserAgent {
		t.Fatalf("unexpected user agent: %v", got)
	}
}

func TestClient_FetchEntry(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/entry/77/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": 77, "name": "Playmakers", "player_first_name": "Sam", "player_last_name": "Lee",
			"player_region_name": "England", "player_region_iso_code_short": "EN",
			"summary_overall_points": 310, "summary_overall_rank": null,
			"summary_event_points": 64, "summary_event_rank": 1000, "current_event": 5,
			"leagues": {
				"classic": [{"id": 314, "name": "Overall", "short_name": "overall", "scoring": "c", "league_type": "s",
					"closed": false, "entry_can_admin": false, "entry_can_leave": false, "entry_rank": 1200,
					"entry_last_rank": 1500, "rank_count": 9000000, "entry_percentile_rank": 1}],
				"h2h": [{"id": 7, "name": "Mates", "short_name": null, "scoring": "h", "league_type": "x",
					"closed": true, "entry_can_admin": true, "entry_can_leave": true, "entry_rank": null,
					"entry_last_rank": null, "rank_count": null, "entry_percentile_rank": null}]
			}
		}`))
	}, nil)

	entry, err := client.FetchEntry(t.Context(), 77)
	if err != nil {
		t.Fatalf("fetch entry: %v", err)
	}
	if entry.ManagerFirstName != "Sam" || entry.RegionCode == nil || *entry.RegionCode != "EN" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.OverallRank != nil {
		t.Fatalf("expected nil overall rank")
	}
	if entry.CurrentGameweek == nil || *entry.CurrentGameweek != 5 {
		t.Fatalf("unexpected current gameweek: %v", entry.CurrentGameweek)
	}
	if len(entry.ClassicLeagues) != 1 || len(entry.HeadToHeadLeagues) != 1 {
		t.Fatalf("unexpected leagues: classic=%d h2h=%d", len(entry.ClassicLeagues), len(entry.HeadToHeadLeagues))
	}
	if h2h := entry.HeadToHeadLeagues[0]; h2h.ShortName != nil || !h2h.EntryCanAdmin || h2h.Scoring != "h" {
		t.Fatalf("unexpected h2h league: %+v", h2h)
	}
	if len(entry.Raw) == 0 {
		t.Fatalf("expected raw payload")
	}
}

func TestClient_FetchPicksAndLive(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/entry/77/event/5/picks/":
			_, _ = w.Write([]byte(`{"entry_history": {"event": 5, "bank": 15, "value": 1002},
				"picks": [{"element": 7, "position": 1, "multiplier": 2, "is_captain": true, "is_vice_captain": false}]}`))
		case "/event/5/live/":
			_, _ = w.Write([]byte(`{"elements": [{"id": 7, "stats": {"total_points": 12}}]}`))
		default:
			http.NotFound(w, r)
		}
	}, nil)

	picks, err := client.FetchPicks(t.Context(), 77, 5)
	if err != nil {
		t.Fatalf("fetch picks: %v", err)
	}
	if picks.Bank != 15 || picks.Value != 1002 || len(picks.Picks) != 1 || !picks.Picks[0].IsCaptain {
		t.Fatalf("unexpected picks: %+v", picks)
	}

	live, err := client.FetchLive(t.Context(), 5)
	if err != nil {
		t.Fatalf("fetch live: %v", err)
	}
	if live.Points[7] != 12 {
		t.Fatalf("unexpected live points: %v", live.Points)
	}
}

func TestClient_FetchFixtures_Nullables(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("event") != "3" {
			t.Errorf("unexpected event query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[
			{"id": 1, "event": 3, "kickoff_time": "2025-08-30T14:00:00Z", "started": true, "finished": false,
			 "minutes": 45, "team_h": 1, "team_a": 2, "team_h_difficulty": 3, "team_a_difficulty": 4},
			{"id": 2, "event": null, "kickoff_time": null, "started": null, "finished": false,
			 "minutes": null, "team_h": 3, "team_a": 4, "team_h_difficulty": 2, "team_a_difficulty": 2}
		]`))
	}, nil)

	fixtures, err := client.FetchFixtures(t.Context(), 3)
	if err != nil {
		t.Fatalf("fetch fixtures: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("expected 2 fixtures, got=%d", len(fixtures))
	}
	first := fixtures[0]
	if first.Event == nil || *first.Event != 3 || first.Kickoff == nil || !first.Started || first.Minutes != 45 {
		t.Fatalf("unexpected first fixture: %+v", first)
	}
	second := fixtures[1]
	if second.Event != nil || second.Kickoff != nil || second.Started || second.Minutes != 0 {
		t.Fatalf("unexpected postponed fixture: %+v", second)
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"elements": []}`))
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 2
	})

	if _, err := client.FetchLive(t.Context(), 1); err != nil {
		t.Fatalf("fetch live: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got=%d", got)
	}
}

func TestClient_NotFoundIsUpstreamUnavailableWithoutRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}, func(cfg *ClientConfig) {
		cfg.MaxRetries = 3
	})

	_, err := client.FetchEntry(t.Context(), 1)
	if !errors.Is(err, usecase.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got=%d", got)
	}
}

func TestClient_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, func(cfg *ClientConfig) {
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
		}
	})

	for range 3 {
		_, err := client.FetchBootstrap(t.Context())
		if !errors.Is(err, usecase.ErrUpstreamUnavailable) {
			t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected open circuit to stop the third request, hits=%d", got)
	}
}
