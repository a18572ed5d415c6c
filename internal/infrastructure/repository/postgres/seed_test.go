package postgres

import (
	"strings"
	"testing"

	qb "github.com/jeromehjj/fpl-playmaker/internal/platform/querybuilder"
)

func TestUserLinkRows_SortedByUser(t *testing.T) {
	rows := userLinkRows(map[string]int64{"carol": 3, "alice": 1, "bob": 2})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if rows[i].UserID != want || rows[i].FPLTeamID != int64(i+1) {
			t.Fatalf("row %d: unexpected %+v", i, rows[i])
		}
	}
	if got := userLinkRows(nil); len(got) != 0 {
		t.Fatalf("expected no rows for empty links, got %d", len(got))
	}
}

func TestUserLinkUpsertQuery(t *testing.T) {
	query, args, err := qb.InsertModels("fpl_users", userLinkRows(map[string]int64{"alice": 10, "bob": 20}), userLinkUpsertSuffix)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.HasPrefix(query, "INSERT INTO fpl_users (user_id, fpl_team_id) VALUES ($1, $2), ($3, $4)") {
		t.Fatalf("unexpected query: %s", query)
	}
	if !strings.Contains(query, "ON CONFLICT (user_id) DO UPDATE") {
		t.Fatalf("expected upsert suffix, got: %s", query)
	}
	if len(args) != 4 || args[0] != "alice" || args[3] != int64(20) {
		t.Fatalf("unexpected args: %v", args)
	}
}
