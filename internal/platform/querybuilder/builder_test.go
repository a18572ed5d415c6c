package querybuilder

import "testing"

func TestSelectBuilder_PlayerListing(t *testing.T) {
	query, args, err := Select("external_id", "web_name").
		From("fpl_players").
		Where(
			Eq("club_external_id", int64(3)),
			In("position", []any{"MID", "FWD"}),
			ContainsAny("sal_ah", "web_name", "full_name"),
			Expr("(raw_payload->>'minutes')::int >= ?", 180),
		).
		OrderBy("web_name ASC").
		Limit(50).
		Offset(100).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT external_id, web_name FROM fpl_players WHERE club_external_id = $1 AND position IN ($2, $3) AND (web_name ILIKE $4 OR full_name ILIKE $5) AND (raw_payload->>'minutes')::int >= $6 ORDER BY web_name ASC LIMIT 50 OFFSET 100"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 {
		t.Fatalf("unexpected args: %+v", args)
	}
	if args[3] != `%sal\_ah%` || args[4] != `%sal\_ah%` {
		t.Fatalf("expected escaped like pattern, got %v / %v", args[3], args[4])
	}
	if args[5] != 180 {
		t.Fatalf("unexpected expr arg: %v", args[5])
	}
}

func TestSelectBuilder_EmptyInMatchesNothing(t *testing.T) {
	query, args, err := Select("id").From("fpl_clubs").Where(In("id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM fpl_clubs WHERE 1=0" || len(args) != 0 {
		t.Fatalf("unexpected query %q args %v", query, args)
	}
}

func TestInsertModels_Upsert(t *testing.T) {
	type row struct {
		ID        int64  `db:"external_id"`
		Name      string `db:"name"`
		ShortName string `db:"short_name"`
		ignored   string
	}

	query, args, err := InsertModels("fpl_clubs", []row{
		{ID: 1, Name: "Arsenal", ShortName: "ARS"},
		{ID: 2, Name: "Aston Villa", ShortName: "AVL"},
	}, "ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO fpl_clubs (external_id, name, short_name) VALUES ($1, $2, $3), ($4, $5, $6) ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 || args[0] != int64(1) || args[5] != "AVL" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModels_RequiresRows(t *testing.T) {
	if _, _, err := InsertModels[struct{}]("fpl_clubs", nil, ""); err == nil {
		t.Fatalf("expected error for empty rows")
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("fpl_leagues").Where(Eq("user_id", "u1")).ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM fpl_leagues WHERE user_id = $1" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 1 || args[0] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("fpl_leagues").ToSQL(); err == nil {
		t.Fatalf("expected error for unbounded delete")
	}
}
