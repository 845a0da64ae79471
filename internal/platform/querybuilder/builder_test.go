package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "rating").
		From("users").
		Where(Eq("guild_id", "g1"), In("id", []string{"u1", "u2"}), IsNull("ban_expires_at")).
		OrderBy("rating DESC", "id").
		Limit(10).
		Offset(20).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, rating FROM users WHERE guild_id = $1 AND id IN ($2, $3) AND ban_expires_at IS NULL ORDER BY rating DESC, id LIMIT 10 OFFSET 20"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "g1" || args[2] != "u2" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyInMatchesNothing(t *testing.T) {
	query, args, err := Select("*").From("users").Where(In("id", []string{})).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT * FROM users WHERE 1=0" || len(args) != 0 {
		t.Fatalf("unexpected query: %s %v", query, args)
	}
}

func TestInsertBuilder_Upsert(t *testing.T) {
	query, args, err := InsertInto("bots").
		Columns("id", "guild_id", "name").
		Values("b1", "g1", "host-1").
		OnConflictUpdate([]string{"id"}).
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO bots (id, guild_id, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET guild_id = EXCLUDED.guild_id, name = EXCLUDED.name"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_DoNothing(t *testing.T) {
	query, _, err := InsertInto("lobby_results").
		Columns("lobby_id").
		Values("l1").
		OnConflictDoNothing("lobby_id").
		Suffix("RETURNING lobby_id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO lobby_results (lobby_id) VALUES ($1) ON CONFLICT (lobby_id) DO NOTHING RETURNING lobby_id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("users").
		Set("rating", 1016).
		SetExpr("wins", "wins + ?", 1).
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "u1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE users SET rating = $1, wins = wins + $2, updated_at = NOW() WHERE id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != 1016 || args[1] != 1 || args[2] != "u1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder_RequiresWhere(t *testing.T) {
	if _, _, err := DeleteFrom("lobby_players").ToSQL(); err == nil {
		t.Fatalf("expected error for unbounded delete")
	}
	query, args, err := DeleteFrom("lobby_players").Where(Eq("lobby_id", "l1")).ToSQL()
	if err != nil || query != "DELETE FROM lobby_players WHERE lobby_id = $1" || len(args) != 1 {
		t.Fatalf("unexpected delete: %s %v %v", query, args, err)
	}
}

func TestUpsertModel(t *testing.T) {
	type row struct {
		ID      string `db:"id"`
		GuildID string `db:"guild_id"`
		Skip    string `db:"-"`
		hidden  string
	}

	query, args, err := UpsertModel("seasons", row{ID: "s1", GuildID: "g1", hidden: "x"}, "id")
	if err != nil {
		t.Fatalf("build upsert: %v", err)
	}
	wantQuery := "INSERT INTO seasons (id, guild_id) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET guild_id = EXCLUDED.guild_id"
	if query != wantQuery || len(args) != 2 {
		t.Fatalf("unexpected upsert:\nwant: %s\ngot:  %s", wantQuery, query)
	}
}
