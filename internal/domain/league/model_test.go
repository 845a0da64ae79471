package league

import "testing"

func TestLeague_CaptainRank(t *testing.T) {
	cfg := Default("g1")

	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{name: "no roles", roles: nil, want: 0},
		{name: "unrelated roles", roles: []string{"Member", "Inhouse Admin"}, want: 0},
		{name: "single tier", roles: []string{"Tier 2 Captain"}, want: 2},
		{name: "lowest tier wins", roles: []string{"Tier 4 Captain", "Tier 1 Captain", "Tier 3 Captain"}, want: 1},
		{name: "zero tier ignored", roles: []string{"Tier 0 Captain"}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cfg.CaptainRank(tc.roles); got != tc.want {
				t.Fatalf("unexpected rank: got=%d want=%d", got, tc.want)
			}
		})
	}
}

func TestLeague_Validate(t *testing.T) {
	if err := Default("g1").Validate(); err != nil {
		t.Fatalf("default league should be valid: %v", err)
	}

	bad := Default("g1")
	bad.LobbySize = 9
	if err := bad.Validate(); err == nil {
		t.Fatalf("odd lobby size should be rejected")
	}

	bad = Default("g1")
	bad.CaptainRoleRegexp = "Tier ([0-9]+"
	if err := bad.Validate(); err == nil {
		t.Fatalf("broken regexp should be rejected")
	}

	bad = Default("g1")
	bad.DraftMode = "random"
	if err := bad.Validate(); err == nil {
		t.Fatalf("unknown draft mode should be rejected")
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := Default("g1")

	if !IsAdmin(cfg, Actor{AccountID: "a1", GuildManager: true}) {
		t.Fatalf("guild managers are admins")
	}
	if !IsAdmin(cfg, Actor{AccountID: "a1", RoleNames: []string{"member", " inhouse admin "}}) {
		t.Fatalf("admin role match should ignore case and padding")
	}
	if IsAdmin(cfg, Actor{AccountID: "a1", RoleNames: []string{"Tier 1 Captain"}}) {
		t.Fatalf("captains are not admins")
	}
}
