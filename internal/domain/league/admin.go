package league

import "strings"

// Actor is the member issuing a command, as seen by the command layer.
type Actor struct {
	AccountID    string
	RoleNames    []string
	GuildManager bool
}

// IsAdmin reports whether actor may run admin-only inhouse actions.
func IsAdmin(cfg League, actor Actor) bool {
	if actor.GuildManager {
		return true
	}

	want := strings.TrimSpace(cfg.AdminRoleName)
	if want == "" {
		return false
	}
	for _, role := range actor.RoleNames {
		if strings.EqualFold(strings.TrimSpace(role), want) {
			return true
		}
	}

	return false
}
