package season

import (
	"fmt"
	"time"
)

// Season groups lobbies and leaderboards of one league over a time span.
type Season struct {
	ID        string
	GuildID   string
	Name      string
	Active    bool
	StartedAt time.Time
	EndedAt   *time.Time
}

func (s Season) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("season id is required")
	}
	if s.GuildID == "" {
		return fmt.Errorf("season guild id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("season name is required")
	}
	if s.EndedAt != nil && s.EndedAt.Before(s.StartedAt) {
		return fmt.Errorf("season cannot end before it starts")
	}

	return nil
}
