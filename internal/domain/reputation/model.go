package reputation

import (
	"errors"
	"fmt"
	"time"
)

var ErrSelfReputation = errors.New("cannot give reputation to yourself")

// Reputation is an immutable giver to recipient trust signal.
type Reputation struct {
	ID          string
	GuildID     string
	SeasonID    string
	GiverID     string
	RecipientID string
	CreatedAt   time.Time
}

func (r Reputation) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("reputation id is required")
	}
	if r.GuildID == "" {
		return fmt.Errorf("reputation guild id is required")
	}
	if r.SeasonID == "" {
		return fmt.Errorf("reputation season id is required")
	}
	if r.GiverID == "" || r.RecipientID == "" {
		return fmt.Errorf("reputation giver and recipient are required")
	}
	if r.GiverID == r.RecipientID {
		return ErrSelfReputation
	}

	return nil
}

// Summary aggregates reputation received by a user.
type Summary struct {
	RecipientID string
	SeasonCount int
	TotalCount  int
}
