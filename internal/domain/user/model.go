package user

import (
	"fmt"
	"time"
)

// User is a guild member registered for inhouses.
type User struct {
	ID           string
	GuildID      string
	AccountID    string
	Rating       int
	Wins         int
	Losses       int
	BanExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if u.GuildID == "" {
		return fmt.Errorf("user guild id is required")
	}
	if u.AccountID == "" {
		return fmt.Errorf("user account id is required")
	}
	if u.Rating < 0 {
		return fmt.Errorf("user rating must be >= 0")
	}

	return nil
}

// BannedAt reports whether a persisted ban is still active at now.
func (u User) BannedAt(now time.Time) bool {
	return u.BanExpiresAt != nil && u.BanExpiresAt.After(now)
}

// RatingChange is the outcome of one completed lobby for one player.
type RatingChange struct {
	UserID string
	Before int
	After  int
	Won    bool
}

// Delta is the rating movement. Stores apply it on top of the current rating
// so a late reconciliation does not undo matches played in between.
func (c RatingChange) Delta() int {
	return c.After - c.Before
}

// MatchResult is everything persisted for a completed lobby in one unit.
type MatchResult struct {
	GuildID  string
	SeasonID string
	LobbyID  string
	Changes  []RatingChange
}

// Standing is one leaderboard row.
type Standing struct {
	UserID    string
	AccountID string
	Rating    int
	Wins      int
	Losses    int
}
