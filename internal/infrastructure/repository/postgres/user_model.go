package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/user"
)

type userTableModel struct {
	ID           string       `db:"id"`
	GuildID      string       `db:"guild_id"`
	AccountID    string       `db:"account_id"`
	Rating       int          `db:"rating"`
	Wins         int          `db:"wins"`
	Losses       int          `db:"losses"`
	BanExpiresAt sql.NullTime `db:"ban_expires_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

type userInsertModel struct {
	ID        string `db:"id"`
	GuildID   string `db:"guild_id"`
	AccountID string `db:"account_id"`
	Rating    int    `db:"rating"`
	Wins      int    `db:"wins"`
	Losses    int    `db:"losses"`
}

type lobbyResultInsertModel struct {
	LobbyID  string `db:"lobby_id"`
	GuildID  string `db:"guild_id"`
	SeasonID string `db:"season_id"`
}

type leaderboardEntryInsertModel struct {
	GuildID  string `db:"guild_id"`
	SeasonID string `db:"season_id"`
	UserID   string `db:"user_id"`
	Rating   int    `db:"rating"`
	Wins     int    `db:"wins"`
	Losses   int    `db:"losses"`
}

type standingRowModel struct {
	UserID    string `db:"user_id"`
	AccountID string `db:"account_id"`
	Rating    int    `db:"rating"`
	Wins      int    `db:"wins"`
	Losses    int    `db:"losses"`
}

func userFromRow(row userTableModel) user.User {
	return user.User{
		ID:           row.ID,
		GuildID:      row.GuildID,
		AccountID:    row.AccountID,
		Rating:       row.Rating,
		Wins:         row.Wins,
		Losses:       row.Losses,
		BanExpiresAt: nullTimeToTimePtr(row.BanExpiresAt),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func winLoss(won bool) (int, int) {
	if won {
		return 1, 0
	}
	return 0, 1
}
