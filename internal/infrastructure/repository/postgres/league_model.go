package postgres

import (
	"time"

	"github.com/riskibarqy/inhouse-league/internal/domain/league"
)

type leagueTableModel struct {
	GuildID              string    `db:"guild_id"`
	CurrentSeasonID      string    `db:"current_season_id"`
	ReadyCheckTimeoutMS  int64     `db:"ready_check_timeout_ms"`
	CaptainRankThreshold int       `db:"captain_rank_threshold"`
	CaptainRoleRegexp    string    `db:"captain_role_regexp"`
	CategoryName         string    `db:"category_name"`
	ChannelName          string    `db:"channel_name"`
	AdminRoleName        string    `db:"admin_role_name"`
	InitialRating        int       `db:"initial_rating"`
	LobbySize            int       `db:"lobby_size"`
	EloK                 int       `db:"elo_k"`
	BotWaitTimeoutMS     int64     `db:"bot_wait_timeout_ms"`
	DraftMode            string    `db:"draft_mode"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

type leagueUpsertModel struct {
	GuildID              string `db:"guild_id"`
	CurrentSeasonID      string `db:"current_season_id"`
	ReadyCheckTimeoutMS  int64  `db:"ready_check_timeout_ms"`
	CaptainRankThreshold int    `db:"captain_rank_threshold"`
	CaptainRoleRegexp    string `db:"captain_role_regexp"`
	CategoryName         string `db:"category_name"`
	ChannelName          string `db:"channel_name"`
	AdminRoleName        string `db:"admin_role_name"`
	InitialRating        int    `db:"initial_rating"`
	LobbySize            int    `db:"lobby_size"`
	EloK                 int    `db:"elo_k"`
	BotWaitTimeoutMS     int64  `db:"bot_wait_timeout_ms"`
	DraftMode            string `db:"draft_mode"`
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		GuildID:              row.GuildID,
		CurrentSeasonID:      row.CurrentSeasonID,
		ReadyCheckTimeout:    time.Duration(row.ReadyCheckTimeoutMS) * time.Millisecond,
		CaptainRankThreshold: row.CaptainRankThreshold,
		CaptainRoleRegexp:    row.CaptainRoleRegexp,
		CategoryName:         row.CategoryName,
		ChannelName:          row.ChannelName,
		AdminRoleName:        row.AdminRoleName,
		InitialRating:        row.InitialRating,
		LobbySize:            row.LobbySize,
		EloK:                 row.EloK,
		BotWaitTimeout:       time.Duration(row.BotWaitTimeoutMS) * time.Millisecond,
		DraftMode:            league.DraftMode(row.DraftMode),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func leagueToUpsert(l league.League) leagueUpsertModel {
	return leagueUpsertModel{
		GuildID:              l.GuildID,
		CurrentSeasonID:      l.CurrentSeasonID,
		ReadyCheckTimeoutMS:  l.ReadyCheckTimeout.Milliseconds(),
		CaptainRankThreshold: l.CaptainRankThreshold,
		CaptainRoleRegexp:    l.CaptainRoleRegexp,
		CategoryName:         l.CategoryName,
		ChannelName:          l.ChannelName,
		AdminRoleName:        l.AdminRoleName,
		InitialRating:        l.InitialRating,
		LobbySize:            l.LobbySize,
		EloK:                 l.EloK,
		BotWaitTimeoutMS:     l.BotWaitTimeout.Milliseconds(),
		DraftMode:            string(l.DraftMode),
	}
}
