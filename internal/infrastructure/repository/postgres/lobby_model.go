package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
)

type lobbyTableModel struct {
	ID            string         `db:"id"`
	GuildID       string         `db:"guild_id"`
	SeasonID      string         `db:"season_id"`
	State         string         `db:"state"`
	Settings      string         `db:"settings"`
	Players       string         `db:"players"`
	Captains      pq.StringArray `db:"captains"`
	Picks         pq.StringArray `db:"picks"`
	BotID         sql.NullString `db:"bot_id"`
	Winner        int            `db:"winner"`
	CancelReason  string         `db:"cancel_reason"`
	ReadyDeadline sql.NullTime   `db:"ready_deadline"`
	BotDeadline   sql.NullTime   `db:"bot_deadline"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	FinishedAt    sql.NullTime   `db:"finished_at"`
}

// lobbySettingsDocument is the jsonb shape of a lobby's frozen settings.
type lobbySettingsDocument struct {
	Size                 int    `json:"size"`
	ReadyCheckTimeoutMS  int64  `json:"ready_check_timeout_ms"`
	BotWaitTimeoutMS     int64  `json:"bot_wait_timeout_ms"`
	CaptainRankThreshold int    `json:"captain_rank_threshold"`
	EloK                 int    `json:"elo_k"`
	DraftMode            string `json:"draft_mode"`
}

type lobbyPlayerDocument struct {
	UserID      string    `json:"user_id"`
	AccountID   string    `json:"account_id"`
	Rating      int       `json:"rating"`
	CaptainRank int       `json:"captain_rank"`
	Ready       bool      `json:"ready"`
	Faction     int       `json:"faction"`
	QueuedAt    time.Time `json:"queued_at"`
}

func lobbyToRow(l lobby.Lobby) (lobbyTableModel, error) {
	settings, err := encodeJSON(lobbySettingsDocument{
		Size:                 l.Settings.Size,
		ReadyCheckTimeoutMS:  l.Settings.ReadyCheckTimeout.Milliseconds(),
		BotWaitTimeoutMS:     l.Settings.BotWaitTimeout.Milliseconds(),
		CaptainRankThreshold: l.Settings.CaptainRankThreshold,
		EloK:                 l.Settings.EloK,
		DraftMode:            string(l.Settings.DraftMode),
	})
	if err != nil {
		return lobbyTableModel{}, fmt.Errorf("lobby %s settings: %w", l.ID, err)
	}

	docs := make([]lobbyPlayerDocument, 0, len(l.Players))
	for _, p := range l.Players {
		docs = append(docs, lobbyPlayerDocument{
			UserID:      p.UserID,
			AccountID:   p.AccountID,
			Rating:      p.Rating,
			CaptainRank: p.CaptainRank,
			Ready:       p.Ready,
			Faction:     int(p.Faction),
			QueuedAt:    p.QueuedAt,
		})
	}
	players, err := encodeJSON(docs)
	if err != nil {
		return lobbyTableModel{}, fmt.Errorf("lobby %s players: %w", l.ID, err)
	}

	return lobbyTableModel{
		ID:            l.ID,
		GuildID:       l.GuildID,
		SeasonID:      l.SeasonID,
		State:         string(l.State),
		Settings:      settings,
		Players:       players,
		Captains:      pq.StringArray{l.Captains[0], l.Captains[1]},
		Picks:         pq.StringArray(append([]string{}, l.Picks...)),
		BotID:         stringToNullString(l.BotID),
		Winner:        int(l.Winner),
		CancelReason:  string(l.CancelReason),
		ReadyDeadline: timePtrToNullTime(l.ReadyDeadline),
		BotDeadline:   timePtrToNullTime(l.BotDeadline),
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
		FinishedAt:    timePtrToNullTime(l.FinishedAt),
	}, nil
}

func lobbyFromRow(row lobbyTableModel) (lobby.Lobby, error) {
	var settings lobbySettingsDocument
	if err := decodeJSON(row.Settings, &settings); err != nil {
		return lobby.Lobby{}, fmt.Errorf("lobby %s settings: %w", row.ID, err)
	}
	var docs []lobbyPlayerDocument
	if err := decodeJSON(row.Players, &docs); err != nil {
		return lobby.Lobby{}, fmt.Errorf("lobby %s players: %w", row.ID, err)
	}

	players := make([]lobby.Player, 0, len(docs))
	for _, d := range docs {
		players = append(players, lobby.Player{
			UserID:      d.UserID,
			AccountID:   d.AccountID,
			Rating:      d.Rating,
			CaptainRank: d.CaptainRank,
			Ready:       d.Ready,
			Faction:     lobby.Faction(d.Faction),
			QueuedAt:    d.QueuedAt,
		})
	}

	var captains [2]string
	copy(captains[:], row.Captains)
	var picks []string
	if len(row.Picks) > 0 {
		picks = append(picks, row.Picks...)
	}

	return lobby.Lobby{
		ID:       row.ID,
		GuildID:  row.GuildID,
		SeasonID: row.SeasonID,
		State:    lobby.State(row.State),
		Settings: lobby.Settings{
			Size:                 settings.Size,
			ReadyCheckTimeout:    time.Duration(settings.ReadyCheckTimeoutMS) * time.Millisecond,
			BotWaitTimeout:       time.Duration(settings.BotWaitTimeoutMS) * time.Millisecond,
			CaptainRankThreshold: settings.CaptainRankThreshold,
			EloK:                 settings.EloK,
			DraftMode:            league.DraftMode(settings.DraftMode),
		},
		Players:       players,
		Captains:      captains,
		Picks:         picks,
		BotID:         nullStringValue(row.BotID),
		Winner:        lobby.Faction(row.Winner),
		CancelReason:  lobby.CancelReason(row.CancelReason),
		ReadyDeadline: nullTimeToTimePtr(row.ReadyDeadline),
		BotDeadline:   nullTimeToTimePtr(row.BotDeadline),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		FinishedAt:    nullTimeToTimePtr(row.FinishedAt),
	}, nil
}
