package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/inhouse-league/internal/domain/bot"
	qb "github.com/riskibarqy/inhouse-league/internal/platform/querybuilder"
)

type botTableModel struct {
	ID       string         `db:"id"`
	GuildID  string         `db:"guild_id"`
	Name     string         `db:"name"`
	LobbyID  sql.NullString `db:"lobby_id"`
	Failed   bool           `db:"failed"`
	Disabled bool           `db:"disabled"`
}

type BotRepository struct {
	db *sqlx.DB
}

func NewBotRepository(db *sqlx.DB) *BotRepository {
	return &BotRepository{db: db}
}

func (r *BotRepository) ListByGuild(ctx context.Context, guildID string) ([]bot.Bot, error) {
	query, args, err := qb.Select("id", "guild_id", "name", "lobby_id", "failed", "disabled").From("bots").
		Where(qb.Eq("guild_id", guildID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bots query: %w", err)
	}

	var rows []botTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}

	out := make([]bot.Bot, 0, len(rows))
	for _, row := range rows {
		out = append(out, bot.Bot{
			ID:       row.ID,
			GuildID:  row.GuildID,
			Name:     row.Name,
			LobbyID:  nullStringValue(row.LobbyID),
			Failed:   row.Failed,
			Disabled: row.Disabled,
		})
	}
	return out, nil
}

func (r *BotRepository) Upsert(ctx context.Context, b bot.Bot) error {
	query, args, err := qb.UpsertModel("bots", botTableModel{
		ID:       b.ID,
		GuildID:  b.GuildID,
		Name:     b.Name,
		LobbyID:  stringToNullString(b.LobbyID),
		Failed:   b.Failed,
		Disabled: b.Disabled,
	}, "id")
	if err != nil {
		return fmt.Errorf("build upsert bot query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert bot id=%s: %w", b.ID, err)
	}
	return nil
}
