package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	qb "github.com/riskibarqy/inhouse-league/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select("*").From("leagues").
		OrderBy("created_at", "guild_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}
	return out, nil
}

func (r *LeagueRepository) GetByGuild(ctx context.Context, guildID string) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(qb.Eq("guild_id", guildID)).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get league by guild query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league by guild: %w", err)
	}

	return leagueFromRow(row), true, nil
}

func (r *LeagueRepository) Upsert(ctx context.Context, l league.League) error {
	query, args, err := qb.InsertModel("leagues", leagueToUpsert(l), `ON CONFLICT (guild_id)
DO UPDATE SET
    current_season_id = EXCLUDED.current_season_id,
    ready_check_timeout_ms = EXCLUDED.ready_check_timeout_ms,
    captain_rank_threshold = EXCLUDED.captain_rank_threshold,
    captain_role_regexp = EXCLUDED.captain_role_regexp,
    category_name = EXCLUDED.category_name,
    channel_name = EXCLUDED.channel_name,
    admin_role_name = EXCLUDED.admin_role_name,
    initial_rating = EXCLUDED.initial_rating,
    lobby_size = EXCLUDED.lobby_size,
    elo_k = EXCLUDED.elo_k,
    bot_wait_timeout_ms = EXCLUDED.bot_wait_timeout_ms,
    draft_mode = EXCLUDED.draft_mode,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert league query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert league guild=%s: %w", l.GuildID, err)
	}
	return nil
}
