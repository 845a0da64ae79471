package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/inhouse-league/internal/domain/season"
	qb "github.com/riskibarqy/inhouse-league/internal/platform/querybuilder"
)

type seasonTableModel struct {
	ID        string       `db:"id"`
	GuildID   string       `db:"guild_id"`
	Name      string       `db:"name"`
	Active    bool         `db:"active"`
	StartedAt time.Time    `db:"started_at"`
	EndedAt   sql.NullTime `db:"ended_at"`
}

func seasonFromRow(row seasonTableModel) season.Season {
	return season.Season{
		ID:        row.ID,
		GuildID:   row.GuildID,
		Name:      row.Name,
		Active:    row.Active,
		StartedAt: row.StartedAt,
		EndedAt:   nullTimeToTimePtr(row.EndedAt),
	}
}

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) GetByID(ctx context.Context, guildID, seasonID string) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(qb.Eq("guild_id", guildID), qb.Eq("id", seasonID)).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("get season: %w", err)
	}
	return seasonFromRow(row), true, nil
}

func (r *SeasonRepository) ListByGuild(ctx context.Context, guildID string) ([]season.Season, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(qb.Eq("guild_id", guildID)).
		OrderBy("started_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, seasonFromRow(row))
	}
	return out, nil
}

func (r *SeasonRepository) Create(ctx context.Context, s season.Season) error {
	query, args, err := qb.InsertInto("seasons").
		Columns("id", "guild_id", "name", "active", "started_at", "ended_at").
		Values(s.ID, s.GuildID, s.Name, s.Active, s.StartedAt, timePtrToNullTime(s.EndedAt)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert season query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert season id=%s: %w", s.ID, err)
	}
	return nil
}

func (r *SeasonRepository) End(ctx context.Context, guildID, seasonID string, endedAt time.Time) error {
	query, args, err := qb.Update("seasons").
		Set("active", false).
		Set("ended_at", endedAt).
		Where(qb.Eq("guild_id", guildID), qb.Eq("id", seasonID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build end season query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("end season id=%s: %w", seasonID, err)
	}
	return expectOneRow(res, "end season "+seasonID)
}
