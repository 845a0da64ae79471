package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/inhouse-league/internal/domain/user"
	qb "github.com/riskibarqy/inhouse-league/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByAccount(ctx context.Context, guildID, accountID string) (user.User, bool, error) {
	query, args, err := qb.Select("*").From("users").
		Where(qb.Eq("guild_id", guildID), qb.Eq("account_id", accountID)).
		ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user by account query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user by account: %w", err)
	}
	return userFromRow(row), true, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, guildID string, userIDs []string) ([]user.User, error) {
	query, args, err := qb.Select("*").From("users").
		Where(qb.Eq("guild_id", guildID), qb.In("id", userIDs)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get users by ids query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

func (r *UserRepository) Create(ctx context.Context, u user.User) error {
	query, args, err := qb.InsertModel("users", userInsertModel{
		ID:        u.ID,
		GuildID:   u.GuildID,
		AccountID: u.AccountID,
		Rating:    u.Rating,
		Wins:      u.Wins,
		Losses:    u.Losses,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user account=%s: %w", u.AccountID, err)
	}
	return nil
}

func (r *UserRepository) SetBanExpiry(ctx context.Context, guildID, userID string, expiresAt *time.Time) error {
	query, args, err := qb.Update("users").
		Set("ban_expires_at", timePtrToNullTime(expiresAt)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("guild_id", guildID), qb.Eq("id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set ban expiry query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set ban expiry user=%s: %w", userID, err)
	}
	return expectOneRow(res, "set ban expiry "+userID)
}

// ApplyMatchResult writes a lobby's rating changes in one transaction. The
// lobby_results row guards against applying the same lobby twice.
func (r *UserRepository) ApplyMatchResult(ctx context.Context, result user.MatchResult) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx apply match result: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	markQuery, markArgs, err := qb.InsertInto("lobby_results").
		Columns("lobby_id", "guild_id", "season_id").
		Values(result.LobbyID, result.GuildID, result.SeasonID).
		OnConflictDoNothing("lobby_id").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert lobby result query: %w", err)
	}
	res, err := tx.ExecContext(ctx, markQuery, markArgs...)
	if err != nil {
		return false, fmt.Errorf("insert lobby result lobby=%s: %w", result.LobbyID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, fmt.Errorf("rows affected lobby result: %w", err)
	} else if n == 0 {
		return false, nil
	}

	for _, c := range result.Changes {
		wins, losses := winLoss(c.Won)
		query, args, err := qb.Update("users").
			SetExpr("rating", "rating + ?", c.Delta()).
			SetExpr("wins", "wins + ?", wins).
			SetExpr("losses", "losses + ?", losses).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("guild_id", result.GuildID), qb.Eq("id", c.UserID)).
			Suffix("RETURNING rating").
			ToSQL()
		if err != nil {
			return false, fmt.Errorf("build update user rating query: %w", err)
		}
		var rating int
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&rating); err != nil {
			if isNotFound(err) {
				return false, fmt.Errorf("update user rating user=%s: user not found", c.UserID)
			}
			return false, fmt.Errorf("update user rating user=%s: %w", c.UserID, err)
		}

		entryQuery, entryArgs, err := qb.InsertModel("leaderboard_entries", leaderboardEntryInsertModel{
			GuildID:  result.GuildID,
			SeasonID: result.SeasonID,
			UserID:   c.UserID,
			Rating:   rating,
			Wins:     wins,
			Losses:   losses,
		}, `ON CONFLICT (guild_id, season_id, user_id)
DO UPDATE SET
    rating = EXCLUDED.rating,
    wins = leaderboard_entries.wins + EXCLUDED.wins,
    losses = leaderboard_entries.losses + EXCLUDED.losses`)
		if err != nil {
			return false, fmt.Errorf("build upsert leaderboard entry query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, entryQuery, entryArgs...); err != nil {
			return false, fmt.Errorf("upsert leaderboard entry user=%s: %w", c.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit apply match result tx: %w", err)
	}
	return true, nil
}

func (r *UserRepository) ListStandings(ctx context.Context, guildID, seasonID string, limit int) ([]user.Standing, error) {
	builder := qb.Select("e.user_id", "u.account_id", "e.rating", "e.wins", "e.losses").
		From("leaderboard_entries e JOIN users u ON u.id = e.user_id").
		Where(qb.Eq("e.guild_id", guildID), qb.Eq("e.season_id", seasonID)).
		OrderBy("e.rating DESC", "e.wins DESC", "e.user_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var rows []standingRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}

	out := make([]user.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, user.Standing{
			UserID:    row.UserID,
			AccountID: row.AccountID,
			Rating:    row.Rating,
			Wins:      row.Wins,
			Losses:    row.Losses,
		})
	}
	return out, nil
}
