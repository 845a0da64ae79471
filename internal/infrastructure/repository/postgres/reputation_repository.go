package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/inhouse-league/internal/domain/reputation"
	qb "github.com/riskibarqy/inhouse-league/internal/platform/querybuilder"
)

type reputationInsertModel struct {
	ID          string `db:"id"`
	GuildID     string `db:"guild_id"`
	SeasonID    string `db:"season_id"`
	GiverID     string `db:"giver_id"`
	RecipientID string `db:"recipient_id"`
}

type reputationCountModel struct {
	SeasonID string `db:"season_id"`
	Count    int    `db:"count"`
}

type ReputationRepository struct {
	db *sqlx.DB
}

func NewReputationRepository(db *sqlx.DB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

func (r *ReputationRepository) Append(ctx context.Context, rep reputation.Reputation) error {
	query, args, err := qb.InsertModel("reputations", reputationInsertModel{
		ID:          rep.ID,
		GuildID:     rep.GuildID,
		SeasonID:    rep.SeasonID,
		GiverID:     rep.GiverID,
		RecipientID: rep.RecipientID,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert reputation query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reputation id=%s: %w", rep.ID, err)
	}
	return nil
}

func (r *ReputationRepository) CountByRecipient(ctx context.Context, guildID, recipientID, seasonID string) (reputation.Summary, error) {
	query, args, err := qb.Select("season_id", "COUNT(*) AS count").From("reputations").
		Where(qb.Eq("guild_id", guildID), qb.Eq("recipient_id", recipientID)).
		GroupBy("season_id").
		ToSQL()
	if err != nil {
		return reputation.Summary{}, fmt.Errorf("build count reputation query: %w", err)
	}

	var rows []reputationCountModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return reputation.Summary{}, fmt.Errorf("count reputation recipient=%s: %w", recipientID, err)
	}

	sum := reputation.Summary{RecipientID: recipientID}
	for _, row := range rows {
		sum.TotalCount += row.Count
		if row.SeasonID == seasonID {
			sum.SeasonCount = row.Count
		}
	}
	return sum, nil
}
