package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	qb "github.com/riskibarqy/inhouse-league/internal/platform/querybuilder"
)

var terminalLobbyStates = []string{string(lobby.StateCompleted), string(lobby.StateCancelled)}

type LobbyRepository struct {
	db *sqlx.DB
}

func NewLobbyRepository(db *sqlx.DB) *LobbyRepository {
	return &LobbyRepository{db: db}
}

func (r *LobbyRepository) Save(ctx context.Context, l lobby.Lobby) error {
	row, err := lobbyToRow(l)
	if err != nil {
		return err
	}

	query, args, err := qb.UpsertModel("lobbies", row, "id")
	if err != nil {
		return fmt.Errorf("build upsert lobby query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert lobby id=%s state=%s: %w", l.ID, l.State, err)
	}
	return nil
}

func (r *LobbyRepository) GetByID(ctx context.Context, guildID, lobbyID string) (lobby.Lobby, bool, error) {
	query, args, err := qb.Select("*").From("lobbies").
		Where(qb.Eq("guild_id", guildID), qb.Eq("id", lobbyID)).
		ToSQL()
	if err != nil {
		return lobby.Lobby{}, false, fmt.Errorf("build get lobby query: %w", err)
	}

	var row lobbyTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return lobby.Lobby{}, false, nil
		}
		return lobby.Lobby{}, false, fmt.Errorf("get lobby: %w", err)
	}

	l, err := lobbyFromRow(row)
	if err != nil {
		return lobby.Lobby{}, false, err
	}
	return l, true, nil
}

func (r *LobbyRepository) ListActive(ctx context.Context) ([]lobby.Lobby, error) {
	query, args, err := qb.Select("*").From("lobbies").
		Where(qb.Expr("NOT (state = ANY(?))", pq.Array(terminalLobbyStates))).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active lobbies query: %w", err)
	}
	return r.selectLobbies(ctx, "list active lobbies", query, args)
}

func (r *LobbyRepository) ListByGuild(ctx context.Context, guildID string, limit int) ([]lobby.Lobby, error) {
	builder := qb.Select("*").From("lobbies").
		Where(qb.Eq("guild_id", guildID)).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list lobbies by guild query: %w", err)
	}
	return r.selectLobbies(ctx, "list lobbies by guild", query, args)
}

func (r *LobbyRepository) selectLobbies(ctx context.Context, what, query string, args []any) ([]lobby.Lobby, error) {
	var rows []lobbyTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	out := make([]lobby.Lobby, 0, len(rows))
	for _, row := range rows {
		l, err := lobbyFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
