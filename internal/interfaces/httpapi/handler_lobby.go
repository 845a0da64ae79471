package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

func (h *Handler) ListActiveLobbies(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.ListActiveLobbies")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, lobbiesToDTO(h.orchestrator.ActiveLobbies(guildIDFromPath(r))))
}

func (h *Handler) LobbyHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.LobbyHistory")
	defer span.End()

	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	items, err := h.orchestrator.LobbyHistory(ctx, guildIDFromPath(r), limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "lobby history failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbiesToDTO(items))
}

func (h *Handler) GetLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.GetLobby")
	defer span.End()

	item, err := h.orchestrator.Lobby(ctx, guildIDFromPath(r), strings.TrimSpace(r.PathValue("lobbyID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyToDTO(item))
}

func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.StartMatch")
	defer span.End()

	var req startMatchRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	lobbyID := strings.TrimSpace(r.PathValue("lobbyID"))
	item, err := h.orchestrator.StartMatch(ctx, guildIDFromPath(r), lobbyID, req.BotID)
	if err != nil {
		h.logger.WarnContext(ctx, "start match failed", "guild_id", guildIDFromPath(r), "lobby_id", lobbyID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyToDTO(item))
}

func (h *Handler) ReportResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.ReportResult")
	defer span.End()

	var req reportResultRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	lobbyID := strings.TrimSpace(r.PathValue("lobbyID"))
	outcome, err := h.orchestrator.ReportResult(ctx, guildIDFromPath(r), lobbyID, lobby.Faction(req.Winner))
	if err != nil {
		if errors.Is(err, usecase.ErrPersistenceFailure) {
			h.logger.ErrorContext(ctx, "match result parked for reconciliation", "guild_id", guildIDFromPath(r), "lobby_id", lobbyID, "error", err)
		} else {
			h.logger.WarnContext(ctx, "report result failed", "guild_id", guildIDFromPath(r), "lobby_id", lobbyID, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchOutcomeDTO{
		Lobby:   lobbyToDTO(outcome.Lobby),
		Changes: ratingChangesToDTO(outcome.Changes),
	})
}

func (h *Handler) AbortLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.AbortLobby")
	defer span.End()

	lobbyID := strings.TrimSpace(r.PathValue("lobbyID"))
	item, err := h.orchestrator.AbortLobby(ctx, guildIDFromPath(r), lobbyID)
	if err != nil {
		h.logger.WarnContext(ctx, "abort lobby failed", "guild_id", guildIDFromPath(r), "lobby_id", lobbyID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyToDTO(item))
}

func (h *Handler) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.ListReconciliations")
	defer span.End()

	pending := h.orchestrator.PendingReconciliations(guildIDFromPath(r))
	items := make([]pendingResultDTO, 0, len(pending))
	for _, p := range pending {
		items = append(items, pendingResultToDTO(p))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RetryReconciliation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.RetryReconciliation")
	defer span.End()

	lobbyID := strings.TrimSpace(r.PathValue("lobbyID"))
	if err := h.orchestrator.RetryReconciliation(ctx, guildIDFromPath(r), lobbyID); err != nil {
		h.logger.WarnContext(ctx, "reconciliation retry failed", "guild_id", guildIDFromPath(r), "lobby_id", lobbyID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"lobby_id": lobbyID, "status": "applied"})
}
