package httpapi

import (
	"net/http"

	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.GetQueue")
	defer span.End()

	entries := h.orchestrator.QueueSnapshot(guildIDFromPath(r))
	items := make([]queueEntryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, queueEntryToDTO(e))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.JoinQueue")
	defer span.End()

	var req joinQueueRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.orchestrator.JoinQueue(ctx, usecase.JoinQueueInput{
		GuildID:   guildIDFromPath(r),
		AccountID: req.AccountID,
		RoleNames: req.RoleNames,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "join queue failed", "guild_id", guildIDFromPath(r), "account_id", req.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, joinQueueDTO{
		Position: result.Position,
		QueueLen: result.QueueLen,
		Formed:   lobbiesToDTO(result.Formed),
	})
}

func (h *Handler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.LeaveQueue")
	defer span.End()

	var req accountRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	left, err := h.orchestrator.LeaveQueue(ctx, guildIDFromPath(r), req.AccountID)
	if err != nil {
		h.logger.WarnContext(ctx, "leave queue failed", "guild_id", guildIDFromPath(r), "account_id", req.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"left": left})
}

func (h *Handler) BanFromQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.BanFromQueue")
	defer span.End()

	var req banRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.orchestrator.BanQueueAndKick(ctx, usecase.BanInput{
		GuildID:   guildIDFromPath(r),
		AccountID: req.AccountID,
		Minutes:   req.Minutes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "queue ban failed", "guild_id", guildIDFromPath(r), "account_id", req.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, banDTO{
		Evicted:          result.Evicted,
		ExpiresAt:        result.ExpiresAt,
		CancelledLobbyID: result.CancelledLobbyID,
	})
}

func (h *Handler) ConfirmReady(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.ConfirmReady")
	defer span.End()

	var req accountRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.orchestrator.ConfirmReady(ctx, guildIDFromPath(r), req.AccountID)
	if err != nil {
		h.logger.WarnContext(ctx, "confirm ready failed", "guild_id", guildIDFromPath(r), "account_id", req.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyToDTO(item))
}

func (h *Handler) PickPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.PickPlayer")
	defer span.End()

	var req pickRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.orchestrator.PickPlayer(ctx, usecase.PickInput{
		GuildID:          guildIDFromPath(r),
		CaptainAccountID: req.CaptainAccountID,
		PickAccountID:    req.PickAccountID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "pick failed", "guild_id", guildIDFromPath(r), "captain", req.CaptainAccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyToDTO(item))
}
