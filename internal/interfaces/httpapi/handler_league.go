package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.GetLeague")
	defer span.End()

	item, err := h.leagueService.Ensure(ctx, guildIDFromPath(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "get league failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(item))
}

func (h *Handler) UpdateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.UpdateLeague")
	defer span.End()

	var req updateLeagueRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.leagueService.Update(ctx, req.toInput(guildIDFromPath(r)))
	if err != nil {
		h.logger.WarnContext(ctx, "update league failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(item))
}

func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.ListSeasons")
	defer span.End()

	seasons, err := h.seasonService.List(ctx, guildIDFromPath(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "list seasons failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]seasonDTO, 0, len(seasons))
	for _, s := range seasons {
		items = append(items, seasonToDTO(s))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) StartSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.StartSeason")
	defer span.End()

	var req startSeasonRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.seasonService.StartSeason(ctx, guildIDFromPath(r), req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "start season failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.leaderboardService.Invalidate(ctx, guildIDFromPath(r))
	writeSuccess(ctx, w, http.StatusCreated, seasonToDTO(item))
}

func (h *Handler) GiveReputation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.GiveReputation")
	defer span.End()

	var req giveReputationRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.reputationService.Give(ctx, usecase.GiveReputationInput{
		GuildID:            guildIDFromPath(r),
		GiverAccountID:     req.GiverAccountID,
		RecipientAccountID: req.RecipientAccountID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "give reputation failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, reputationToDTO(summary))
}

func (h *Handler) GetReputation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.GetReputation")
	defer span.End()

	summary, err := h.reputationService.Summary(ctx, guildIDFromPath(r), strings.TrimSpace(r.PathValue("accountID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reputationToDTO(summary))
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.Leaderboard")
	defer span.End()

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.leaderboardService.Standings(ctx, guildIDFromPath(r), r.URL.Query().Get("season_id"), limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "leaderboard failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(rows))
}
