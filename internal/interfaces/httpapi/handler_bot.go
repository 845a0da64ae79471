package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

func (h *Handler) ListBots(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.ListBots")
	defer span.End()

	bots, err := h.orchestrator.Bots(ctx, guildIDFromPath(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "list bots failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]botDTO, 0, len(bots))
	for _, b := range bots {
		items = append(items, botToDTO(b))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RegisterBot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.RegisterBot")
	defer span.End()

	var req registerBotRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.orchestrator.RegisterBot(ctx, usecase.RegisterBotInput{
		GuildID: guildIDFromPath(r),
		BotID:   req.BotID,
		Name:    req.Name,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register bot failed", "guild_id", guildIDFromPath(r), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, botToDTO(item))
}

func (h *Handler) ReportBotFailure(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.ReportBotFailure")
	defer span.End()

	botID := strings.TrimSpace(r.PathValue("botID"))
	result, err := h.orchestrator.ReportBotFailure(ctx, guildIDFromPath(r), botID)
	if err != nil {
		h.logger.WarnContext(ctx, "bot failure report failed", "guild_id", guildIDFromPath(r), "bot_id", botID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := botFailureDTO{Bot: botToDTO(result.Bot)}
	if result.Lobby != nil {
		item := lobbyToDTO(*result.Lobby)
		out.Lobby = &item
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) RestoreBot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.RestoreBot")
	defer span.End()

	botID := strings.TrimSpace(r.PathValue("botID"))
	item, err := h.orchestrator.RestoreBot(ctx, guildIDFromPath(r), botID)
	if err != nil {
		h.logger.WarnContext(ctx, "restore bot failed", "guild_id", guildIDFromPath(r), "bot_id", botID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, botToDTO(item))
}
