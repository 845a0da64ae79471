package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/inhouse-league/internal/infrastructure/notify"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

type Handler struct {
	orchestrator       *usecase.Orchestrator
	leagueService      *usecase.LeagueService
	seasonService      *usecase.SeasonService
	reputationService  *usecase.ReputationService
	leaderboardService *usecase.LeaderboardService
	events             *notify.Broadcaster
	eventOrigins       []string
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	orchestrator *usecase.Orchestrator,
	leagueService *usecase.LeagueService,
	seasonService *usecase.SeasonService,
	reputationService *usecase.ReputationService,
	leaderboardService *usecase.LeaderboardService,
	events *notify.Broadcaster,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		orchestrator:       orchestrator,
		leagueService:      leagueService,
		seasonService:      seasonService,
		reputationService:  reputationService,
		leaderboardService: leaderboardService,
		events:             events,
		logger:             logger.Named("httpapi"),
		validator:          validator.New(),
	}
}

// WithEventOrigins sets the cross-origin hosts allowed to open event streams.
func (h *Handler) WithEventOrigins(patterns []string) *Handler {
	h.eventOrigins = patterns
	return h
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRequestSpan(r, "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a strict JSON body into req and validates it.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, req any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(req); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, req)
}

func guildIDFromPath(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("guildID"))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: query %s must be an integer", usecase.ErrInvalidInput, key)
	}
	return v, nil
}
