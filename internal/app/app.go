package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/inhouse-league/internal/config"
	"github.com/riskibarqy/inhouse-league/internal/domain/bot"
	"github.com/riskibarqy/inhouse-league/internal/domain/league"
	"github.com/riskibarqy/inhouse-league/internal/domain/lobby"
	"github.com/riskibarqy/inhouse-league/internal/domain/reputation"
	"github.com/riskibarqy/inhouse-league/internal/domain/season"
	"github.com/riskibarqy/inhouse-league/internal/domain/user"
	"github.com/riskibarqy/inhouse-league/internal/infrastructure/notify"
	cacherepo "github.com/riskibarqy/inhouse-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/inhouse-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/inhouse-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/inhouse-league/internal/interfaces/discordbot"
	"github.com/riskibarqy/inhouse-league/internal/interfaces/httpapi"
	"github.com/riskibarqy/inhouse-league/internal/platform/cache"
	idgen "github.com/riskibarqy/inhouse-league/internal/platform/id"
	"github.com/riskibarqy/inhouse-league/internal/platform/logging"
	"github.com/riskibarqy/inhouse-league/internal/platform/resilience"
	"github.com/riskibarqy/inhouse-league/internal/usecase"
)

type repositories struct {
	leagues    league.Repository
	seasons    season.Repository
	users      user.Repository
	lobbies    lobby.Repository
	bots       bot.Repository
	reputation reputation.Repository
	db         *sqlx.DB
}

// App holds the wired service: HTTP server, lobby orchestrator, event sinks
// and the optional Discord bot.
type App struct {
	Server       *http.Server
	Orchestrator *usecase.Orchestrator
	Discord      *discordbot.Bot

	sinks  []*notify.AsyncSink
	db     *sqlx.DB
	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, err := newRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{db: repos.db, logger: logger}
	ids := idgen.NewUUIDGenerator()

	leagueService := usecase.NewLeagueService(repos.leagues, repos.seasons, ids)
	seasonService := usecase.NewSeasonService(leagueService, repos.leagues, repos.seasons, ids)
	reputationService := usecase.NewReputationService(leagueService, repos.users, repos.reputation, ids)
	leaderboardService := usecase.NewLeaderboardService(leagueService, repos.users, cache.NewStore(cfg.CacheTTL))

	broadcaster := notify.NewBroadcaster(cfg.EventSubscriberBuffer)
	sinks := []notify.Sink{broadcaster}

	if cfg.WebhookEnabled {
		webhook, err := notify.NewWebhookPublisher(notify.WebhookConfig{
			URL:     cfg.WebhookURL,
			Token:   cfg.WebhookToken,
			Timeout: cfg.WebhookTimeout,
			Retry: resilience.RetryPolicy{
				Attempts:    cfg.WebhookRetries + 1,
				BaseBackoff: cfg.PersistBaseBackoff,
				MaxBackoff:  cfg.PersistMaxBackoff,
			},
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.WebhookCircuitEnabled,
				FailureThreshold: cfg.WebhookCircuitFailureCount,
				OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenReq,
			},
		}, logger)
		if err != nil {
			a.closeDB()
			return nil, fmt.Errorf("build webhook publisher: %w", err)
		}
		sink, err := a.asyncSink(cfg, "webhook", webhook)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	var session *discordgo.Session
	if cfg.DiscordEnabled {
		session, err = discordbot.NewSession(cfg.DiscordToken)
		if err != nil {
			a.closeSinks(context.Background())
			a.closeDB()
			return nil, err
		}
		notifier := discordbot.NewNotifier(session, leagueService, logger)
		sink, err := a.asyncSink(cfg, "discord", notifier)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	a.Orchestrator = usecase.NewOrchestrator(
		leagueService,
		repos.users,
		repos.lobbies,
		repos.bots,
		notify.NewFanout(logger, sinks...),
		ids,
		usecase.OrchestratorConfig{
			TickInterval: cfg.TickInterval,
			SweepWorkers: cfg.SweepWorkers,
			Persist: resilience.RetryPolicy{
				Attempts:    cfg.PersistAttempts,
				BaseBackoff: cfg.PersistBaseBackoff,
				MaxBackoff:  cfg.PersistMaxBackoff,
			},
		},
		logger,
	)
	a.Orchestrator.OnMatchFinalized(leaderboardService.OnMatchFinalized)
	if session != nil {
		commands := discordbot.NewCommands(a.Orchestrator, leagueService, reputationService, leaderboardService, logger)
		a.Discord = discordbot.New(session, discordbot.Config{GuildID: cfg.DiscordGuildID}, commands, logger)
	}

	handler := httpapi.NewHandler(
		a.Orchestrator,
		leagueService,
		seasonService,
		reputationService,
		leaderboardService,
		broadcaster,
		logger,
	).WithEventOrigins(cfg.CORSAllowedOrigins)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.ServiceToken)

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) asyncSink(cfg config.Config, name string, next notify.Deliverer) (*notify.AsyncSink, error) {
	sink, err := notify.NewAsyncSink(notify.AsyncSinkConfig{
		Name:           name,
		Workers:        cfg.EventDeliveryWorkers,
		DeliverTimeout: cfg.EventDeliveryTimeout,
	}, next, a.logger)
	if err != nil {
		a.closeSinks(context.Background())
		a.closeDB()
		return nil, fmt.Errorf("build %s sink: %w", name, err)
	}
	a.sinks = append(a.sinks, sink)
	return sink, nil
}

// Close drains pending event deliveries and releases the database pool.
func (a *App) Close(ctx context.Context) error {
	err := a.closeSinks(ctx)
	if a.Discord != nil {
		if stopErr := a.Discord.Stop(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("stop discord bot: %w", stopErr))
		}
	}
	if dbErr := a.closeDB(); dbErr != nil {
		err = errors.Join(err, dbErr)
	}
	return err
}

func (a *App) closeSinks(ctx context.Context) error {
	var err error
	for _, sink := range a.sinks {
		if closeErr := sink.Close(ctx); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}
	a.sinks = nil
	return err
}

func (a *App) closeDB() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

func newRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	var repos repositories

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDB(cfg)
		if err != nil {
			return repositories{}, err
		}
		repos = repositories{
			leagues:    postgres.NewLeagueRepository(db),
			seasons:    postgres.NewSeasonRepository(db),
			users:      postgres.NewUserRepository(db),
			lobbies:    postgres.NewLobbyRepository(db),
			bots:       postgres.NewBotRepository(db),
			reputation: postgres.NewReputationRepository(db),
			db:         db,
		}
	default:
		repos = repositories{
			leagues:    memory.NewLeagueRepository(),
			seasons:    memory.NewSeasonRepository(),
			users:      memory.NewUserRepository(),
			lobbies:    memory.NewLobbyRepository(),
			bots:       memory.NewBotRepository(),
			reputation: memory.NewReputationRepository(),
		}
	}
	logger.Info("storage ready", "driver", cfg.StorageDriver, "cache_enabled", cfg.CacheEnabled)

	if cfg.CacheEnabled {
		store := cache.NewStore(cfg.CacheTTL)
		repos.leagues = cacherepo.NewLeagueRepository(repos.leagues, store)
		repos.seasons = cacherepo.NewSeasonRepository(repos.seasons, store)
	}
	return repos, nil
}
