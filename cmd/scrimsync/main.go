package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/scrimsync/scrimsync/internal/app"
	"github.com/scrimsync/scrimsync/internal/audit"
	audithttp "github.com/scrimsync/scrimsync/internal/audit/http"
	"github.com/scrimsync/scrimsync/internal/auth"
	"github.com/scrimsync/scrimsync/internal/authz"
	"github.com/scrimsync/scrimsync/internal/discord"
	"github.com/scrimsync/scrimsync/internal/guilds"
	guildshttp "github.com/scrimsync/scrimsync/internal/guilds/http"
	"github.com/scrimsync/scrimsync/internal/leagues"
	"github.com/scrimsync/scrimsync/internal/observability"
	"github.com/scrimsync/scrimsync/internal/platform/cache"
	"github.com/scrimsync/scrimsync/internal/platform/db"
	"github.com/scrimsync/scrimsync/internal/players"
	"github.com/scrimsync/scrimsync/internal/tokens"
	"github.com/scrimsync/scrimsync/internal/tournaments"
	"github.com/scrimsync/scrimsync/internal/trackers"
	"github.com/scrimsync/scrimsync/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	metrics := observability.NewMetrics()

	discordClient := discord.NewClient(discord.ClientConfig{
		BaseURL:        cfg.DiscordAPIBase,
		BotToken:       cfg.DiscordBotToken,
		RequestTimeout: cfg.DiscordRequestTimeout,
		MaxRetries:     cfg.DiscordMaxRetries,
		Logger:         logger,
	})
	entityCache := discord.NewEntityCache(discordClient, redisClient, cfg.EntityCacheTTL, logger)
	entityCache.Observe(
		func(kind discord.EntityKind) { metrics.ObserveCacheLookup(string(kind), "hit") },
		func(kind discord.EntityKind) { metrics.ObserveCacheLookup(string(kind), "miss") },
	)

	guildStore := guilds.NewStore(pool)
	tokenStore := tokens.NewStore(pool)
	recorder := audit.NewRecorder(pool, logger, 5*time.Second)
	defer recorder.Drain()

	engine := authz.NewEngine(authz.EngineConfig{
		Tokens:        tokenStore,
		Remote:        discordClient,
		Entities:      entityCache,
		Settings:      guildStore,
		Sink:          recorder,
		Logger:        logger,
		Observer:      metrics,
		DecideTimeout: cfg.DecideTimeout,
	})
	guard := authz.Middleware{Engine: engine, Logger: logger}

	sessions := auth.NewSessions(redisClient, cfg.SessionTTL)
	authMW := auth.Middleware{
		Sessions:       sessions,
		ServiceKeyHash: []byte(cfg.ServiceKeyHash),
		Logger:         logger,
	}

	sessionsHandler := auth.NewHandler(logger, sessions, tokenStore)
	auditService := audit.NewService(pool)
	leagueHandler := leagues.NewHandler(logger, leagues.NewService(leagues.NewRepository(pool)), guard, recorder)
	playerHandler := players.NewHandler(logger, players.NewService(players.NewRepository(pool)), guard)
	trackerHandler := trackers.NewHandler(logger, trackers.NewService(trackers.NewRepository(pool)), guard)
	tournamentHandler := tournaments.NewHandler(logger, tournaments.NewService(tournaments.NewRepository(pool)), guard, recorder)
	guildHandler := guildshttp.NewHandler(logger, guildStore, entityCache, guard, recorder)
	auditHandler := audithttp.NewHandler(logger, auditService, guard)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	jobsClient := jobs.NewClient(redisOpts)
	defer func() { _ = jobsClient.Close() }()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Auth:               authMW,
		SessionsHandler:    sessionsHandler,
		GuildsHandler:      guildHandler,
		LeaguesHandler:     leagueHandler,
		PlayersHandler:     playerHandler,
		TrackersHandler:    trackerHandler,
		TournamentsHandler: tournamentHandler,
		AuditHandler:       auditHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
