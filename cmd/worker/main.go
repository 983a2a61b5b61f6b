package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/scrimsync/scrimsync/internal/app"
	"github.com/scrimsync/scrimsync/internal/audit"
	"github.com/scrimsync/scrimsync/internal/discord"
	"github.com/scrimsync/scrimsync/internal/guilds"
	"github.com/scrimsync/scrimsync/internal/platform/cache"
	"github.com/scrimsync/scrimsync/internal/platform/db"
	"github.com/scrimsync/scrimsync/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	discordClient := discord.NewClient(discord.ClientConfig{
		BaseURL:        cfg.DiscordAPIBase,
		BotToken:       cfg.DiscordBotToken,
		RequestTimeout: cfg.DiscordRequestTimeout,
		MaxRetries:     cfg.DiscordMaxRetries,
		Logger:         logger,
	})
	entityCache := discord.NewEntityCache(discordClient, redisClient, cfg.EntityCacheTTL, logger)
	guildStore := guilds.NewStore(pool)
	auditService := audit.NewService(pool)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskMembershipSync, Handler: jobs.NewMembershipSyncHandler(discordClient, guildStore, logger)},
			{Type: jobs.TaskAuditRetention, Handler: jobs.NewAuditRetentionHandler(auditService, cfg.AuditRetention, logger)},
			{Type: jobs.TaskCacheWarm, Handler: jobs.NewCacheWarmHandler(guildStore, entityCache, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: mustMembershipSyncTask()},
			{Spec: "0 4 * * *", Task: jobs.NewAuditRetentionTask()},
			{Spec: "*/5 * * * *", Task: jobs.NewCacheWarmTask()},
		},
	})
	if err != nil {
		logger.Error("configure worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func mustMembershipSyncTask() *asynq.Task {
	task, err := jobs.NewMembershipSyncTask(jobs.MembershipSyncPayload{})
	if err != nil {
		panic(err)
	}
	return task
}
