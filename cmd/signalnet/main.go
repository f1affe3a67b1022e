package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"signalnet/internal/api/geocoder"
	"signalnet/internal/auth"
	"signalnet/internal/bot"
	"signalnet/internal/config"
	"signalnet/internal/connections"
	"signalnet/internal/feed"
	"signalnet/internal/logger"
	"signalnet/internal/messages"
	"signalnet/internal/metrics"
	"signalnet/internal/posts"
	"signalnet/internal/profiles"
	"signalnet/internal/scheduler"
	"signalnet/internal/server"
	"signalnet/internal/server/handlers"
	"signalnet/internal/signals"
	"signalnet/internal/storage/postgres"
	"signalnet/internal/storage/redis"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting signalnet",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("telegram", cfg.TelegramEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to PostgreSQL...")
	store, err := postgres.New(cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal("failed to apply schema", zap.Error(err))
	}

	log.Info("connecting to Redis...")
	cache, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer cache.Close()

	collector := metrics.New("signalnet")

	catalog := signals.NewCatalog(store, cache, collector, log)
	if err := catalog.Refresh(ctx); err != nil {
		log.Warn("initial catalog refresh failed", zap.Error(err))
	}

	signalService := signals.NewService(catalog, store, signals.DefaultConstraints(), collector, log)
	feedBuilder := feed.NewBuilder(store, collector, log,
		feed.WithCandidateLimit(cfg.FeedCandidateLimit),
		feed.WithPageSize(cfg.FeedPageSize),
	)
	postService := posts.NewService(store, catalog, log)
	connectionService := connections.NewService(store, log)
	messageService := messages.NewService(store, log)
	geo := geocoder.New(cfg.GeocoderBaseURL, cfg.GeocoderTimeout, log)
	profileService := profiles.NewService(store, geo, cache, collector, log)

	tokens, err := auth.NewValidator(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.Fatal("failed to create token validator", zap.Error(err))
	}

	runner := scheduler.NewRunner(ctx, log)
	if _, err := runner.Add(cfg.CatalogRefreshSpec, scheduler.NewCatalogJob(catalog, log).Run); err != nil {
		log.Fatal("failed to schedule catalog refresh", zap.String("spec", cfg.CatalogRefreshSpec), zap.Error(err))
	}
	runner.Start()
	defer runner.Stop()

	router := server.NewRouter(server.Deps{
		Feed:        feedBuilder,
		Catalog:     catalog,
		Signals:     signalService,
		Posts:       postService,
		Connections: connectionService,
		Messages:    messageService,
		Profiles:    profileService,
		LinkCodes:   cache,
		Tokens:      tokens,
		RateCounter: cache,
		Health: map[string]handlers.Pinger{
			"postgres": store,
			"redis":    cache,
		},
		Metrics: collector,
	}, server.RouterOptions{
		CORSOrigins:     cfg.CORSOrigins,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
		LinkCodeTTL:     redis.TelegramLinkCodeTTL,
	}, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.New(cfg.HTTPAddr, router, log).Run(gctx)
	})

	if cfg.TelegramEnabled() {
		tgBot, err := bot.New(cfg.TelegramToken, bot.Deps{
			Profiles:    store,
			Codes:       cache,
			Feed:        feedBuilder,
			Signals:     signalService,
			RateCounter: cache,
		}, log)
		if err != nil {
			log.Fatal("failed to create bot", zap.Error(err))
		}
		g.Go(func() error {
			return tgBot.Start(gctx)
		})
	}

	log.Info("signalnet is running")

	if err := g.Wait(); err != nil {
		log.Error("stopped with error", zap.Error(err))
	}

	log.Info("shutdown complete")
}
