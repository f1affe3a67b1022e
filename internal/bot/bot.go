package bot

import (
	"context"
	"fmt"
	"time"

	"signalnet/internal/bot/handlers"
	"signalnet/internal/bot/middleware"
	"signalnet/internal/feed"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type Deps struct {
	Profiles    handlers.ProfileLinker
	Codes       handlers.LinkCodes
	Feed        handlers.FeedBuilder
	Signals     handlers.SignalLister
	RateCounter middleware.Counter
}

// Bot represents Telegram bot
type Bot struct {
	bot    *tele.Bot
	deps   Deps
	logger *zap.Logger
}

func New(token string, deps Deps, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		deps:   deps,
		logger: logger,
	}

	bot.setupMiddleware()

	bot.registerHandlers()

	logger.Info("bot initialized successfully")

	return bot, nil
}

func (b *Bot) setupMiddleware() {
	b.bot.Use(middleware.Recovery(b.logger))

	b.bot.Use(middleware.Logger(b.logger))

	if b.deps.RateCounter != nil {
		b.bot.Use(middleware.RateLimit(b.deps.RateCounter, b.logger))
	}
}

func (b *Bot) registerHandlers() {
	ctx := &handlers.Context{
		Profiles: b.deps.Profiles,
		Codes:    b.deps.Codes,
		Feed:     b.deps.Feed,
		Signals:  b.deps.Signals,
		Logger:   b.logger,
	}

	b.bot.Handle("/start", handlers.HandleStart(ctx))
	b.bot.Handle("/help", handlers.HandleHelp(ctx))
	b.bot.Handle("/feed", handlers.HandleFeed(ctx, feed.TypeSmart))
	b.bot.Handle("/connections", handlers.HandleFeed(ctx, feed.TypeConnections))
	b.bot.Handle("/signals", handlers.HandleSignals(ctx))

	b.bot.Handle(tele.OnText, handlers.HandleText(ctx))

	b.bot.Handle(tele.OnCallback, handlers.HandleCallback(ctx))

	b.logger.Info("handlers registered")
}

var commands = []tele.Command{
	{Text: "feed", Description: "Smart feed ranked by your signals"},
	{Text: "connections", Description: "Posts from your connections"},
	{Text: "signals", Description: "Your active signals"},
	{Text: "help", Description: "How to use the bot"},
}

// Start publishes the command menu and polls until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.bot.SetCommands(commands); err != nil {
		b.logger.Warn("failed to publish bot commands", zap.Error(err))
	}

	b.logger.Info("telegram polling started", zap.String("username", b.bot.Me.Username))

	go b.bot.Start()

	<-ctx.Done()

	b.bot.Stop()
	b.logger.Info("telegram polling stopped")

	return nil
}
