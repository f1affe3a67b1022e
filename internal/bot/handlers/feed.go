package handlers

import (
	"time"

	"signalnet/internal/bot/utils"
	"signalnet/internal/feed"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// feedPreviewSize is how many entries a chat reply shows.
const feedPreviewSize = 10

var feedTitles = map[feed.Type]string{
	feed.TypeSmart:       "✨ For you",
	feed.TypeConnections: "🤝 From your connections",
	feed.TypeOwn:         "📝 Your posts",
}

// /feed and /connections
func HandleFeed(ctx *Context, feedType feed.Type) tele.HandlerFunc {
	return func(c tele.Context) error {
		return sendFeed(ctx, c, feedType)
	}
}

func sendFeed(ctx *Context, c tele.Context, feedType feed.Type) error {
	opCtx, cancel := ctx.opContext()
	defer cancel()

	profile, err := ctx.viewer(opCtx, c)
	if err != nil {
		ctx.Logger.Error("get linked profile failed", zap.Error(err))
		return c.Send(errorMessage)
	}
	if profile == nil {
		return c.Send(utils.FormatNotLinkedMessage(), tele.ModeMarkdownV2)
	}

	entries, err := ctx.Feed.Build(opCtx, feed.Request{ViewerID: profile.ID, Type: feedType})
	if err != nil {
		ctx.Logger.Error("build feed failed",
			zap.String("user_id", profile.ID),
			zap.String("feed_type", string(feedType)),
			zap.Error(err),
		)
		return c.Send(errorMessage)
	}

	return c.Send(
		utils.FormatFeed(feedTitles[feedType], entries, feedPreviewSize),
		utils.FeedSwitchKeyboard(),
		tele.ModeMarkdownV2,
	)
}

// /signals
func HandleSignals(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		return sendSignals(ctx, c)
	}
}

func sendSignals(ctx *Context, c tele.Context) error {
	opCtx, cancel := ctx.opContext()
	defer cancel()

	profile, err := ctx.viewer(opCtx, c)
	if err != nil {
		ctx.Logger.Error("get linked profile failed", zap.Error(err))
		return c.Send(errorMessage)
	}
	if profile == nil {
		return c.Send(utils.FormatNotLinkedMessage(), tele.ModeMarkdownV2)
	}

	signals, err := ctx.Signals.Active(opCtx, profile.ID)
	if err != nil {
		ctx.Logger.Error("list signals failed", zap.String("user_id", profile.ID), zap.Error(err))
		return c.Send(errorMessage)
	}

	return c.Send(utils.FormatSignals(signals, time.Now()), tele.ModeMarkdownV2)
}

// HandleText maps the reply keyboard buttons to commands.
func HandleText(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		switch c.Text() {
		case "📰 Feed":
			return sendFeed(ctx, c, feed.TypeSmart)
		case "🤝 Connections":
			return sendFeed(ctx, c, feed.TypeConnections)
		case "📡 Signals":
			return sendSignals(ctx, c)
		case "❓ Help":
			return HandleHelp(ctx)(c)
		default:
			return c.Send("Use /help to see what I can do.")
		}
	}
}
