package handlers

import (
	"strings"

	"signalnet/internal/bot/utils"
	"signalnet/internal/feed"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// HandleCallback processes all callback queries from inline buttons
func HandleCallback(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			ctx.Logger.Warn("callback is nil")
			return nil
		}

		action, payload := parseCallback(cb)

		ctx.Logger.Debug("routing callback",
			zap.String("action", action),
			zap.String("payload", payload),
			zap.Int64("telegram_id", c.Sender().ID),
		)

		switch action {
		case utils.ActionFeed:
			feedType, err := feed.ParseType(payload)
			if err != nil {
				return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown feed"})
			}
			_ = c.Respond()
			return sendFeed(ctx, c, feedType)
		case utils.ActionSignals:
			_ = c.Respond()
			return sendSignals(ctx, c)
		default:
			ctx.Logger.Warn("unknown callback action",
				zap.String("action", action),
				zap.String("data", cb.Data),
			)
			return c.Respond(&tele.CallbackResponse{Text: "❓ Unknown action"})
		}
	}
}

// parseCallback splits "\funique|payload" inline button data.
func parseCallback(cb *tele.Callback) (action, payload string) {
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}

	data := strings.TrimPrefix(cb.Data, "\f")
	action, payload, _ = strings.Cut(data, "|")
	return action, payload
}
