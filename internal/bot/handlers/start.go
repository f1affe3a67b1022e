package handlers

import (
	"strings"

	"signalnet/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /start [code]
func HandleStart(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		telegramID := c.Sender().ID

		opCtx, cancel := ctx.opContext()
		defer cancel()

		args := c.Args()
		if len(args) == 0 {
			profile, err := ctx.Profiles.GetProfileByTelegramID(opCtx, telegramID)
			if err != nil {
				ctx.Logger.Error("get linked profile failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
				return c.Send(errorMessage)
			}
			if profile == nil {
				return c.Send(utils.FormatLinkInstructions(), tele.ModeMarkdownV2)
			}
			return c.Send(
				utils.FormatWelcomeMessage(displayName(profile)),
				utils.MainMenuKeyboard(),
				tele.ModeMarkdownV2,
			)
		}

		code := strings.TrimSpace(args[0])
		userID, err := ctx.Codes.ConsumeLinkCode(opCtx, code)
		if err != nil {
			ctx.Logger.Error("consume link code failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
			return c.Send(errorMessage)
		}
		if userID == "" {
			ctx.Logger.Info("invalid link code", zap.Int64("telegram_id", telegramID))
			return c.Send("⚠️ This code is invalid or has expired. Request a new one in the app.")
		}

		if err := ctx.Profiles.LinkTelegram(opCtx, userID, telegramID); err != nil {
			ctx.Logger.Error("link telegram failed",
				zap.String("user_id", userID),
				zap.Int64("telegram_id", telegramID),
				zap.Error(err),
			)
			return c.Send(errorMessage)
		}

		profile, err := ctx.Profiles.GetProfileByTelegramID(opCtx, telegramID)
		if err != nil {
			ctx.Logger.Warn("reload linked profile failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
		}

		return c.Send(
			utils.FormatWelcomeMessage(displayName(profile)),
			utils.MainMenuKeyboard(),
			tele.ModeMarkdownV2,
		)
	}
}
