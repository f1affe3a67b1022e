package middleware

import (
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Logger middleware for logging all incoming updates
func Logger(logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()

			var telegramID int64
			if user := c.Sender(); user != nil {
				telegramID = user.ID
			}

			kind, payload := "update", ""
			if msg := c.Message(); msg != nil {
				kind, payload = "message", msg.Text
			}
			if cb := c.Callback(); cb != nil {
				kind, payload = "callback", cb.Data
			}

			err := next(c)

			fields := []zap.Field{
				zap.Int64("telegram_id", telegramID),
				zap.String("type", kind),
				zap.String("text", payload),
				zap.Duration("duration", time.Since(start)),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				logger.Error("handler error", fields...)
			} else {
				logger.Info("update handled", fields...)
			}

			return err
		}
	}
}
