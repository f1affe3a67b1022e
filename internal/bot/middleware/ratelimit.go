package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	MaxRequestsPerMinute = 30
)

// Counter counts hits per subject within a fixed window.
type Counter interface {
	IncrementRateLimit(ctx context.Context, subject string) (int64, error)
}

// RateLimit throttles chats per Telegram user. Counter failures let the
// update through.
func RateLimit(counter Counter, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			count, err := counter.IncrementRateLimit(ctx, "tg:"+strconv.FormatInt(user.ID, 10))
			if err != nil {
				logger.Error("failed to check rate limit",
					zap.Int64("telegram_id", user.ID),
					zap.Error(err),
				)
				return next(c)
			}

			if count > MaxRequestsPerMinute {
				logger.Warn("rate limit exceeded",
					zap.Int64("telegram_id", user.ID),
					zap.Int64("count", count),
				)

				return c.Reply(fmt.Sprintf(
					"⚠️ Too many requests. Please wait a minute.\n"+
						"Limit: %d requests per minute.",
					MaxRequestsPerMinute,
				))
			}

			return next(c)
		}
	}
}
