package handlers

import (
	"context"
	"time"

	"signalnet/internal/feed"
	"signalnet/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type ProfileLinker interface {
	GetProfileByTelegramID(ctx context.Context, telegramID int64) (*models.Profile, error)
	LinkTelegram(ctx context.Context, userID string, telegramID int64) error
}

// LinkCodes resolves one-time link codes. Unknown codes yield "", nil.
type LinkCodes interface {
	ConsumeLinkCode(ctx context.Context, code string) (string, error)
}

type FeedBuilder interface {
	Build(ctx context.Context, req feed.Request) ([]models.ScoredPost, error)
}

type SignalLister interface {
	Active(ctx context.Context, userID string) ([]models.UserSignalWithCategory, error)
}

// Context contains deps for all handlers
type Context struct {
	Profiles ProfileLinker
	Codes    LinkCodes
	Feed     FeedBuilder
	Signals  SignalLister
	Timeout  time.Duration
	Logger   *zap.Logger
}

const (
	defaultTimeout = 10 * time.Second
	errorMessage   = "😔 Something went wrong. Please try again later."
)

func (ctx *Context) opContext() (context.Context, context.CancelFunc) {
	timeout := ctx.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

// viewer returns the profile linked to the sender, or nil when the chat is not linked.
func (ctx *Context) viewer(opCtx context.Context, c tele.Context) (*models.Profile, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, nil
	}
	return ctx.Profiles.GetProfileByTelegramID(opCtx, sender.ID)
}

func displayName(p *models.Profile) string {
	if p == nil || p.FullName == nil {
		return ""
	}
	return *p.FullName
}
