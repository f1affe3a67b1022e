package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"signalnet/internal/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LinkCodeStore interface {
	SaveLinkCode(ctx context.Context, code, userID string) error
}

// TelegramHandler issues one-time codes the viewer sends to the bot as
// /start <code> to link their Telegram account.
type TelegramHandler struct {
	codes  LinkCodeStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewTelegramHandler(codes LinkCodeStore, ttl time.Duration, logger *zap.Logger) *TelegramHandler {
	return &TelegramHandler{codes: codes, ttl: ttl, logger: logger}
}

type linkCodeResponse struct {
	Code      string `json:"code"`
	Command   string `json:"command"`
	ExpiresIn int    `json:"expires_in"`
}

// CreateLinkCode handles POST /api/telegram/link
func (h *TelegramHandler) CreateLinkCode(w http.ResponseWriter, r *http.Request) {
	code := newLinkCode()

	if err := h.codes.SaveLinkCode(r.Context(), code, auth.ViewerID(r.Context())); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, linkCodeResponse{
		Code:      code,
		Command:   "/start " + code,
		ExpiresIn: int(h.ttl.Seconds()),
	})
}

func newLinkCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:10])
}
