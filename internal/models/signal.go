package models

import (
	"math"
	"time"
)

type SignalCategory struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   *string   `db:"description" json:"description"`
	MaxSelections int       `db:"max_selections" json:"max_selections"`
	DisplayOrder  int       `db:"display_order" json:"display_order"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type Signal struct {
	ID             string    `db:"id" json:"id"`
	CategoryID     string    `db:"category_id" json:"category_id"`
	Label          string    `db:"label" json:"label"`
	Description    *string   `db:"description" json:"description"`
	ExpirationDays *int      `db:"expiration_days" json:"expiration_days"`
	DisplayOrder   int       `db:"display_order" json:"display_order"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type SignalWithCategory struct {
	Signal
	Category SignalCategory `json:"category"`
}

type UserSignal struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	SignalID  string     `db:"signal_id" json:"signal_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at"`
}

// IsActive matches the storage predicate `expires_at IS NULL OR expires_at > now`.
func (us UserSignal) IsActive(now time.Time) bool {
	return us.ExpiresAt == nil || us.ExpiresAt.After(now)
}

// DaysUntilExpiration rounds up to whole days and never goes below zero.
// A signal without an expiry returns nil.
func (us UserSignal) DaysUntilExpiration(now time.Time) *int {
	if us.ExpiresAt == nil {
		return nil
	}
	days := int(math.Ceil(us.ExpiresAt.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

type UserSignalWithCategory struct {
	UserSignal
	Signal SignalWithCategory `json:"signal"`
}

// SignalRef is the slim signal projection linked to posts.
type SignalRef struct {
	ID         string `db:"id" json:"id"`
	Label      string `db:"label" json:"label"`
	CategoryID string `db:"category_id" json:"category_id"`
}

// CatalogSnapshot is the whole signal catalog as cached between refreshes.
type CatalogSnapshot struct {
	Categories  []SignalCategory `json:"categories"`
	Signals     []Signal         `json:"signals"`
	RefreshedAt time.Time        `json:"refreshed_at"`
}
