package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"signalnet/internal/models"
)

const (
	CatalogCacheTTL     = 1 * time.Hour
	GeocodeCacheTTL     = 30 * 24 * time.Hour
	RateLimitWindowTTL  = 1 * time.Minute
	TelegramLinkCodeTTL = 10 * time.Minute
)

func CatalogKey() string {
	return "catalog:signals"
}

// GeocodeKey normalizes the query so equivalent spellings share an entry.
func GeocodeKey(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "geocode:" + hex.EncodeToString(sum[:])
}

func RateLimitKey(subject string) string {
	return fmt.Sprintf("ratelimit:%s", subject)
}

func TelegramLinkKey(code string) string {
	return fmt.Sprintf("telegram:link:%s", code)
}

func (c *Cache) GetCatalog(ctx context.Context) (*models.CatalogSnapshot, error) {
	var snapshot models.CatalogSnapshot
	err := c.Get(ctx, CatalogKey(), &snapshot)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *Cache) SetCatalog(ctx context.Context, snapshot *models.CatalogSnapshot) error {
	return c.Set(ctx, CatalogKey(), snapshot, CatalogCacheTTL)
}

func (c *Cache) GetPlace(ctx context.Context, query string) (*models.Place, error) {
	var place models.Place
	err := c.Get(ctx, GeocodeKey(query), &place)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &place, nil
}

func (c *Cache) SetPlace(ctx context.Context, query string, place *models.Place) error {
	return c.Set(ctx, GeocodeKey(query), place, GeocodeCacheTTL)
}

// IncrementRateLimit counts a hit in the current one-minute window.
func (c *Cache) IncrementRateLimit(ctx context.Context, subject string) (int64, error) {
	return c.IncrementWindow(ctx, RateLimitKey(subject), RateLimitWindowTTL)
}

func (c *Cache) SaveLinkCode(ctx context.Context, code, userID string) error {
	return c.SetString(ctx, TelegramLinkKey(code), userID, TelegramLinkCodeTTL)
}

// ConsumeLinkCode returns the profile id bound to code and invalidates it.
// An unknown or expired code yields "", nil.
func (c *Cache) ConsumeLinkCode(ctx context.Context, code string) (string, error) {
	userID, err := c.TakeString(ctx, TelegramLinkKey(code))
	if errors.Is(err, ErrCacheMiss) {
		return "", nil
	}
	return userID, err
}
