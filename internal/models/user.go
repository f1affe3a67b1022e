package models

import "time"

type Profile struct {
	ID         string    `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	FullName   *string   `db:"full_name" json:"full_name"`
	Headline   *string   `db:"headline" json:"headline"`
	AvatarURL  *string   `db:"avatar_url" json:"avatar_url"`
	City       *string   `db:"city" json:"city"`
	State      *string   `db:"state" json:"state"`
	Country    *string   `db:"country" json:"country"`
	Latitude   *float64  `db:"latitude" json:"latitude"`
	Longitude  *float64  `db:"longitude" json:"longitude"`
	TelegramID *int64    `db:"telegram_id" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Coordinates reports the stored location. ok is false unless both
// latitude and longitude are present.
func (p *Profile) Coordinates() (lat, lon float64, ok bool) {
	if p == nil || p.Latitude == nil || p.Longitude == nil {
		return 0, 0, false
	}
	return *p.Latitude, *p.Longitude, true
}

type ProfileWithSignals struct {
	Profile
	Signals []UserSignalWithCategory `json:"signals"`
}

// Author is the public projection of a profile embedded in posts and conversations.
type Author struct {
	ID        string  `db:"id" json:"id"`
	Email     string  `db:"email" json:"email"`
	FullName  *string `db:"full_name" json:"full_name"`
	Headline  *string `db:"headline" json:"headline"`
	AvatarURL *string `db:"avatar_url" json:"avatar_url"`
}

// Place is a resolved location as returned by the geocoder.
type Place struct {
	City      *string `json:"city"`
	State     *string `json:"state"`
	Country   *string `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
