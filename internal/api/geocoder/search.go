package geocoder

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"signalnet/internal/apperr"
	"signalnet/internal/models"

	"go.uber.org/zap"
)

type searchResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
}

type address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	Country string `json:"country"`
}

func (a address) locality() string {
	switch {
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	default:
		return a.Village
	}
}

// Search resolves a free-form place query to its best match.
// An empty result is apperr.ErrNotFound.
func (c *Client) Search(ctx context.Context, query string) (*models.Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	data, err := c.doRequest(ctx, "/search", params)
	if err != nil {
		c.logger.Error("failed to geocode",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, fmt.Errorf("geocode: %w", err)
	}

	var results []searchResult
	if err := c.parseResponse(data, &results); err != nil {
		c.logger.Error("failed to parse geocoder response", zap.Error(err))
		return nil, err
	}

	if len(results) == 0 {
		return nil, apperr.NotFound("location %q", query)
	}

	return results[0].toPlace()
}

func (r searchResult) toPlace() (*models.Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", r.Lon, err)
	}

	return &models.Place{
		City:      optional(r.Address.locality()),
		State:     optional(r.Address.State),
		Country:   optional(r.Address.Country),
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
