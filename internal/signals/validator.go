// Package signals covers the signal catalog and a user's selection of signals.
package signals

import (
	"fmt"
	"math"

	"signalnet/internal/models"
)

const MaxTotalSignals = 5

// DefaultCategoryLimits caps selections per category id. Categories missing
// here are unlimited.
var DefaultCategoryLimits = map[string]int{
	"availability": 2,
	"learning":     99,
	"contribution": 99,
	"perspective":  3,
}

type Constraints struct {
	MaxTotal       int
	CategoryLimits map[string]int
}

func DefaultConstraints() Constraints {
	limits := make(map[string]int, len(DefaultCategoryLimits))
	for id, limit := range DefaultCategoryLimits {
		limits[id] = limit
	}
	return Constraints{
		MaxTotal:       MaxTotalSignals,
		CategoryLimits: limits,
	}
}

func (c Constraints) CategoryLimit(categoryID string) int {
	if limit, ok := c.CategoryLimits[categoryID]; ok {
		return limit
	}
	return math.MaxInt
}

// Decision is the outcome of a selection check. A rejection is an expected
// result, not an error.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Reject(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanAdd checks the global and per-category caps. current must already be
// restricted to active signals.
func (c Constraints) CanAdd(current []models.UserSignalWithCategory, candidate models.Signal) Decision {
	if len(current) >= c.MaxTotal {
		return Reject(fmt.Sprintf("Maximum %d signals allowed", c.MaxTotal))
	}

	limit := c.CategoryLimit(candidate.CategoryID)
	inCategory := 0
	for _, us := range current {
		if us.Signal.CategoryID == candidate.CategoryID {
			inCategory++
		}
	}

	if inCategory >= limit {
		return Reject(fmt.Sprintf("Maximum %d signals allowed in this category", limit))
	}

	return Allow()
}
