// Package feed ranks candidate posts for a viewer and assembles feeds.
package feed

import (
	"fmt"
	"math"
	"time"

	"signalnet/internal/models"
)

const (
	recentOwnPostBoost = 50
	olderOwnPostBoost  = 10
	signalMatchBoost   = 10
	connectionBoost    = 5
	helpRequestBoost   = 3
	maxRecencyBoost    = 5

	ownPostWindow = 24 * time.Hour
	day           = 24 * time.Hour
)

const (
	ReasonOwnPost     = "Your post"
	ReasonConnection  = "From your connections"
	ReasonHelpRequest = "Help request"
	ReasonDefault     = "Suggested for you"
)

// Viewer is the scoring context for one feed request.
type Viewer struct {
	ID            string
	SignalIDs     map[string]struct{}
	ConnectionIDs map[string]struct{}
}

func NewViewer(id string, signalIDs, connectionIDs []string) Viewer {
	v := Viewer{
		ID:            id,
		SignalIDs:     toSet(signalIDs),
		ConnectionIDs: toSet(connectionIDs),
	}
	delete(v.ConnectionIDs, id)
	return v
}

func (v Viewer) IsConnectedTo(userID string) bool {
	_, ok := v.ConnectionIDs[userID]
	return ok
}

type Score struct {
	Value  float64
	Reason string
}

// ScorePost adds up every matching rule. The reason comes from the first rule
// that matched; recency never supplies one.
func ScorePost(post models.Post, viewer Viewer, now time.Time) Score {
	var score float64
	var reason string

	age := now.Sub(post.CreatedAt)

	if post.UserID == viewer.ID {
		if age < ownPostWindow {
			score += recentOwnPostBoost
		} else {
			score += olderOwnPostBoost
		}
		reason = ReasonOwnPost
	}

	overlap := 0
	for _, s := range post.LinkedSignals {
		if _, ok := viewer.SignalIDs[s.ID]; ok {
			overlap++
		}
	}
	if overlap > 0 {
		score += float64(signalMatchBoost * overlap)
		if reason == "" {
			// Labels the post's first linked signal, which need not be one
			// of the overlapping ones.
			reason = fmt.Sprintf(`Matches your "%s" signal`, post.LinkedSignals[0].Label)
		}
	}

	if viewer.IsConnectedTo(post.UserID) {
		score += connectionBoost
		if reason == "" {
			reason = ReasonConnection
		}
	}

	if post.PostType == models.PostTypeHelpRequest {
		score += helpRequestBoost
		if reason == "" {
			reason = ReasonHelpRequest
		}
	}

	ageInDays := float64(age) / float64(day)
	score += math.Max(0, maxRecencyBoost-ageInDays)

	if reason == "" {
		reason = ReasonDefault
	}

	return Score{Value: score, Reason: reason}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
