package models

import "time"

type PostType string

const (
	PostTypeUpdate        PostType = "update"
	PostTypeHelpRequest   PostType = "help_request"
	PostTypeOfferingHelp  PostType = "offering_help"
	PostTypeProject       PostType = "project"
	PostTypeCollaboration PostType = "collaboration"
)

type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityConnections Visibility = "connections"
)

type Post struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	Content    string     `db:"content" json:"content"`
	PostType   PostType   `db:"post_type" json:"post_type"`
	Visibility Visibility `db:"visibility" json:"visibility"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at"`
	City       *string    `db:"city" json:"city"`
	State      *string    `db:"state" json:"state"`
	Country    *string    `db:"country" json:"country"`
	Latitude   *float64   `db:"latitude" json:"latitude"`
	Longitude  *float64   `db:"longitude" json:"longitude"`
	Archived   bool       `db:"archived" json:"archived"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`

	Author        *Author     `db:"-" json:"author,omitempty"`
	LinkedSignals []SignalRef `db:"-" json:"linked_signals"`
	ReactionCount int         `db:"-" json:"reaction_count"`
	CommentCount  int         `db:"-" json:"comment_count"`
}

func (p Post) Coordinates() (lat, lon float64, ok bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return 0, 0, false
	}
	return *p.Latitude, *p.Longitude, true
}

// ScoredPost is a post annotated with its relevance for one viewer.
// Own-feed entries are not scored and leave both fields empty.
type ScoredPost struct {
	Post
	MatchScore  *float64 `json:"match_score,omitempty"`
	MatchReason string   `json:"match_reason,omitempty"`
}

// PostQuery describes the candidate fetch. Archived and expired posts are
// always excluded.
type PostQuery struct {
	AuthorID string
	Now      time.Time
	Limit    int
}

// PostUpdate carries the mutable fields of a post. Nil fields are left as is.
type PostUpdate struct {
	Content   *string
	PostType  *PostType
	SignalIDs *[]string
	UpdatedAt time.Time
}
