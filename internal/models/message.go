package models

import "time"

type Message struct {
	ID           string     `db:"id" json:"id"`
	ConnectionID string     `db:"connection_id" json:"connection_id"`
	SenderID     string     `db:"sender_id" json:"sender_id"`
	Content      string     `db:"content" json:"content"`
	ReadAt       *time.Time `db:"read_at" json:"read_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`

	Sender *Author `db:"-" json:"sender,omitempty"`
}

type Conversation struct {
	ConnectionID string    `json:"connection_id"`
	OtherUser    *Author   `json:"other_user"`
	LastMessage  *Message  `json:"last_message"`
	UnreadCount  int       `json:"unread_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
