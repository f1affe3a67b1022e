package models

import "time"

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

type Connection struct {
	ID          string           `db:"id" json:"id"`
	RequesterID string           `db:"requester_id" json:"requester_id"`
	ReceiverID  string           `db:"receiver_id" json:"receiver_id"`
	Status      ConnectionStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`

	Requester *Author `db:"-" json:"requester,omitempty"`
	Receiver  *Author `db:"-" json:"receiver,omitempty"`
}

func (c Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.ReceiverID == userID
}

// OtherParty returns the id on the opposite side of the edge from userID.
func (c Connection) OtherParty(userID string) string {
	if c.RequesterID == userID {
		return c.ReceiverID
	}
	return c.RequesterID
}
