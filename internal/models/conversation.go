package models

import "time"

// Conversation is the 1:1 chat channel opened when a request is
// accepted. Exactly one exists per request and it is never deleted.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	RescuerID string    `db:"rescuer_id" json:"rescuer_id"`
	AdopterID string    `db:"adopter_id" json:"adopter_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether the user is one of the two parties.
func (c Conversation) HasParticipant(userID string) bool {
	return c.RescuerID == userID || c.AdopterID == userID
}

// Counterpart returns the other participant's id.
func (c Conversation) Counterpart(userID string) string {
	if c.RescuerID == userID {
		return c.AdopterID
	}
	return c.RescuerID
}
