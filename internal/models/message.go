package models

import "time"

// Message is one append-only chat entry. Seq is assigned by the
// database on insert and breaks creation-timestamp ties, so two clients
// with skewed clocks still observe a single order.
type Message struct {
	ID             string    `db:"id" json:"id"`
	Seq            int64     `db:"seq" json:"seq"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ChatEvent is broadcast over a conversation's websocket room. The
// message id lets clients merge idempotently on at-least-once delivery.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
