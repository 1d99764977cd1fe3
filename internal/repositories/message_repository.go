package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"adoption-service/internal/models"
)

const messageColumns = `id, seq, conversation_id, sender_id, content, created_at`

// MessageRepository defines the append-only message log. There is no
// edit or delete: the log doubles as the adoption coordination record.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID string, senderID string, content string) (models.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message. Timestamp and seq are assigned by
// the database so ordering never depends on client clocks.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID string, senderID string, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, conversation_id, sender_id, content)
        VALUES ($1, $2, $3, $4)
        RETURNING `+messageColumns,
		uuid.NewString(), conversationID, senderID, content).
		StructScan(&msg)
	return msg, err
}

// ListMessages returns the conversation history in server order.
func (r *MessageRepo) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE conversation_id=$1
        ORDER BY created_at ASC, seq ASC`, conversationID)
	return msgs, err
}
