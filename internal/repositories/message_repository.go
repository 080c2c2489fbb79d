package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"careline-service/internal/domain"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, kind domain.MessageKind, content string) (domain.Message, error)
	ListMessages(ctx context.Context, chatID int) ([]domain.Message, error)
	GetMessage(ctx context.Context, messageID int) (domain.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message to a chat. The serial id is the
// authoritative ordering sequence.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, kind domain.MessageKind, content string) (domain.Message, error) {
	var msg domain.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender_id, kind, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, chat_id, sender_id, kind, content, created_at`, chatID, senderID, kind, content).
		Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Kind, &msg.Content, &msg.CreatedAt)
	return msg, err
}

// ListMessages returns the chat's messages in sequence order.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]domain.Message, error) {
	var msgs []domain.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, chat_id, sender_id, kind, content, created_at
        FROM messages WHERE chat_id=$1 ORDER BY id ASC`, chatID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (domain.Message, error) {
	var msg domain.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, chat_id, sender_id, kind, content, created_at
        FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Message{}, ErrMessageNotFound
	}
	return msg, err
}
