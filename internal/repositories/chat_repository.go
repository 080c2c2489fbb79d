package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"careline-service/internal/domain"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, participants []domain.Participant) (domain.Chat, error)
	GetChat(ctx context.Context, chatID int) (domain.Chat, error)
	ListChats(ctx context.Context, userID int) ([]domain.ChatSummary, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	ActivateAlert(ctx context.Context, chatID int, initiatorID int, at time.Time) (bool, error)
	DeactivateAlert(ctx context.Context, chatID int, initiatorID int) (bool, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat creates a chat with the given participants in one transaction.
func (r *ChatRepo) CreateChat(ctx context.Context, participants []domain.Participant) (domain.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Chat{}, err
	}
	defer tx.Rollback()

	var chat domain.Chat
	if err := tx.QueryRowxContext(ctx, `INSERT INTO chats DEFAULT VALUES RETURNING id, created_at, emergency_active`).
		Scan(&chat.ID, &chat.CreatedAt, &chat.EmergencyActive); err != nil {
		return domain.Chat{}, err
	}

	for _, p := range participants {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id, supervisor_id, external_id, email)
            VALUES ($1, $2, $3, $4, $5) ON CONFLICT (chat_id, user_id) DO NOTHING`,
			chat.ID, p.UserID, p.SupervisorID, p.ExternalID, p.Email); err != nil {
			return domain.Chat{}, err
		}
		p.ChatID = chat.ID
		chat.Participants = append(chat.Participants, p)
	}

	if err := tx.Commit(); err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat with its participants.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, created_at, emergency_active, emergency_initiator_id, emergency_activated_at
        FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return domain.Chat{}, err
	}

	err = r.db.SelectContext(ctx, &chat.Participants, `SELECT chat_id, user_id, supervisor_id, external_id, email
        FROM chat_participants WHERE chat_id=$1 ORDER BY user_id`, chatID)
	return chat, err
}

// ListChats returns summaries of the chats the user belongs to.
func (r *ChatRepo) ListChats(ctx context.Context, userID int) ([]domain.ChatSummary, error) {
	var result []domain.ChatSummary
	err := r.db.SelectContext(ctx, &result, `SELECT c.id, c.emergency_active, c.created_at
        FROM chats c
        JOIN chat_participants cp ON cp.chat_id = c.id
        WHERE cp.user_id=$1
        ORDER BY c.created_at DESC`, userID)
	return result, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// ActivateAlert turns the alert toggle on. The conditional WHERE makes the
// first writer win a concurrent double-activation; the returned flag is
// false when the row was already active and nothing changed.
func (r *ChatRepo) ActivateAlert(ctx context.Context, chatID int, initiatorID int, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE chats
        SET emergency_active=TRUE, emergency_initiator_id=$2, emergency_activated_at=$3
        WHERE id=$1 AND emergency_active=FALSE`, chatID, initiatorID, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// DeactivateAlert clears the alert toggle; only a row still recording the
// initiator is touched, so a concurrent withdrawal cannot clobber a newer
// activation by somebody else. The returned flag is false when no row
// matched.
func (r *ChatRepo) DeactivateAlert(ctx context.Context, chatID int, initiatorID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE chats
        SET emergency_active=FALSE, emergency_initiator_id=NULL, emergency_activated_at=NULL
        WHERE id=$1 AND emergency_active=TRUE AND emergency_initiator_id=$2`, chatID, initiatorID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}
