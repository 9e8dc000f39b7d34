package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
)

// MessageRepository defines interactions for the append-only message log.
type MessageRepository interface {
	AppendMessage(ctx context.Context, chatID int, role, content string) (models.ChatMessage, error)
	ListMessages(ctx context.Context, chatID int) ([]models.ChatMessage, error)
	LastMessages(ctx context.Context, chatID int, limit int) ([]models.ChatMessage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, role, content, created_at`

// AppendMessage appends one message to the chat's log. Prior messages are
// never removed or reordered.
func (r *MessageRepo) AppendMessage(ctx context.Context, chatID int, role, content string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chat_messages (chat_id, role, content) VALUES ($1, $2, $3)
         RETURNING `+messageColumns, chatID, role, content).StructScan(&msg)
	return msg, err
}

// ListMessages returns the full message log, oldest first.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM chat_messages WHERE chat_id=$1 ORDER BY id ASC`, chatID)
	return msgs, err
}

// LastMessages returns the trailing limit messages, oldest first.
func (r *MessageRepo) LastMessages(ctx context.Context, chatID int, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM (
            SELECT `+messageColumns+` FROM chat_messages WHERE chat_id=$1 ORDER BY id DESC LIMIT $2
         ) tail ORDER BY id ASC`, chatID, limit)
	return msgs, err
}
