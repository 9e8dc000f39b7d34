package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	EnsureChat(ctx context.Context, userID int) (models.Chat, error)
	GetChatByUser(ctx context.Context, userID int) (models.Chat, error)
	SetSystemPrompt(ctx context.Context, userID int, prompt string) (models.Chat, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `id, user_id, system_prompt, created_at`

// EnsureChat returns the user's chat, creating an empty one if absent.
// Concurrent first calls race on the insert; the user_id uniqueness
// constraint resolves the race and the loser reads the winner's row.
func (r *ChatRepo) EnsureChat(ctx context.Context, userID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chats (user_id) VALUES ($1)
         ON CONFLICT (user_id) DO NOTHING
         RETURNING `+chatColumns, userID).StructScan(&chat)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}
	// Conflict: the chat already exists, fetch and use it.
	return r.GetChatByUser(ctx, userID)
}

// GetChatByUser fetches the user's chat.
func (r *ChatRepo) GetChatByUser(ctx context.Context, userID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT `+chatColumns+` FROM chats WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// SetSystemPrompt writes the derived system prompt onto the user's chat,
// creating the chat if absent.
func (r *ChatRepo) SetSystemPrompt(ctx context.Context, userID int, prompt string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chats (user_id, system_prompt) VALUES ($1, $2)
         ON CONFLICT (user_id) DO UPDATE SET system_prompt = EXCLUDED.system_prompt
         RETURNING `+chatColumns, userID, prompt).StructScan(&chat)
	return chat, err
}
