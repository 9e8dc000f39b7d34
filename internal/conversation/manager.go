package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/Cyberlove-your-dreampartner/backend/internal/llm"
	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
	"github.com/Cyberlove-your-dreampartner/backend/internal/observability"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
)

// ContextWindow bounds how many trailing messages are sent to the model.
const ContextWindow = 16

// RoleUser is the role recorded for inbound user messages.
const RoleUser = "user"

// Manager owns the per-user conversation: the append-only message log and
// the derived system prompt.
type Manager struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	llm         llm.Service
}

// NewManager builds a Manager.
func NewManager(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, llmClient llm.Service) *Manager {
	return &Manager{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		llm:         llmClient,
	}
}

// EnsureChat returns the user's chat, creating an empty one if absent.
func (m *Manager) EnsureChat(ctx context.Context, userID int) (models.Chat, error) {
	return m.chatRepo.EnsureChat(ctx, userID)
}

// AppendMessage appends one message to the chat's ordered log.
func (m *Manager) AppendMessage(ctx context.Context, chat models.Chat, role, content string) (models.ChatMessage, error) {
	return m.messageRepo.AppendMessage(ctx, chat.ID, role, content)
}

// Reply appends the user's message, sends the trailing context window to the
// model and appends the returned reply. On model failure the user's message
// stays appended; the caller can retry just the reply step.
func (m *Manager) Reply(ctx context.Context, userID int, content string) (models.ChatMessage, error) {
	chat, err := m.chatRepo.EnsureChat(ctx, userID)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("ensure chat: %w", err)
	}

	if _, err := m.messageRepo.AppendMessage(ctx, chat.ID, RoleUser, content); err != nil {
		return models.ChatMessage{}, fmt.Errorf("append user message: %w", err)
	}

	window, err := m.messageRepo.LastMessages(ctx, chat.ID, ContextWindow)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("load context window: %w", err)
	}

	start := time.Now()
	reply, err := m.llm.Complete(ctx, chat.SystemPrompt, window)
	observability.ObserveLLMRequest(time.Since(start).Seconds(), err == nil)
	if err != nil {
		return models.ChatMessage{}, err
	}

	saved, err := m.messageRepo.AppendMessage(ctx, chat.ID, reply.Role, reply.Content)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("append reply: %w", err)
	}
	return saved, nil
}

// History returns the full ordered message log, oldest first. It fails with
// repositories.ErrChatNotFound if the user has no chat yet.
func (m *Manager) History(ctx context.Context, userID int) ([]models.ChatMessage, error) {
	chat, err := m.chatRepo.GetChatByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return m.messageRepo.ListMessages(ctx, chat.ID)
}

// SyncSystemPrompt rerenders the system prompt from the persona and writes
// it onto the user's chat, creating the chat if absent.
func (m *Manager) SyncSystemPrompt(ctx context.Context, userID int, persona models.Persona) (models.Chat, error) {
	return m.chatRepo.SetSystemPrompt(ctx, userID, RenderSystemPrompt(persona))
}
