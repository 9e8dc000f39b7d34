package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Cyberlove-your-dreampartner/backend/internal/llm"
	"github.com/Cyberlove-your-dreampartner/backend/internal/mocks"
	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
)

func windowOf(n int) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = "assistant"
		}
		msgs = append(msgs, models.ChatMessage{ID: i + 1, ChatID: 5, Role: role, Content: fmt.Sprintf("msg-%d", i+1)})
	}
	return msgs
}

func TestReplySendsBoundedContextWindow(t *testing.T) {
	for _, stored := range []int{0, 1, ContextWindow, 50} {
		t.Run(fmt.Sprintf("stored=%d", stored), func(t *testing.T) {
			chatRepo := new(mocks.ChatRepositoryMock)
			messageRepo := new(mocks.MessageRepositoryMock)
			llmService := new(mocks.LLMServiceMock)
			manager := NewManager(chatRepo, messageRepo, llmService)

			// LastMessages already truncates; the slice the repo hands back
			// is exactly what must reach the model.
			window := windowOf(stored)
			if stored > ContextWindow {
				window = window[stored-ContextWindow:]
			}

			chatRepo.On("EnsureChat", mock.Anything, 1).Return(models.Chat{ID: 5, UserID: 1, SystemPrompt: "prompt"}, nil).Once()
			messageRepo.On("AppendMessage", mock.Anything, 5, RoleUser, "hello").
				Return(models.ChatMessage{ID: 100, ChatID: 5, Role: RoleUser, Content: "hello"}, nil).Once()
			messageRepo.On("LastMessages", mock.Anything, 5, ContextWindow).Return(window, nil).Once()

			var sent []models.ChatMessage
			llmService.On("Complete", mock.Anything, "prompt", mock.Anything).
				Run(func(args mock.Arguments) {
					sent = args.Get(2).([]models.ChatMessage)
				}).
				Return(models.ChatMessage{Role: "assistant", Content: "hey"}, nil).Once()
			messageRepo.On("AppendMessage", mock.Anything, 5, "assistant", "hey").
				Return(models.ChatMessage{ID: 101, ChatID: 5, Role: "assistant", Content: "hey"}, nil).Once()

			reply, err := manager.Reply(context.Background(), 1, "hello")
			require.NoError(t, err)
			assert.Equal(t, "hey", reply.Content)
			assert.LessOrEqual(t, len(sent), ContextWindow)
			assert.Equal(t, window, sent)

			chatRepo.AssertExpectations(t)
			messageRepo.AssertExpectations(t)
			llmService.AssertExpectations(t)
		})
	}
}

func TestReplyKeepsUserMessageOnModelFailure(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	llmService := new(mocks.LLMServiceMock)
	manager := NewManager(chatRepo, messageRepo, llmService)

	chatRepo.On("EnsureChat", mock.Anything, 1).Return(models.Chat{ID: 5, UserID: 1}, nil).Once()
	messageRepo.On("AppendMessage", mock.Anything, 5, RoleUser, "hello").
		Return(models.ChatMessage{ID: 1, ChatID: 5, Role: RoleUser, Content: "hello"}, nil).Once()
	messageRepo.On("LastMessages", mock.Anything, 5, ContextWindow).
		Return([]models.ChatMessage{{ID: 1, ChatID: 5, Role: RoleUser, Content: "hello"}}, nil).Once()
	llmService.On("Complete", mock.Anything, "", mock.Anything).Return(models.ChatMessage{}, llm.ErrUpstream).Once()

	_, err := manager.Reply(context.Background(), 1, "hello")
	require.ErrorIs(t, err, llm.ErrUpstream)

	// The user message append already happened; no rollback is attempted.
	messageRepo.AssertNumberOfCalls(t, "AppendMessage", 1)
	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	llmService.AssertExpectations(t)
}

func TestReplyForFreshUserCreatesChat(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	llmService := new(mocks.LLMServiceMock)
	manager := NewManager(chatRepo, messageRepo, llmService)

	chatRepo.On("EnsureChat", mock.Anything, 9).Return(models.Chat{ID: 12, UserID: 9}, nil).Once()
	messageRepo.On("AppendMessage", mock.Anything, 12, RoleUser, "first").
		Return(models.ChatMessage{ID: 1, ChatID: 12, Role: RoleUser, Content: "first"}, nil).Once()
	messageRepo.On("LastMessages", mock.Anything, 12, ContextWindow).
		Return([]models.ChatMessage{{ID: 1, ChatID: 12, Role: RoleUser, Content: "first"}}, nil).Once()
	llmService.On("Complete", mock.Anything, "", mock.Anything).
		Return(models.ChatMessage{Role: "assistant", Content: "hi"}, nil).Once()
	messageRepo.On("AppendMessage", mock.Anything, 12, "assistant", "hi").
		Return(models.ChatMessage{ID: 2, ChatID: 12, Role: "assistant", Content: "hi"}, nil).Once()

	reply, err := manager.Reply(context.Background(), 9, "first")
	require.NoError(t, err)
	assert.Equal(t, "assistant", reply.Role)
	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	llmService.AssertExpectations(t)
}

func TestHistoryReturnsFullLogInOrder(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	manager := NewManager(chatRepo, messageRepo, new(mocks.LLMServiceMock))

	log := windowOf(40)
	chatRepo.On("GetChatByUser", mock.Anything, 1).Return(models.Chat{ID: 5, UserID: 1}, nil).Once()
	messageRepo.On("ListMessages", mock.Anything, 5).Return(log, nil).Once()

	history, err := manager.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 40)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].ID, history[i-1].ID)
	}
	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestHistoryWithoutChat(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	manager := NewManager(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.LLMServiceMock))

	chatRepo.On("GetChatByUser", mock.Anything, 1).Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	_, err := manager.History(context.Background(), 1)
	require.ErrorIs(t, err, repositories.ErrChatNotFound)
	chatRepo.AssertExpectations(t)
}

func TestSyncSystemPromptWritesRenderedPrompt(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	manager := NewManager(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.LLMServiceMock))

	persona := models.Persona{Nickname: "寶貝", Name: "小美", MBTI: "INFP", Job: "護理師", Personality: "溫柔"}
	want := RenderSystemPrompt(persona)
	chatRepo.On("SetSystemPrompt", mock.Anything, 1, want).Return(models.Chat{ID: 5, UserID: 1, SystemPrompt: want}, nil).Once()

	chat, err := manager.SyncSystemPrompt(context.Background(), 1, persona)
	require.NoError(t, err)
	assert.Equal(t, want, chat.SystemPrompt)
	chatRepo.AssertExpectations(t)
}
