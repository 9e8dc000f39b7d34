package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Cyberlove-your-dreampartner/backend/internal/config"
	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
)

// ErrUpstream marks a failed completion call.
var ErrUpstream = errors.New("llm error")

// Service produces one reply message from a system prompt and an ordered
// message window.
type Service interface {
	Complete(ctx context.Context, system string, messages []models.ChatMessage) (models.ChatMessage, error)
}

// Client wraps the OpenAI chat-completion API.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
	}
}

// Complete sends the system prompt plus the message window and returns the
// model's reply.
func (c *Client) Complete(ctx context.Context, system string, messages []models.ChatMessage) (models.ChatMessage, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: chatMessages,
	})
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return models.ChatMessage{}, fmt.Errorf("%w: empty choices", ErrUpstream)
	}

	choice := resp.Choices[0].Message
	return models.ChatMessage{Role: choice.Role, Content: choice.Content}, nil
}
