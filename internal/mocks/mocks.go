package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Cyberlove-your-dreampartner/backend/internal/llm"
	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
	"github.com/Cyberlove-your-dreampartner/backend/internal/storage"
	"github.com/Cyberlove-your-dreampartner/backend/internal/talks"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	args := m.Called(ctx, username, email, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type ImageRepositoryMock struct {
	mock.Mock
}

func (m *ImageRepositoryMock) GetImage(ctx context.Context, imageID int) (models.Image, error) {
	args := m.Called(ctx, imageID)
	var img models.Image
	if val := args.Get(0); val != nil {
		img = val.(models.Image)
	}
	return img, args.Error(1)
}

func (m *ImageRepositoryMock) InsertImage(ctx context.Context, img models.Image) (models.Image, error) {
	args := m.Called(ctx, img)
	var inserted models.Image
	if val := args.Get(0); val != nil {
		inserted = val.(models.Image)
	}
	return inserted, args.Error(1)
}

func (m *ImageRepositoryMock) SampleImages(ctx context.Context, filter models.ImageFilter, size int) ([]models.ImageCandidate, error) {
	args := m.Called(ctx, filter, size)
	var candidates []models.ImageCandidate
	if val := args.Get(0); val != nil {
		candidates = val.([]models.ImageCandidate)
	}
	return candidates, args.Error(1)
}

func (m *ImageRepositoryMock) SetImageURL(ctx context.Context, imageID int, imgURL string) error {
	args := m.Called(ctx, imageID, imgURL)
	return args.Error(0)
}

func (m *ImageRepositoryMock) SetVideoID(ctx context.Context, imageID int, videoID string) error {
	args := m.Called(ctx, imageID, videoID)
	return args.Error(0)
}

func (m *ImageRepositoryMock) SetVideoURL(ctx context.Context, imageID int, videoURL string) error {
	args := m.Called(ctx, imageID, videoURL)
	return args.Error(0)
}

type PartnerRepositoryMock struct {
	mock.Mock
}

func (m *PartnerRepositoryMock) UpsertPartner(ctx context.Context, userID, imageID int) (models.Partner, error) {
	args := m.Called(ctx, userID, imageID)
	var partner models.Partner
	if val := args.Get(0); val != nil {
		partner = val.(models.Partner)
	}
	return partner, args.Error(1)
}

func (m *PartnerRepositoryMock) GetPartnerByUser(ctx context.Context, userID int) (models.Partner, error) {
	args := m.Called(ctx, userID)
	var partner models.Partner
	if val := args.Get(0); val != nil {
		partner = val.(models.Partner)
	}
	return partner, args.Error(1)
}

func (m *PartnerRepositoryMock) UpdatePersona(ctx context.Context, userID int, persona models.Persona) (models.Partner, error) {
	args := m.Called(ctx, userID, persona)
	var partner models.Partner
	if val := args.Get(0); val != nil {
		partner = val.(models.Partner)
	}
	return partner, args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) EnsureChat(ctx context.Context, userID int) (models.Chat, error) {
	args := m.Called(ctx, userID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChatByUser(ctx context.Context, userID int) (models.Chat, error) {
	args := m.Called(ctx, userID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) SetSystemPrompt(ctx context.Context, userID int, prompt string) (models.Chat, error) {
	args := m.Called(ctx, userID, prompt)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) AppendMessage(ctx context.Context, chatID int, role, content string) (models.ChatMessage, error) {
	args := m.Called(ctx, chatID, role, content)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) LastMessages(ctx context.Context, chatID int, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, chatID, limit)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

type LLMServiceMock struct {
	mock.Mock
}

func (m *LLMServiceMock) Complete(ctx context.Context, system string, messages []models.ChatMessage) (models.ChatMessage, error) {
	args := m.Called(ctx, system, messages)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

type TalksServiceMock struct {
	mock.Mock
}

func (m *TalksServiceMock) CreateIdleTalk(ctx context.Context, sourceImageURL string) (string, error) {
	args := m.Called(ctx, sourceImageURL)
	return args.String(0), args.Error(1)
}

func (m *TalksServiceMock) GetTalk(ctx context.Context, talkID string) (talks.Talk, error) {
	args := m.Called(ctx, talkID)
	var talk talks.Talk
	if val := args.Get(0); val != nil {
		talk = val.(talks.Talk)
	}
	return talk, args.Error(1)
}

type MediaStoreMock struct {
	mock.Mock
}

func (m *MediaStoreMock) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MediaStoreMock) RelayVideo(ctx context.Context, transientURL string) (string, error) {
	args := m.Called(ctx, transientURL)
	return args.String(0), args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.ImageRepository = (*ImageRepositoryMock)(nil)
var _ repositories.PartnerRepository = (*PartnerRepositoryMock)(nil)
var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ llm.Service = (*LLMServiceMock)(nil)
var _ talks.Service = (*TalksServiceMock)(nil)
var _ storage.MediaStore = (*MediaStoreMock)(nil)
