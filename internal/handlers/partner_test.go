package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
	"github.com/Cyberlove-your-dreampartner/backend/internal/talks"
	"github.com/Cyberlove-your-dreampartner/backend/internal/ws"
)

type orchestratorMock struct {
	mock.Mock
}

func (m *orchestratorMock) SelectCandidates(ctx context.Context, filter models.ImageFilter) ([]models.ImageCandidate, error) {
	args := m.Called(ctx, filter)
	var candidates []models.ImageCandidate
	if val := args.Get(0); val != nil {
		candidates = val.([]models.ImageCandidate)
	}
	return candidates, args.Error(1)
}

func (m *orchestratorMock) BindPartner(ctx context.Context, userID, imageID int) (models.Partner, error) {
	args := m.Called(ctx, userID, imageID)
	var partner models.Partner
	if val := args.Get(0); val != nil {
		partner = val.(models.Partner)
	}
	return partner, args.Error(1)
}

func (m *orchestratorMock) UploadOriginalImage(ctx context.Context, userID int, data []byte, contentType string) (models.Partner, error) {
	args := m.Called(ctx, userID, data, contentType)
	var partner models.Partner
	if val := args.Get(0); val != nil {
		partner = val.(models.Partner)
	}
	return partner, args.Error(1)
}

func (m *orchestratorMock) ApplyPersona(ctx context.Context, userID int, persona models.Persona) (models.Partner, error) {
	args := m.Called(ctx, userID, persona)
	var partner models.Partner
	if val := args.Get(0); val != nil {
		partner = val.(models.Partner)
	}
	return partner, args.Error(1)
}

func (m *orchestratorMock) ProvisionIdleVideo(ctx context.Context, imageID int) (string, error) {
	args := m.Called(ctx, imageID)
	return args.String(0), args.Error(1)
}

func setupPartnerRouter(handler *PartnerHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/partner", handler.ChoosePartner)
	r.POST("/partner/generateImage", handler.GeneratePartnerImage)
	r.POST("/partner/characterSetting", handler.CharacterSetting)
	r.POST("/partner/image", handler.UploadImage)
	return r
}

func TestGeneratePartnerImageFiltered(t *testing.T) {
	orchestrator := new(orchestratorMock)
	handler := NewPartnerHandler(orchestrator, ws.NewHub(), nil)
	router := setupPartnerRouter(handler)

	hair := "long"
	orchestrator.On("SelectCandidates", mock.Anything, mock.MatchedBy(func(f models.ImageFilter) bool {
		return f.Hair != nil && *f.Hair == hair && f.Origin == nil
	})).Return([]models.ImageCandidate{{ImageID: 4, ImageBase64: "aGVsbG8="}}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/partner/generateImage", bytes.NewBufferString(`{"hair":"long"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Images []models.ImageCandidate `json:"images"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Images, 1)
	assert.Equal(t, 4, resp.Images[0].ImageID)
	orchestrator.AssertExpectations(t)
}

func TestChoosePartnerSuccess(t *testing.T) {
	orchestrator := new(orchestratorMock)
	handler := NewPartnerHandler(orchestrator, ws.NewHub(), nil)
	router := setupPartnerRouter(handler)

	orchestrator.On("BindPartner", mock.Anything, 1, 9).Return(models.Partner{ID: 3, UserID: 1, ImageID: 9}, nil).Once()
	orchestrator.On("ProvisionIdleVideo", mock.Anything, 9).Return("https://cdn.example.com/idle-videos/a.mp4", nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/partner", bytes.NewBufferString(`{"imageId":9}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Partner selected", resp["message"])
	orchestrator.AssertExpectations(t)
}

func TestChoosePartnerUnknownImage(t *testing.T) {
	orchestrator := new(orchestratorMock)
	handler := NewPartnerHandler(orchestrator, ws.NewHub(), nil)
	router := setupPartnerRouter(handler)

	orchestrator.On("BindPartner", mock.Anything, 1, 42).Return(models.Partner{}, repositories.ErrImageNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/partner", bytes.NewBufferString(`{"imageId":42}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	orchestrator.AssertExpectations(t)
}

func TestChoosePartnerProvisionFailureKeepsBinding(t *testing.T) {
	orchestrator := new(orchestratorMock)
	handler := NewPartnerHandler(orchestrator, ws.NewHub(), nil)
	router := setupPartnerRouter(handler)

	orchestrator.On("BindPartner", mock.Anything, 1, 9).Return(models.Partner{ID: 3, UserID: 1, ImageID: 9}, nil).Once()
	orchestrator.On("ProvisionIdleVideo", mock.Anything, 9).Return("", talks.ErrUpstream).Once()

	req := httptest.NewRequest(http.MethodPost, "/partner", bytes.NewBufferString(`{"imageId":9}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	orchestrator.AssertExpectations(t)
}

func TestUploadImageSuccess(t *testing.T) {
	orchestrator := new(orchestratorMock)
	handler := NewPartnerHandler(orchestrator, ws.NewHub(), nil)
	router := setupPartnerRouter(handler)

	raw := []byte{0xff, 0xd8, 0xff, 0xe0}
	encoded := base64.StdEncoding.EncodeToString(raw)

	orchestrator.On("UploadOriginalImage", mock.Anything, 1, raw, "image/jpeg").
		Return(models.Partner{ID: 3, UserID: 1, ImageID: 12}, nil).Once()
	orchestrator.On("ProvisionIdleVideo", mock.Anything, 12).Return("https://cdn.example.com/idle-videos/b.mp4", nil).Once()

	body := fmt.Sprintf(`{"imageBase64":%q,"contentType":"image/jpeg"}`, encoded)
	req := httptest.NewRequest(http.MethodPost, "/partner/image", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	orchestrator.AssertExpectations(t)
}

func TestUploadImageInvalidBase64(t *testing.T) {
	orchestrator := new(orchestratorMock)
	handler := NewPartnerHandler(orchestrator, ws.NewHub(), nil)
	router := setupPartnerRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/partner/image", bytes.NewBufferString(`{"imageBase64":"!!not-base64!!"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	orchestrator.AssertNotCalled(t, "UploadOriginalImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCharacterSettingSuccess(t *testing.T) {
	orchestrator := new(orchestratorMock)
	handler := NewPartnerHandler(orchestrator, ws.NewHub(), nil)
	router := setupPartnerRouter(handler)

	persona := models.Persona{Nickname: "寶貝", Name: "小美", MBTI: "INFP", Job: "護理師", Personality: "溫柔體貼"}
	orchestrator.On("ApplyPersona", mock.Anything, 1, persona).Return(models.Partner{ID: 3, UserID: 1}, nil).Once()

	body, err := json.Marshal(persona)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/partner/characterSetting", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "CharacterSetting success", resp["message"])
	orchestrator.AssertExpectations(t)
}

func TestCharacterSettingWithoutPartner(t *testing.T) {
	orchestrator := new(orchestratorMock)
	handler := NewPartnerHandler(orchestrator, ws.NewHub(), nil)
	router := setupPartnerRouter(handler)

	orchestrator.On("ApplyPersona", mock.Anything, 1, mock.Anything).Return(models.Partner{}, repositories.ErrPartnerNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/partner/characterSetting", bytes.NewBufferString(`{"nickname":"寶貝"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "The user has not yet selected a partner", resp["message"])
	orchestrator.AssertExpectations(t)
}
