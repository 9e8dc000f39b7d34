package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Cyberlove-your-dreampartner/backend/internal/mocks"
	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
)

const testJWTSecret = "test-secret"

func setupUserRouter(handler *UserHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/user/register", handler.Register)
	r.POST("/user/login", handler.Login)
	r.GET("/user/status", func(c *gin.Context) {
		c.Set("userID", 1)
		handler.Status(c)
	})
	return r
}

func TestRegisterSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo, new(mocks.PartnerRepositoryMock), testJWTSecret)
	router := setupUserRouter(handler)

	userRepo.On("CreateUser", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string")).
		Return(models.User{ID: 1, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/user/register",
		bytes.NewBufferString(`{"username":"alice","email":"alice@example.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "User created", resp["message"])
	userRepo.AssertExpectations(t)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo, new(mocks.PartnerRepositoryMock), testJWTSecret)
	router := setupUserRouter(handler)

	userRepo.On("CreateUser", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string")).
		Return(models.User{}, repositories.ErrUserExists).Once()

	req := httptest.NewRequest(http.MethodPost, "/user/register",
		bytes.NewBufferString(`{"username":"alice","email":"alice@example.com","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "User already exists", resp["message"])
	userRepo.AssertExpectations(t)
}

func TestRegisterMissingFields(t *testing.T) {
	handler := NewUserHandler(new(mocks.UserRepositoryMock), new(mocks.PartnerRepositoryMock), testJWTSecret)
	router := setupUserRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewBufferString(`{"username":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginIssuesToken(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo, new(mocks.PartnerRepositoryMock), testJWTSecret)
	router := setupUserRouter(handler)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	userRepo.On("GetUserByUsername", mock.Anything, "alice").
		Return(models.User{ID: 7, Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/user/login",
		bytes.NewBufferString(`{"username":"alice","password":"hunter22"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	token, err := jwt.Parse(resp["authorization"], func(t *jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, float64(7), claims["user_id"])
	userRepo.AssertExpectations(t)
}

func TestLoginUnknownUser(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo, new(mocks.PartnerRepositoryMock), testJWTSecret)
	router := setupUserRouter(handler)

	userRepo.On("GetUserByUsername", mock.Anything, "ghost").Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/user/login",
		bytes.NewBufferString(`{"username":"ghost","password":"whatever"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "User not found", resp["message"])
	userRepo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(userRepo, new(mocks.PartnerRepositoryMock), testJWTSecret)
	router := setupUserRouter(handler)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	userRepo.On("GetUserByUsername", mock.Anything, "alice").
		Return(models.User{ID: 7, Username: "alice", PasswordHash: string(hash)}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/user/login",
		bytes.NewBufferString(`{"username":"alice","password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Password incorrect", resp["message"])
	userRepo.AssertExpectations(t)
}

func TestStatusReflectsPartnerSelection(t *testing.T) {
	partnerRepo := new(mocks.PartnerRepositoryMock)
	handler := NewUserHandler(new(mocks.UserRepositoryMock), partnerRepo, testJWTSecret)
	router := setupUserRouter(handler)

	partnerRepo.On("GetPartnerByUser", mock.Anything, 1).Return(models.Partner{ID: 3, UserID: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/user/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		UserInfo struct {
			Status bool `json:"status"`
		} `json:"userInfo"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.UserInfo.Status)
	partnerRepo.AssertExpectations(t)
}

func TestStatusWithoutPartner(t *testing.T) {
	partnerRepo := new(mocks.PartnerRepositoryMock)
	handler := NewUserHandler(new(mocks.UserRepositoryMock), partnerRepo, testJWTSecret)
	router := setupUserRouter(handler)

	partnerRepo.On("GetPartnerByUser", mock.Anything, 1).Return(models.Partner{}, repositories.ErrPartnerNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/user/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		UserInfo struct {
			Status bool `json:"status"`
		} `json:"userInfo"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.UserInfo.Status)
	partnerRepo.AssertExpectations(t)
}
