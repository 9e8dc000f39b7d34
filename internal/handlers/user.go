package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
)

// UserHandler manages registration, login and account status.
type UserHandler struct {
	userRepo    repositories.UserRepository
	partnerRepo repositories.PartnerRepository
	jwtSecret   string
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, partnerRepo repositories.PartnerRepository, jwtSecret string) *UserHandler {
	return &UserHandler{userRepo: userRepo, partnerRepo: partnerRepo, jwtSecret: jwtSecret}
}

// Register creates a new account.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if _, err := h.userRepo.CreateUser(c.Request.Context(), req.Username, req.Email, string(hash)); err != nil {
		if errors.Is(err, repositories.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created"})
}

// Login checks credentials and issues a signed token.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusConflict, gin.H{"message": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": "Password incorrect"})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"email":    user.Email,
		"user_id":  user.ID,
	})
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authorization": signed})
}

// Status reports whether the user has selected a partner yet.
func (h *UserHandler) Status(c *gin.Context) {
	userID := c.GetInt("userID")

	_, err := h.partnerRepo.GetPartnerByUser(c.Request.Context(), userID)
	if err != nil && !errors.Is(err, repositories.ErrPartnerNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userInfo": gin.H{"status": err == nil}})
}
