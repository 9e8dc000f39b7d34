package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cyberlove-your-dreampartner/backend/internal/llm"
	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
	"github.com/Cyberlove-your-dreampartner/backend/internal/provisioning"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
	"github.com/Cyberlove-your-dreampartner/backend/internal/storage"
	"github.com/Cyberlove-your-dreampartner/backend/internal/talks"
	"github.com/Cyberlove-your-dreampartner/backend/internal/telemetry"
	"github.com/Cyberlove-your-dreampartner/backend/internal/ws"
)

// voiceID is the fixed locale voice used by the downstream speech renderer.
const voiceID = "zh-TW-HsiaoChenNeural"

// ConversationService is the conversation surface the chat handler consumes.
type ConversationService interface {
	Reply(ctx context.Context, userID int, content string) (models.ChatMessage, error)
	History(ctx context.Context, userID int) ([]models.ChatMessage, error)
}

// IdleVideoProvisioner lazily fills the idle-video cache for an image.
type IdleVideoProvisioner interface {
	ProvisionIdleVideo(ctx context.Context, imageID int) (string, error)
}

// ChatHandler manages the conversation endpoints.
type ChatHandler struct {
	conversations ConversationService
	partnerRepo   repositories.PartnerRepository
	imageRepo     repositories.ImageRepository
	provisioner   IdleVideoProvisioner
	hub           *ws.Hub
	emitter       *telemetry.EventEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(
	conversations ConversationService,
	partnerRepo repositories.PartnerRepository,
	imageRepo repositories.ImageRepository,
	provisioner IdleVideoProvisioner,
	hub *ws.Hub,
	emitter *telemetry.EventEmitter,
) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		partnerRepo:   partnerRepo,
		imageRepo:     imageRepo,
		provisioner:   provisioner,
		hub:           hub,
		emitter:       emitter,
	}
}

// GetImageURL returns the hosted image URL of the user's partner.
func (h *ChatHandler) GetImageURL(c *gin.Context) {
	userID := c.GetInt("userID")

	partner, err := h.partnerRepo.GetPartnerByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPartnerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Partner not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	image, err := h.imageRepo.GetImage(c.Request.Context(), partner.ImageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrImageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"message": "image not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imgURL": image.ImgURL.String})
}

// renderScript is the fixed-shape payload consumed by the downstream
// speech/video renderer.
type renderScript struct {
	Type     string         `json:"type"`
	Input    string         `json:"input"`
	SSML     bool           `json:"ssml"`
	Provider renderProvider `json:"provider"`
}

type renderProvider struct {
	Type    string `json:"type"`
	VoiceID string `json:"voice_id"`
}

type renderConfig struct {
	Stitch bool `json:"stitch"`
}

// ReplyMessage stores the user's message, produces a model reply and wraps
// it into the rendering payload.
func (h *ChatHandler) ReplyMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	reply, err := h.conversations.Reply(c.Request.Context(), userID, req.Message)
	if err != nil {
		// The user's message is already stored; only the reply step failed
		// and can be retried.
		if errors.Is(err, llm.ErrUpstream) {
			c.JSON(http.StatusBadGateway, gin.H{"message": "reply generation failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	h.hub.BroadcastUserEvent(userID, models.UserEvent{Type: "chat_reply", Message: &reply})
	h.emitter.Emit(c.Request.Context(), telemetry.EventChatReplied, requestIDFromContext(c), &userID, gin.H{"role": reply.Role})

	c.JSON(http.StatusOK, gin.H{
		"script": renderScript{
			Type:     "text",
			Input:    reply.Content,
			SSML:     true,
			Provider: renderProvider{Type: "microsoft", VoiceID: voiceID},
		},
		"config": renderConfig{Stitch: true},
	})
}

// GetIdleVideo returns the partner's idle video URL, provisioning it on
// first access.
func (h *ChatHandler) GetIdleVideo(c *gin.Context) {
	userID := c.GetInt("userID")

	partner, err := h.partnerRepo.GetPartnerByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPartnerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Partner not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	videoURL, err := h.provisioner.ProvisionIdleVideo(c.Request.Context(), partner.ImageID)
	if err != nil {
		c.JSON(provisioningStatus(err), gin.H{"message": "idle video unavailable"})
		return
	}

	h.hub.BroadcastUserEvent(userID, models.UserEvent{Type: "video_ready", VideoURL: videoURL, ImageID: partner.ImageID})
	c.JSON(http.StatusOK, gin.H{"videoURL": videoURL})
}

// GetChatHistory returns the full ordered message log.
func (h *ChatHandler) GetChatHistory(c *gin.Context) {
	userID := c.GetInt("userID")

	history, err := h.conversations.History(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chatHistory": history})
}

// provisioningStatus maps provisioning errors onto HTTP statuses: absent
// documents are client-correctable, upstream failures and timeouts are
// transient-retry conditions.
func provisioningStatus(err error) int {
	switch {
	case errors.Is(err, repositories.ErrImageNotFound), errors.Is(err, repositories.ErrPartnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, provisioning.ErrProvisionTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, talks.ErrUpstream), errors.Is(err, storage.ErrRelay):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
