package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
	"github.com/Cyberlove-your-dreampartner/backend/internal/telemetry"
	"github.com/Cyberlove-your-dreampartner/backend/internal/ws"
)

// PartnerOrchestrator is the provisioning surface the partner handler
// consumes.
type PartnerOrchestrator interface {
	SelectCandidates(ctx context.Context, filter models.ImageFilter) ([]models.ImageCandidate, error)
	BindPartner(ctx context.Context, userID, imageID int) (models.Partner, error)
	UploadOriginalImage(ctx context.Context, userID int, data []byte, contentType string) (models.Partner, error)
	ApplyPersona(ctx context.Context, userID int, persona models.Persona) (models.Partner, error)
	ProvisionIdleVideo(ctx context.Context, imageID int) (string, error)
}

// PartnerHandler manages partner selection and persona endpoints.
type PartnerHandler struct {
	orchestrator PartnerOrchestrator
	hub          *ws.Hub
	emitter      *telemetry.EventEmitter
}

// NewPartnerHandler builds a PartnerHandler.
func NewPartnerHandler(orchestrator PartnerOrchestrator, hub *ws.Hub, emitter *telemetry.EventEmitter) *PartnerHandler {
	return &PartnerHandler{orchestrator: orchestrator, hub: hub, emitter: emitter}
}

// GeneratePartnerImage draws a random sample of candidate images matching
// the optional tag filter.
func (h *PartnerHandler) GeneratePartnerImage(c *gin.Context) {
	var filter models.ImageFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	images, err := h.orchestrator.SelectCandidates(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

// ChoosePartner binds the chosen catalog image as the user's partner and
// provisions its idle video.
func (h *PartnerHandler) ChoosePartner(c *gin.Context) {
	var req struct {
		ImageID int `json:"imageId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	partner, err := h.orchestrator.BindPartner(c.Request.Context(), userID, req.ImageID)
	if err != nil {
		if errors.Is(err, repositories.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventPartnerBound, requestIDFromContext(c), &userID, gin.H{"image_id": partner.ImageID})

	// The partner stays bound even if provisioning fails; the asset cache
	// self-heals on the next idle-video fetch.
	videoURL, err := h.orchestrator.ProvisionIdleVideo(c.Request.Context(), partner.ImageID)
	if err != nil {
		c.JSON(provisioningStatus(err), gin.H{"message": "idle video provisioning failed"})
		return
	}

	h.hub.BroadcastUserEvent(userID, models.UserEvent{Type: "video_ready", VideoURL: videoURL, ImageID: partner.ImageID})
	h.emitter.Emit(c.Request.Context(), telemetry.EventVideoProvisioned, requestIDFromContext(c), &userID, gin.H{"image_id": partner.ImageID})

	c.JSON(http.StatusCreated, gin.H{"message": "Partner selected"})
}

// UploadImage hosts a user-supplied image and binds it as the partner.
func (h *PartnerHandler) UploadImage(c *gin.Context) {
	var req struct {
		ImageBase64 string `json:"imageBase64" binding:"required"`
		ContentType string `json:"contentType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image payload"})
		return
	}

	userID := c.GetInt("userID")
	partner, err := h.orchestrator.UploadOriginalImage(c.Request.Context(), userID, data, req.ContentType)
	if err != nil {
		c.JSON(provisioningStatus(err), gin.H{"message": "upload failed"})
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventPartnerBound, requestIDFromContext(c), &userID, gin.H{"image_id": partner.ImageID})

	videoURL, err := h.orchestrator.ProvisionIdleVideo(c.Request.Context(), partner.ImageID)
	if err != nil {
		c.JSON(provisioningStatus(err), gin.H{"message": "idle video provisioning failed"})
		return
	}

	h.hub.BroadcastUserEvent(userID, models.UserEvent{Type: "video_ready", VideoURL: videoURL, ImageID: partner.ImageID})
	h.emitter.Emit(c.Request.Context(), telemetry.EventVideoProvisioned, requestIDFromContext(c), &userID, gin.H{"image_id": partner.ImageID})

	c.JSON(http.StatusCreated, gin.H{"message": "Partner selected"})
}

// CharacterSetting updates the partner's persona and resynchronizes the
// chat system prompt.
func (h *PartnerHandler) CharacterSetting(c *gin.Context) {
	var persona models.Persona
	if err := c.ShouldBindJSON(&persona); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if _, err := h.orchestrator.ApplyPersona(c.Request.Context(), userID, persona); err != nil {
		if errors.Is(err, repositories.ErrPartnerNotFound) {
			c.JSON(http.StatusConflict, gin.H{"message": "The user has not yet selected a partner"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "CharacterSetting success"})
}
