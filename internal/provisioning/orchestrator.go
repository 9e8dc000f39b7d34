package provisioning

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Cyberlove-your-dreampartner/backend/internal/config"
	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
	"github.com/Cyberlove-your-dreampartner/backend/internal/observability"
	"github.com/Cyberlove-your-dreampartner/backend/internal/repositories"
	"github.com/Cyberlove-your-dreampartner/backend/internal/storage"
	"github.com/Cyberlove-your-dreampartner/backend/internal/talks"
)

// ErrProvisionTimeout signals that the idle-video job did not reach its
// terminal state within the poll deadline.
var ErrProvisionTimeout = errors.New("idle video provisioning timed out")

// CandidateSampleSize is how many images a selection request draws.
const CandidateSampleSize = 6

// PromptSyncer keeps the chat system prompt aligned with partner persona
// changes.
type PromptSyncer interface {
	SyncSystemPrompt(ctx context.Context, userID int, persona models.Persona) (models.Chat, error)
}

// Orchestrator binds users to images and guarantees that image hosting and
// idle-video assets exist without redoing expensive work.
type Orchestrator struct {
	imageRepo   repositories.ImageRepository
	partnerRepo repositories.PartnerRepository
	talks       talks.Service
	media       storage.MediaStore
	prompts     PromptSyncer

	pollInterval time.Duration
	pollMaxWait  time.Duration
	pollDeadline time.Duration

	mu         sync.Mutex
	imageLocks map[int]*sync.Mutex
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(
	imageRepo repositories.ImageRepository,
	partnerRepo repositories.PartnerRepository,
	talksClient talks.Service,
	media storage.MediaStore,
	prompts PromptSyncer,
	cfg config.TalksConfig,
) *Orchestrator {
	return &Orchestrator{
		imageRepo:    imageRepo,
		partnerRepo:  partnerRepo,
		talks:        talksClient,
		media:        media,
		prompts:      prompts,
		pollInterval: cfg.PollInterval,
		pollMaxWait:  cfg.PollMaxWait,
		pollDeadline: cfg.PollDeadline,
		imageLocks:   make(map[int]*sync.Mutex),
	}
}

// SelectCandidates draws a random sample of images matching the partial
// filter. The result may hold fewer than CandidateSampleSize entries.
func (o *Orchestrator) SelectCandidates(ctx context.Context, filter models.ImageFilter) ([]models.ImageCandidate, error) {
	return o.imageRepo.SampleImages(ctx, filter, CandidateSampleSize)
}

// BindPartner binds the user to the image, hosting the image payload first
// if it has never been hosted. Binding always happens-before idle-video
// provisioning; callers invoke ProvisionIdleVideo after a successful bind.
func (o *Orchestrator) BindPartner(ctx context.Context, userID, imageID int) (models.Partner, error) {
	img, err := o.imageRepo.GetImage(ctx, imageID)
	if err != nil {
		return models.Partner{}, err
	}

	if _, err := o.ensureHosted(ctx, img); err != nil {
		return models.Partner{}, err
	}

	partner, err := o.partnerRepo.UpsertPartner(ctx, userID, imageID)
	if err != nil {
		return models.Partner{}, fmt.Errorf("bind partner: %w", err)
	}
	return partner, nil
}

// UploadOriginalImage hosts a user-supplied image payload, inserts it as a
// new Image and binds it as the user's partner.
func (o *Orchestrator) UploadOriginalImage(ctx context.Context, userID int, data []byte, contentType string) (models.Partner, error) {
	imgURL, err := o.media.UploadImage(ctx, data, contentType)
	if err != nil {
		return models.Partner{}, err
	}

	img := models.Image{ImgBase64: base64.StdEncoding.EncodeToString(data)}
	img.ImgURL.String, img.ImgURL.Valid = imgURL, true

	saved, err := o.imageRepo.InsertImage(ctx, img)
	if err != nil {
		return models.Partner{}, fmt.Errorf("insert image: %w", err)
	}

	partner, err := o.partnerRepo.UpsertPartner(ctx, userID, saved.ID)
	if err != nil {
		return models.Partner{}, fmt.Errorf("bind partner: %w", err)
	}
	return partner, nil
}

// ApplyPersona updates the partner's persona attributes and resynchronizes
// the chat system prompt. It fails with repositories.ErrPartnerNotFound when
// the user has no partner bound.
func (o *Orchestrator) ApplyPersona(ctx context.Context, userID int, persona models.Persona) (models.Partner, error) {
	partner, err := o.partnerRepo.UpdatePersona(ctx, userID, persona)
	if err != nil {
		return models.Partner{}, err
	}

	// Persona update happens-before prompt resync so the two documents
	// never diverge.
	if _, err := o.prompts.SyncSystemPrompt(ctx, userID, persona); err != nil {
		return models.Partner{}, fmt.Errorf("sync system prompt: %w", err)
	}
	return partner, nil
}

// ProvisionIdleVideo is the cache-filling step: it renders, relays and
// persists the idle video for an image, short-circuiting when the durable
// URL already exists. The persisted job id acts as a checkpoint so a retry
// after a crash resumes polling instead of resubmitting the job.
func (o *Orchestrator) ProvisionIdleVideo(ctx context.Context, imageID int) (string, error) {
	unlock := o.lockImage(imageID)
	defer unlock()

	img, err := o.imageRepo.GetImage(ctx, imageID)
	if err != nil {
		return "", err
	}

	if img.VideoURL.Valid {
		observability.IncProvisionCacheHit()
		return img.VideoURL.String, nil
	}

	videoID := img.VideoID.String
	if !img.VideoID.Valid {
		imgURL, err := o.ensureHosted(ctx, img)
		if err != nil {
			return "", err
		}

		videoID, err = o.talks.CreateIdleTalk(ctx, imgURL)
		if err != nil {
			return "", err
		}
		// Checkpoint the job id before polling so a crashed or failed
		// attempt never resubmits a duplicate job.
		if err := o.imageRepo.SetVideoID(ctx, imageID, videoID); err != nil {
			return "", fmt.Errorf("checkpoint video id: %w", err)
		}
		observability.IncProvisionSubmitted()
		log.Printf("idle video job submitted image_id=%d video_id=%s", imageID, videoID)
	}

	resultURL, err := o.awaitTalk(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrProvisionTimeout) {
			observability.IncProvisionTimeout()
		}
		return "", err
	}

	durableURL, err := o.media.RelayVideo(ctx, resultURL)
	if err != nil {
		return "", err
	}

	if err := o.imageRepo.SetVideoURL(ctx, imageID, durableURL); err != nil {
		return "", fmt.Errorf("persist video url: %w", err)
	}
	observability.IncProvisionCompleted()
	log.Printf("idle video provisioned image_id=%d video_id=%s", imageID, videoID)
	return durableURL, nil
}

// ensureHosted fills the hosted-image cache field at most once and returns
// the public image URL.
func (o *Orchestrator) ensureHosted(ctx context.Context, img models.Image) (string, error) {
	if img.ImgURL.Valid {
		return img.ImgURL.String, nil
	}

	data, err := base64.StdEncoding.DecodeString(img.ImgBase64)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}

	imgURL, err := o.media.UploadImage(ctx, data, "")
	if err != nil {
		return "", err
	}
	if err := o.imageRepo.SetImageURL(ctx, img.ID, imgURL); err != nil {
		return "", fmt.Errorf("persist image url: %w", err)
	}
	return imgURL, nil
}

// awaitTalk polls the job status with exponential backoff until the job is
// done, the context is cancelled or the poll deadline expires.
func (o *Orchestrator) awaitTalk(ctx context.Context, videoID string) (string, error) {
	deadline := time.Now().Add(o.pollDeadline)
	interval := o.pollInterval

	for {
		observability.IncPollAttempt()
		talk, err := o.talks.GetTalk(ctx, videoID)
		if err != nil {
			return "", err
		}
		if talk.Status == talks.StatusDone {
			return talk.ResultURL, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: video_id=%s last_status=%s", ErrProvisionTimeout, videoID, talk.Status)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		interval *= 2
		if interval > o.pollMaxWait {
			interval = o.pollMaxWait
		}
	}
}

// lockImage serializes provisioning per image so concurrent attempts cannot
// submit duplicate jobs.
func (o *Orchestrator) lockImage(imageID int) func() {
	o.mu.Lock()
	lock, ok := o.imageLocks[imageID]
	if !ok {
		lock = &sync.Mutex{}
		o.imageLocks[imageID] = lock
	}
	o.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
