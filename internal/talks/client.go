package talks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Cyberlove-your-dreampartner/backend/internal/config"
)

// ErrUpstream marks a non-success response from the talks API.
var ErrUpstream = errors.New("talks api error")

// StatusDone is the terminal job state after which the result URL is valid.
const StatusDone = "done"

// idleScript is the scripted utterance for idle videos: a long synthetic
// pause that renders a neutral talking-head loop.
var idleScript = strings.Repeat(`<break time="1000ms"/>`, 15)

// Service submits talking-video jobs and reports their status.
type Service interface {
	CreateIdleTalk(ctx context.Context, sourceImageURL string) (string, error)
	GetTalk(ctx context.Context, talkID string) (Talk, error)
}

// Talk is the polled job status.
type Talk struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
}

// Client is an HTTP client for the talking-video job service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a Client from configuration.
func NewClient(cfg config.TalksConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type createTalkRequest struct {
	Script    script     `json:"script"`
	Config    talkConfig `json:"config"`
	SourceURL string     `json:"source_url"`
}

type script struct {
	Type  string `json:"type"`
	SSML  bool   `json:"ssml"`
	Input string `json:"input"`
}

type talkConfig struct {
	Stitch bool `json:"stitch"`
}

// CreateIdleTalk submits an idle-video job for the hosted source image and
// returns the upstream job id.
func (c *Client) CreateIdleTalk(ctx context.Context, sourceImageURL string) (string, error) {
	body, err := json.Marshal(createTalkRequest{
		Script:    script{Type: "text", SSML: true, Input: idleScript},
		Config:    talkConfig{Stitch: true},
		SourceURL: sourceImageURL,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/talks", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create talk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: create talk returned %d", ErrUpstream, resp.StatusCode)
	}

	var talk Talk
	if err := json.NewDecoder(resp.Body).Decode(&talk); err != nil {
		return "", fmt.Errorf("decode create talk response: %w", err)
	}
	if talk.ID == "" {
		return "", fmt.Errorf("%w: create talk returned empty id", ErrUpstream)
	}
	return talk.ID, nil
}

// GetTalk reports the status of a previously submitted job. The result URL
// is transient and only present once Status is done.
func (c *Client) GetTalk(ctx context.Context, talkID string) (Talk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/talks/"+talkID, nil)
	if err != nil {
		return Talk{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Talk{}, fmt.Errorf("get talk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Talk{}, fmt.Errorf("%w: get talk returned %d", ErrUpstream, resp.StatusCode)
	}

	var talk Talk
	if err := json.NewDecoder(resp.Body).Decode(&talk); err != nil {
		return Talk{}, fmt.Errorf("decode talk status: %w", err)
	}
	return talk, nil
}
