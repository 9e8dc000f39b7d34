package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Cyberlove-your-dreampartner/backend/internal/config"
)

// ErrRelay marks a failed hosting or relay operation.
var ErrRelay = errors.New("media relay error")

// maxRelayBytes caps how much of a transient video is buffered during relay.
const maxRelayBytes = 256 << 20

// MediaStore hosts raw image payloads and relays transient video URLs into
// durable, publicly servable storage.
type MediaStore interface {
	UploadImage(ctx context.Context, data []byte, contentType string) (string, error)
	RelayVideo(ctx context.Context, transientURL string) (string, error)
}

// S3Store is an S3-compatible MediaStore.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	http          *http.Client
}

// NewS3Store builds an S3Store against the configured endpoint with static
// credentials.
func NewS3Store(cfg config.StorageConfig) *S3Store {
	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		http:          &http.Client{Timeout: 2 * time.Minute},
	}
}

// UploadImage stores a raw image payload and returns its durable public URL.
func (s *S3Store) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	key := "partner-images/" + uuid.NewString()
	if contentType == "" {
		contentType = "image/png"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload image: %v", ErrRelay, err)
	}
	return s.publicURL(key), nil
}

// RelayVideo downloads a transient video result and re-hosts it durably,
// returning the public URL.
func (s *S3Store) RelayVideo(ctx context.Context, transientURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, transientURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch transient video: %v", ErrRelay, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch transient video returned %d", ErrRelay, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read transient video: %v", ErrRelay, err)
	}

	key := "idle-videos/" + uuid.NewString() + ".mp4"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("video/mp4"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: store video: %v", ErrRelay, err)
	}
	return s.publicURL(key), nil
}

func (s *S3Store) publicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
