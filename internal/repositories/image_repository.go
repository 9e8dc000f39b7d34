package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
)

var ErrImageNotFound = errors.New("image not found")

// ImageRepository abstracts image persistence and sampling.
type ImageRepository interface {
	GetImage(ctx context.Context, imageID int) (models.Image, error)
	InsertImage(ctx context.Context, img models.Image) (models.Image, error)
	SampleImages(ctx context.Context, filter models.ImageFilter, size int) ([]models.ImageCandidate, error)
	SetImageURL(ctx context.Context, imageID int, imgURL string) error
	SetVideoID(ctx context.Context, imageID int, videoID string) error
	SetVideoURL(ctx context.Context, imageID int, videoURL string) error
}

// ImageRepo is a sqlx implementation of ImageRepository.
type ImageRepo struct {
	db *sqlx.DB
}

// NewImageRepo constructs an ImageRepo.
func NewImageRepo(db *sqlx.DB) *ImageRepo {
	return &ImageRepo{db: db}
}

const imageColumns = `id, img_base64, img_url, video_id, video_url, origin, hair, hair_color, breast, glasses, created_at`

// GetImage fetches an image by id.
func (r *ImageRepo) GetImage(ctx context.Context, imageID int) (models.Image, error) {
	var img models.Image
	err := r.db.GetContext(ctx, &img,
		`SELECT `+imageColumns+` FROM images WHERE id=$1`, imageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Image{}, ErrImageNotFound
	}
	return img, err
}

// InsertImage stores a new image asset.
func (r *ImageRepo) InsertImage(ctx context.Context, img models.Image) (models.Image, error) {
	var saved models.Image
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO images (img_base64, img_url, origin, hair, hair_color, breast, glasses)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+imageColumns,
		img.ImgBase64, img.ImgURL, img.Origin, img.Hair, img.HairColor, img.Breast, img.Glasses).
		StructScan(&saved)
	return saved, err
}

// SampleImages draws a random sample of images matching the partial filter.
// Absent filter fields impose no constraint; fewer than size rows may match.
func (r *ImageRepo) SampleImages(ctx context.Context, filter models.ImageFilter, size int) ([]models.ImageCandidate, error) {
	conditions := []string{}
	args := []interface{}{}

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		conditions = append(conditions, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	add("origin", filter.Origin)
	add("hair", filter.Hair)
	add("hair_color", filter.HairColor)
	add("breast", filter.Breast)
	add("glasses", filter.Glasses)

	query := `SELECT id, img_base64 FROM images`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, size)
	query += fmt.Sprintf(` ORDER BY random() LIMIT $%d`, len(args))

	var candidates []models.ImageCandidate
	err := r.db.SelectContext(ctx, &candidates, query, args...)
	return candidates, err
}

// SetImageURL fills the hosted-image cache field.
func (r *ImageRepo) SetImageURL(ctx context.Context, imageID int, imgURL string) error {
	return r.updateField(ctx, "img_url", imageID, imgURL)
}

// SetVideoID checkpoints the submitted job id so a retry does not resubmit.
func (r *ImageRepo) SetVideoID(ctx context.Context, imageID int, videoID string) error {
	return r.updateField(ctx, "video_id", imageID, videoID)
}

// SetVideoURL fills the durable idle-video cache field.
func (r *ImageRepo) SetVideoURL(ctx context.Context, imageID int, videoURL string) error {
	return r.updateField(ctx, "video_url", imageID, videoURL)
}

func (r *ImageRepo) updateField(ctx context.Context, column string, imageID int, value string) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE images SET %s=$1 WHERE id=$2`, column), value, imageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrImageNotFound
	}
	return nil
}
