package models

import (
	"database/sql"
	"time"
)

// Image is a shared visual asset. The URL and video fields are populated at
// most once (compute once, read many): ImgURL when the image is first hosted,
// VideoID when an idle-video job is submitted, VideoURL when the rendered
// result has been relayed to durable storage.
type Image struct {
	ID        int            `db:"id" json:"id"`
	ImgBase64 string         `db:"img_base64" json:"-"`
	ImgURL    sql.NullString `db:"img_url" json:"img_url,omitempty"`
	VideoID   sql.NullString `db:"video_id" json:"-"`
	VideoURL  sql.NullString `db:"video_url" json:"video_url,omitempty"`
	Origin    string         `db:"origin" json:"origin"`
	Hair      string         `db:"hair" json:"hair"`
	HairColor string         `db:"hair_color" json:"hair_color"`
	Breast    string         `db:"breast" json:"breast"`
	Glasses   string         `db:"glasses" json:"glasses"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// ImageFilter is a partial filter over the categorical tags. Nil fields
// impose no constraint.
type ImageFilter struct {
	Origin    *string `json:"origin,omitempty"`
	Hair      *string `json:"hair,omitempty"`
	HairColor *string `json:"hairColor,omitempty"`
	Breast    *string `json:"breast,omitempty"`
	Glasses   *string `json:"glasses,omitempty"`
}

// ImageCandidate is the sampled view returned to partner selection.
type ImageCandidate struct {
	ImageID     int    `db:"id" json:"imageId"`
	ImageBase64 string `db:"img_base64" json:"imageBase64"`
}
