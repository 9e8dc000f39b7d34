package models

import "time"

// Partner binds a user to exactly one Image plus editable persona attributes.
// At most one partner row exists per user; re-selecting a partner replaces
// the binding in place.
type Partner struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	ImageID     int       `db:"image_id" json:"image_id"`
	Nickname    string    `db:"nickname" json:"nickname"`
	Name        string    `db:"name" json:"name"`
	MBTI        string    `db:"mbti" json:"MBTI"`
	Job         string    `db:"job" json:"job"`
	Personality string    `db:"personality" json:"personality"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Persona carries the user-editable persona attributes of a partner.
type Persona struct {
	Nickname    string `json:"nickname"`
	Name        string `json:"name"`
	MBTI        string `json:"MBTI"`
	Job         string `json:"job"`
	Personality string `json:"personality"`
}
