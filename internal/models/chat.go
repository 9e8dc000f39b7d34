package models

import "time"

// Chat is the single conversation a user holds with their partner. The
// system prompt is regenerated whenever the partner's persona changes.
type Chat struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"user_id"`
	SystemPrompt string    `db:"system_prompt" json:"system_prompt"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ChatMessage is one entry of the append-only message log.
type ChatMessage struct {
	ID        int       `db:"id" json:"-"`
	ChatID    int       `db:"chat_id" json:"-"`
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// UserEvent is pushed over the per-user websocket stream.
type UserEvent struct {
	Type     string       `json:"type"`
	Message  *ChatMessage `json:"message,omitempty"`
	VideoURL string       `json:"video_url,omitempty"`
	ImageID  int          `json:"image_id,omitempty"`
}
