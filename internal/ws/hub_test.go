package ws

import (
	"testing"

	"github.com/Cyberlove-your-dreampartner/backend/internal/models"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient(1, nil, ConnInfo{ConnID: "a", UserID: 1})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected user room to be created")
	}

	hub.RemoveClient(1, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected user room to be removed")
	}
}

func TestHubBroadcastToUnknownUserIsNoop(t *testing.T) {
	hub := NewHub()

	// Must not panic when the user has no connections.
	hub.BroadcastUserEvent(42, models.UserEvent{Type: "video_ready"})
}
