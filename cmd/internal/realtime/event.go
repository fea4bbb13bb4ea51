package realtime

import (
	"time"

	"sampleapp/cmd/internal/micropost"
)

// Event types sent to feed clients.
const (
	TypeHello            = "hello"
	TypeMicropostCreated = "micropost.created"
	TypeMicropostDeleted = "micropost.deleted"
	TypeError            = "error"
)

// Event is one JSON frame on the feed socket.
type Event struct {
	Type      string               `json:"type"`
	UserID    string               `json:"user_id,omitempty"`
	Micropost *micropost.Micropost `json:"micropost,omitempty"`
	Code      string               `json:"code,omitempty"`
	Message   string               `json:"message,omitempty"`
	At        time.Time            `json:"at"`
}

func micropostEvent(typ string, p micropost.Micropost) Event {
	return Event{Type: typ, UserID: p.UserID, Micropost: &p, At: time.Now().UTC()}
}
