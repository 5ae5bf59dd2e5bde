package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message belongs to exactly one conversation: either ApplicationID or
// BookingID is set, matching ConversationType. History is totally ordered by
// CreatedAt ascending; CreatedAt is assigned by the server at persist time.
type Message struct {
	ID               uuid.UUID        `json:"id"`
	ApplicationID    *uuid.UUID       `json:"application_id,omitempty"`
	BookingID        *uuid.UUID       `json:"booking_id,omitempty"`
	ConversationType ConversationKind `json:"conversation_type"`
	Sender           Participant      `json:"sender"`
	Receiver         Participant      `json:"receiver"`
	Content          string           `json:"content"`
	Read             bool             `json:"read"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ConversationID returns the id of the conversation the message belongs to.
func (m *Message) ConversationID() uuid.UUID {
	switch m.ConversationType {
	case ConversationKindJob:
		if m.ApplicationID != nil {
			return *m.ApplicationID
		}
	case ConversationKindService:
		if m.BookingID != nil {
			return *m.BookingID
		}
	}
	return uuid.Nil
}
