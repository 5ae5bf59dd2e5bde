package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversationKind tags which relationship a conversation is derived from.
type ConversationKind string

const (
	ConversationKindJob     ConversationKind = "job"
	ConversationKindService ConversationKind = "service"
)

func (k ConversationKind) Valid() bool {
	return k == ConversationKindJob || k == ConversationKindService
}

// ConversationSubject is a denormalized snapshot of the underlying job or
// service, used for contextual display only. It is refreshed from the source
// record on every resolution and carries no authority.
type ConversationSubject struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Price    *float64 `json:"price,omitempty"`
	Status   string   `json:"status"`
}

// Conversation is derived at read time from an approved job application or
// an approved service booking. It is never stored: when the underlying
// relationship stops being approved the conversation stops existing.
//
// ID is the underlying relationship id (application or booking). Application
// and booking ids come from disjoint uuid spaces, so the bare id is also the
// realtime room key.
type Conversation struct {
	ID           uuid.UUID           `json:"id"`
	Kind         ConversationKind    `json:"kind"`
	Counterparty Participant         `json:"counterparty"`
	Subject      ConversationSubject `json:"subject"`
	CreatedAt    time.Time           `json:"created_at"`
}
