package chatclient

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
)

// ViewState tracks the selected conversation and its loaded message list.
//
// Every history load is tagged with a sequence number taken at selection
// time; a result arriving after the selection moved on is discarded, so a
// fast A -> B switch never shows A's history under B. Incoming realtime
// messages append at the tail only when they belong to the selected
// conversation, and a message id never appears twice in the list.
type ViewState struct {
	transport Transport
	gateway   Gateway

	mu            sync.Mutex
	conversations []domain.Conversation
	selected      *domain.Conversation
	messages      []*domain.Message
	seen          map[uuid.UUID]struct{}
	loadSeq       uint64

	// onAppend fires after the message list grows; the UI hangs
	// auto-scroll off it.
	onAppend func()
}

func NewViewState(transport Transport, gateway Gateway) *ViewState {
	return &ViewState{
		transport: transport,
		gateway:   gateway,
		seen:      make(map[uuid.UUID]struct{}),
	}
}

// SetOnAppend registers the list-growth hook. Pass nil to clear it.
func (v *ViewState) SetOnAppend(fn func()) {
	v.mu.Lock()
	v.onAppend = fn
	v.mu.Unlock()
}

// SetConversations replaces the conversation list (already sorted
// newest-first by the resolver). When nothing is selected yet the newest
// conversation is selected automatically.
func (v *ViewState) SetConversations(ctx context.Context, conversations []domain.Conversation) error {
	v.mu.Lock()
	v.conversations = conversations
	alreadySelected := v.selected != nil
	v.mu.Unlock()

	if alreadySelected || len(conversations) == 0 {
		return nil
	}
	return v.Select(ctx, conversations[0])
}

// Select switches to the conversation: joins its room (idempotent, staying
// joined to previous rooms is harmless since delivery is room-scoped) and
// loads its history. Safe to call again for the same conversation.
func (v *ViewState) Select(ctx context.Context, conversation domain.Conversation) error {
	v.mu.Lock()
	conv := conversation
	v.selected = &conv
	v.messages = nil
	v.seen = make(map[uuid.UUID]struct{})
	v.loadSeq++
	seq := v.loadSeq
	v.mu.Unlock()

	// Join is remembered by the transport even while disconnected, so a
	// failure here never blocks the history load.
	_ = v.transport.Join(conversation.ID)

	messages, err := v.gateway.LoadHistory(ctx, conversation.ID, conversation.Kind)
	if err != nil {
		return err
	}

	v.applyHistory(seq, conversation.ID, messages)
	return nil
}

// applyHistory installs a load result unless the selection moved on while
// the load was in flight. Messages that arrived live during the load are
// kept: anything already in the list but missing from the history response
// is re-appended after it.
func (v *ViewState) applyHistory(seq uint64, conversationID uuid.UUID, messages []*domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.loadSeq || v.selected == nil || v.selected.ID != conversationID {
		return
	}

	arrived := v.messages

	// The server returns history ascending by created_at; it is never
	// reordered here.
	v.messages = make([]*domain.Message, 0, len(messages)+len(arrived))
	v.seen = make(map[uuid.UUID]struct{}, len(messages)+len(arrived))
	for _, m := range messages {
		v.messages = append(v.messages, m)
		v.seen[m.ID] = struct{}{}
	}
	for _, m := range arrived {
		if _, known := v.seen[m.ID]; known {
			continue
		}
		v.messages = append(v.messages, m)
		v.seen[m.ID] = struct{}{}
	}
	v.notifyLocked()
}

// HandleReceive is the transport's receive hook: tail-append when the
// message belongs to the selected conversation, drop otherwise. Messages
// for non-selected joined rooms are dropped (no unread badge in this core).
func (v *ViewState) HandleReceive(message *domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.selected == nil || message.ConversationID() != v.selected.ID {
		return
	}
	v.appendLocked(message)
}

// Append installs a message the caller created through the fallback path,
// where no receive event will fire for the sender.
func (v *ViewState) Append(message *domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.appendLocked(message)
}

func (v *ViewState) appendLocked(message *domain.Message) {
	if _, dup := v.seen[message.ID]; dup {
		return
	}
	v.seen[message.ID] = struct{}{}
	v.messages = append(v.messages, message)
	v.notifyLocked()
}

func (v *ViewState) notifyLocked() {
	if v.onAppend != nil {
		go v.onAppend()
	}
}

// Selected reports the current conversation, if any.
func (v *ViewState) Selected() (domain.Conversation, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return domain.Conversation{}, false
	}
	return *v.selected, true
}

// Conversations returns the resolved conversation list.
func (v *ViewState) Conversations() []domain.Conversation {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Conversation, len(v.conversations))
	copy(out, v.conversations)
	return out
}

// Messages returns a snapshot of the selected conversation's messages.
func (v *ViewState) Messages() []*domain.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*domain.Message, len(v.messages))
	copy(out, v.messages)
	return out
}
