package chatclient

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
)

func messageFor(conv domain.Conversation, content string) *domain.Message {
	message := &domain.Message{
		ID:               uuid.New(),
		ConversationType: conv.Kind,
		Content:          content,
		CreatedAt:        time.Now(),
	}
	id := conv.ID
	switch conv.Kind {
	case domain.ConversationKindJob:
		message.ApplicationID = &id
	case domain.ConversationKindService:
		message.BookingID = &id
	}
	return message
}

func TestSelectLoadsHistoryAndJoinsRoom(t *testing.T) {
	transport := &fakeTransport{connected: true}
	conv := jobConversation()
	gateway := &fakeGateway{history: map[uuid.UUID][]*domain.Message{
		conv.ID: {messageFor(conv, "first"), messageFor(conv, "second")},
	}}
	view := NewViewState(transport, gateway)

	require.NoError(t, view.Select(context.Background(), conv))

	assert.Equal(t, []uuid.UUID{conv.ID}, transport.joined)

	messages := view.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)

	selected, ok := view.Selected()
	require.True(t, ok)
	assert.Equal(t, conv.ID, selected.ID)
}

func TestSetConversationsAutoSelectsNewest(t *testing.T) {
	transport := &fakeTransport{}
	newest := jobConversation()
	older := jobConversation()
	gateway := &fakeGateway{history: make(map[uuid.UUID][]*domain.Message)}
	view := NewViewState(transport, gateway)

	require.NoError(t, view.SetConversations(context.Background(), []domain.Conversation{newest, older}))

	selected, ok := view.Selected()
	require.True(t, ok)
	assert.Equal(t, newest.ID, selected.ID)

	// A later refresh must not steal the selection.
	require.NoError(t, view.SetConversations(context.Background(), []domain.Conversation{older, newest}))
	selected, _ = view.Selected()
	assert.Equal(t, newest.ID, selected.ID)
}

func TestReceiveAppendsOnlyForSelectedConversation(t *testing.T) {
	transport := &fakeTransport{}
	selected := jobConversation()
	other := jobConversation()
	gateway := &fakeGateway{history: make(map[uuid.UUID][]*domain.Message)}
	view := NewViewState(transport, gateway)
	require.NoError(t, view.Select(context.Background(), selected))

	view.HandleReceive(messageFor(selected, "for me"))
	view.HandleReceive(messageFor(other, "for another room"))

	messages := view.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "for me", messages[0].Content)
}

func TestReceiveDeduplicatesByID(t *testing.T) {
	transport := &fakeTransport{}
	conv := jobConversation()
	gateway := &fakeGateway{history: make(map[uuid.UUID][]*domain.Message)}
	view := NewViewState(transport, gateway)
	require.NoError(t, view.Select(context.Background(), conv))

	message := messageFor(conv, "once")
	view.Append(message)
	view.HandleReceive(message)

	assert.Len(t, view.Messages(), 1)
}

// blockingGateway holds every LoadHistory call until released, simulating a
// slow request so a conversation switch can overtake it.
type blockingGateway struct {
	fakeGateway
	mu      sync.Mutex
	blocked map[uuid.UUID]chan struct{}
}

func (b *blockingGateway) LoadHistory(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind) ([]*domain.Message, error) {
	b.mu.Lock()
	release, ok := b.blocked[conversationID]
	b.mu.Unlock()
	if ok {
		<-release
	}
	return b.fakeGateway.LoadHistory(ctx, conversationID, kind)
}

func TestStaleHistoryResultIsDiscarded(t *testing.T) {
	transport := &fakeTransport{}
	convA := jobConversation()
	convB := jobConversation()

	releaseA := make(chan struct{})
	gateway := &blockingGateway{
		fakeGateway: fakeGateway{history: map[uuid.UUID][]*domain.Message{
			convA.ID: {messageFor(convA, "A's history")},
			convB.ID: {messageFor(convB, "B's history")},
		}},
		blocked: map[uuid.UUID]chan struct{}{convA.ID: releaseA},
	}
	view := NewViewState(transport, gateway)

	done := make(chan error, 1)
	go func() {
		done <- view.Select(context.Background(), convA)
	}()

	// Switch to B while A's load is still in flight, then let A resolve.
	require.Eventually(t, func() bool {
		selected, ok := view.Selected()
		return ok && selected.ID == convA.ID
	}, time.Second, time.Millisecond)

	require.NoError(t, view.Select(context.Background(), convB))
	close(releaseA)
	require.NoError(t, <-done)

	messages := view.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "B's history", messages[0].Content, "A's late result must not leak into B's view")
}

func TestReceiveDuringHistoryLoadIsKept(t *testing.T) {
	transport := &fakeTransport{}
	conv := jobConversation()

	release := make(chan struct{})
	gateway := &blockingGateway{
		fakeGateway: fakeGateway{history: map[uuid.UUID][]*domain.Message{
			conv.ID: {messageFor(conv, "old history message")},
		}},
		blocked: map[uuid.UUID]chan struct{}{conv.ID: release},
	}
	view := NewViewState(transport, gateway)

	done := make(chan error, 1)
	go func() {
		done <- view.Select(context.Background(), conv)
	}()

	// A live message lands while the history request is still in flight.
	require.Eventually(t, func() bool {
		selected, ok := view.Selected()
		return ok && selected.ID == conv.ID
	}, time.Second, time.Millisecond)

	live := messageFor(conv, "live message during load")
	view.HandleReceive(live)

	close(release)
	require.NoError(t, <-done)

	messages := view.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "old history message", messages[0].Content)
	assert.Equal(t, "live message during load", messages[1].Content, "a message received mid-load must survive the load resolving")

	// The same message echoed by the server later must not duplicate.
	view.HandleReceive(live)
	assert.Len(t, view.Messages(), 2)
}

func TestOnAppendFiresWhenListGrows(t *testing.T) {
	transport := &fakeTransport{}
	conv := jobConversation()
	gateway := &fakeGateway{history: make(map[uuid.UUID][]*domain.Message)}
	view := NewViewState(transport, gateway)
	require.NoError(t, view.Select(context.Background(), conv))

	notified := make(chan struct{}, 4)
	view.SetOnAppend(func() { notified <- struct{}{} })

	view.HandleReceive(messageFor(conv, "grow"))

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("expected the append hook to fire")
	}
}
