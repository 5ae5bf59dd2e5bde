package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConnection builds a connection that is never started, so frames stay
// in its send buffer where the test can observe them.
func testConnection() *Connection {
	return NewConnection(uuid.New(), nil)
}

func drain(c *Connection) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestBroadcastIsRoomScoped(t *testing.T) {
	hub := NewHub()
	roomA := uuid.NewString()
	roomB := uuid.NewString()

	inA := testConnection()
	alsoInA := testConnection()
	onlyInB := testConnection()

	for _, conn := range []*Connection{inA, alsoInA, onlyInB} {
		hub.Attach(conn)
	}
	hub.Join(roomA, inA)
	hub.Join(roomA, alsoInA)
	hub.Join(roomB, onlyInB)

	delivered := hub.Broadcast(roomA, []byte("hello"))
	assert.Equal(t, 2, delivered)

	assert.Len(t, drain(inA), 1)
	assert.Len(t, drain(alsoInA), 1)
	assert.Empty(t, drain(onlyInB), "sessions joined only to another room must not receive the message")
}

func TestBroadcastIncludesEmitter(t *testing.T) {
	hub := NewHub()
	room := uuid.NewString()

	sender := testConnection()
	receiver := testConnection()
	hub.Attach(sender)
	hub.Attach(receiver)
	hub.Join(room, sender)
	hub.Join(room, receiver)

	// The sender's session receives its own message like any other member.
	delivered := hub.Broadcast(room, []byte("hi"))
	assert.Equal(t, 2, delivered)
	assert.Len(t, drain(sender), 1)
	assert.Len(t, drain(receiver), 1)
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	room := uuid.NewString()

	conn := testConnection()
	hub.Attach(conn)
	hub.Join(room, conn)
	hub.Join(room, conn)
	hub.Join(room, conn)

	delivered := hub.Broadcast(room, []byte("once"))
	assert.Equal(t, 1, delivered)
	assert.Len(t, drain(conn), 1)
}

func TestJoinWithoutAttachIsIgnored(t *testing.T) {
	hub := NewHub()
	room := uuid.NewString()

	conn := testConnection()
	hub.Join(room, conn)

	assert.Zero(t, hub.Broadcast(room, []byte("nope")))
}

func TestDetachRemovesAllMemberships(t *testing.T) {
	hub := NewHub()
	roomA := uuid.NewString()
	roomB := uuid.NewString()

	conn := testConnection()
	hub.Attach(conn)
	hub.Join(roomA, conn)
	hub.Join(roomB, conn)

	hub.Detach(conn)

	assert.Zero(t, hub.Broadcast(roomA, []byte("gone")))
	assert.Zero(t, hub.Broadcast(roomB, []byte("gone")))
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewHub()
	room := uuid.NewString()

	staying := testConnection()
	leaving := testConnection()
	hub.Attach(staying)
	hub.Attach(leaving)
	hub.Join(room, staying)
	hub.Join(room, leaving)

	hub.Leave(room, leaving)

	delivered := hub.Broadcast(room, []byte("bye"))
	assert.Equal(t, 1, delivered)
	assert.Len(t, drain(staying), 1)
	assert.Empty(t, drain(leaving))
}

func TestSendOrderIsPreserved(t *testing.T) {
	hub := NewHub()
	room := uuid.NewString()

	conn := testConnection()
	hub.Attach(conn)
	hub.Join(room, conn)

	hub.Broadcast(room, []byte("first"))
	hub.Broadcast(room, []byte("second"))
	hub.Broadcast(room, []byte("third"))

	frames := drain(conn)
	require.Len(t, frames, 3)
	assert.Equal(t, "first", string(frames[0]))
	assert.Equal(t, "second", string(frames[1]))
	assert.Equal(t, "third", string(frames[2]))
}
