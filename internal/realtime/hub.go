package realtime

import (
	"sync"
)

// Hub tracks websocket sessions and conversation rooms. A room is keyed by
// the bare conversation id (application or booking id; the two id spaces are
// disjoint) and scopes broadcast strictly to the sessions that joined it.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	rooms        map[string]map[string]*Connection // conversationID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of conversationIDs
}

func NewHub() *Hub {
	return &Hub{
		sessions:     make(map[string]*Connection),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a connection. The caller owns starting its write loop.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	h.sessions[conn.SessionID] = conn
	h.sessionRooms[conn.SessionID] = make(map[string]struct{})
	h.mu.Unlock()
}

// Detach removes a connection and all its room memberships.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	h.detachLocked(conn.SessionID)
	h.mu.Unlock()
}

// Join adds the connection to a conversation room. Joining a room the
// session is already in is a no-op.
func (h *Hub) Join(conversationID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[conn.SessionID]; !ok {
		return
	}

	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Connection)
		h.rooms[conversationID] = room
	}
	room[conn.SessionID] = conn

	memberships := h.sessionRooms[conn.SessionID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		h.sessionRooms[conn.SessionID] = memberships
	}
	memberships[conversationID] = struct{}{}
}

// Leave removes the connection from a conversation room.
func (h *Hub) Leave(conversationID string, conn *Connection) {
	h.mu.Lock()
	h.leaveLocked(conversationID, conn.SessionID)
	h.mu.Unlock()
}

// Broadcast delivers payload to every session joined to the conversation,
// the emitting session included: the sender renders its own message from the
// same receive event as everyone else. Returns the delivered count.
func (h *Hub) Broadcast(conversationID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[conversationID]
	if len(room) == 0 {
		return 0
	}

	delivered := 0
	for _, conn := range room {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		sessions = append(sessions, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.rooms = make(map[string]map[string]*Connection)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "server shutdown")
	}
}

func (h *Hub) detachLocked(sessionID string) {
	if _, ok := h.sessions[sessionID]; !ok {
		return
	}
	delete(h.sessions, sessionID)

	for roomID := range h.sessionRooms[sessionID] {
		h.leaveLocked(roomID, sessionID)
	}
	delete(h.sessionRooms, sessionID)
}

func (h *Hub) leaveLocked(conversationID, sessionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, conversationID)
	}
}
