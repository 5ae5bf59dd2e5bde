package chatclient

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

// MessagePayload is the body of a send_message frame. The sender is implied
// by the authenticated session and never part of the payload.
type MessagePayload struct {
	ReceiverID       uuid.UUID               `json:"receiver_id"`
	Content          string                  `json:"content"`
	ConversationType domain.ConversationKind `json:"conversation_type"`
	ApplicationID    *uuid.UUID              `json:"application_id,omitempty"`
	BookingID        *uuid.UUID              `json:"booking_id,omitempty"`
}

// Transport is the realtime channel: one connection per client session,
// room-scoped delivery. Connected is a synchronous check, never a wait;
// the delivery coordinator decides the fallback from it immediately.
type Transport interface {
	Connected() bool
	Join(conversationID uuid.UUID) error
	Emit(payload MessagePayload) error
	Close() error
}

// ReceiveHandler is invoked from the read loop for every receive_message
// frame, in the order the server emitted them to the session.
type ReceiveHandler func(message *domain.Message)

type clientFrame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Payload        *MessagePayload `json:"payload,omitempty"`
}

type serverFrame struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Error   string          `json:"error,omitempty"`
}

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// WSTransport is the gorilla/websocket implementation of Transport. It owns
// the socket lifecycle: dialed on Connect, reconnected with capped backoff
// after transient loss, and re-joins its rooms silently after a reconnect.
type WSTransport struct {
	url       string
	onReceive ReceiveHandler
	log       logger.Logger

	connected atomic.Bool
	closed    atomic.Bool
	dialing   atomic.Bool

	mu     sync.Mutex
	ws     *websocket.Conn
	joined map[uuid.UUID]struct{}
	done   chan struct{}
}

// NewWSTransport builds a transport for the given websocket URL (including
// the token query parameter). Call Connect to establish the channel.
func NewWSTransport(url string, onReceive ReceiveHandler, log logger.Logger) *WSTransport {
	return &WSTransport{
		url:       url,
		onReceive: onReceive,
		log:       log,
		joined:    make(map[uuid.UUID]struct{}),
		done:      make(chan struct{}),
	}
}

// Connect dials the server and starts the read loop. A dial failure leaves
// the transport disconnected but alive: the reconnect loop keeps trying in
// the background, and sends fall back to HTTP until it succeeds. At most
// one dialer runs at a time; a Connect overlapping an in-flight redial
// reports ErrTransport instead of opening a second socket.
func (t *WSTransport) Connect() error {
	if t.connected.Load() {
		return nil
	}
	if !t.dialing.CompareAndSwap(false, true) {
		return apperrors.ErrTransport
	}

	ws, _, err := websocket.DefaultDialer.Dial(t.url, nil)
	if err != nil {
		// The reconnect loop inherits the dialing flag.
		go t.reconnectLoop()
		return fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
	}

	t.dialing.Store(false)
	t.attach(ws)
	return nil
}

func (t *WSTransport) Connected() bool {
	return t.connected.Load()
}

// Join subscribes the session to a conversation room. Joins are idempotent
// and remembered, so they survive a reconnect.
func (t *WSTransport) Join(conversationID uuid.UUID) error {
	t.mu.Lock()
	if _, ok := t.joined[conversationID]; ok {
		t.mu.Unlock()
		return nil
	}
	t.joined[conversationID] = struct{}{}
	ws := t.ws
	t.mu.Unlock()

	if ws == nil || !t.connected.Load() {
		// Remembered; replayed once the channel comes back.
		return apperrors.ErrTransport
	}

	return t.writeFrame(clientFrame{Type: "join_conversation", ConversationID: conversationID.String()})
}

func (t *WSTransport) Emit(payload MessagePayload) error {
	if !t.connected.Load() {
		return apperrors.ErrTransport
	}
	return t.writeFrame(clientFrame{Type: "send_message", Payload: &payload})
}

func (t *WSTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(t.done)

	t.mu.Lock()
	ws := t.ws
	t.ws = nil
	t.mu.Unlock()

	t.connected.Store(false)
	if ws != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		return ws.Close()
	}
	return nil
}

func (t *WSTransport) attach(ws *websocket.Conn) {
	t.mu.Lock()
	t.ws = ws
	rooms := make([]uuid.UUID, 0, len(t.joined))
	for id := range t.joined {
		rooms = append(rooms, id)
	}
	t.mu.Unlock()

	t.connected.Store(true)

	for _, id := range rooms {
		_ = t.writeFrame(clientFrame{Type: "join_conversation", ConversationID: id.String()})
	}

	go t.readLoop(ws)
}

func (t *WSTransport) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.connected.Store(false)
			if t.closed.Load() {
				return
			}
			t.log.Warn("Realtime channel lost, reconnecting", "error", err)
			t.spawnReconnect()
			return
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.log.Warn("Dropping malformed frame", "error", err)
			continue
		}

		switch frame.Type {
		case "receive_message":
			if frame.Message != nil && t.onReceive != nil {
				t.onReceive(frame.Message)
			}
		case "error":
			t.log.Warn("Server rejected frame", "code", frame.Code, "error", frame.Error)
		}
	}
}

// spawnReconnect starts the background redial unless one is already running.
func (t *WSTransport) spawnReconnect() {
	if t.dialing.CompareAndSwap(false, true) {
		go t.reconnectLoop()
	}
}

func (t *WSTransport) reconnectLoop() {
	defer t.dialing.Store(false)

	delay := reconnectBaseDelay
	for {
		select {
		case <-t.done:
			return
		case <-time.After(delay):
		}

		ws, _, err := websocket.DefaultDialer.Dial(t.url, nil)
		if err == nil {
			t.attach(ws)
			t.log.Info("Realtime channel restored")
			return
		}

		if delay *= 2; delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

func (t *WSTransport) writeFrame(frame clientFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ws == nil {
		return apperrors.ErrTransport
	}
	return t.ws.WriteMessage(websocket.TextMessage, data)
}
