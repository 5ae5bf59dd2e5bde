package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/realtime"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/service"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

const wsReadTimeout = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to the dashboard origin once it is fixed
	},
}

// Realtime channel contract. Client frames carry join_conversation and
// send_message; the server answers with joined acks, receive_message
// broadcasts and error frames.
type inboundFrame struct {
	Type           string              `json:"type"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Payload        *sendMessagePayload `json:"payload,omitempty"`
}

type sendMessagePayload struct {
	ReceiverID       uuid.UUID               `json:"receiver_id"`
	Content          string                  `json:"content"`
	ConversationType domain.ConversationKind `json:"conversation_type"`
	ApplicationID    *uuid.UUID              `json:"application_id,omitempty"`
	BookingID        *uuid.UUID              `json:"booking_id,omitempty"`
}

type receiveFrame struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message"`
}

type ackFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func marshalReceiveFrame(message *domain.Message) ([]byte, error) {
	return json.Marshal(receiveFrame{Type: "receive_message", Message: message})
}

type WebSocketHandler struct {
	authService         service.AuthService
	conversationService service.ConversationService
	messageService      service.MessageService
	hub                 *realtime.Hub
	log                 logger.Logger
}

func NewWebSocketHandler(
	authService service.AuthService,
	conversationService service.ConversationService,
	messageService service.MessageService,
	hub *realtime.Hub,
	log logger.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		authService:         authService,
		conversationService: conversationService,
		messageService:      messageService,
		hub:                 hub,
		log:                 log,
	}
}

// HandleChat upgrades the request and serves one client session. The token
// rides in the query string because browsers cannot set headers on websocket
// dials.
func (h *WebSocketHandler) HandleChat(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	user, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := realtime.NewConnection(user.ID, ws)
	h.hub.Attach(conn)
	conn.Start()
	defer func() {
		h.hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
	}()

	ws.SetReadLimit(1 << 20)
	_ = ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	h.sendAck(conn, ackFrame{Type: "connected"})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
				errors.Is(err, websocket.ErrCloseSent) {
				return
			}
			h.log.Debug("Websocket read failed", "user_id", user.ID, "error", err)
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.sendError(conn, "bad_request", "invalid frame")
			continue
		}

		switch frame.Type {
		case "join_conversation":
			h.handleJoin(c, conn, user.ID, frame)
		case "leave_conversation":
			h.handleLeave(conn, frame)
		case "send_message":
			h.handleSend(c, conn, user.ID, frame)
		default:
			h.sendError(conn, "unsupported_type", "unknown frame type")
		}
	}
}

func (h *WebSocketHandler) handleJoin(c *gin.Context, conn *realtime.Connection, userID uuid.UUID, frame inboundFrame) {
	conversationID, err := uuid.Parse(frame.ConversationID)
	if err != nil {
		h.sendError(conn, "bad_request", "conversation_id is required")
		return
	}

	// Membership is checked against the live relationship, so a revoked
	// approval also revokes the room.
	if _, err := h.conversationService.Authorize(c.Request.Context(), userID, conversationID); err != nil {
		h.sendError(conn, "forbidden", err.Error())
		return
	}

	h.hub.Join(conversationID.String(), conn)
	h.sendAck(conn, ackFrame{Type: "joined", ConversationID: conversationID.String()})
}

func (h *WebSocketHandler) handleLeave(conn *realtime.Connection, frame inboundFrame) {
	conversationID, err := uuid.Parse(frame.ConversationID)
	if err != nil {
		h.sendError(conn, "bad_request", "conversation_id is required")
		return
	}

	h.hub.Leave(conversationID.String(), conn)
	h.sendAck(conn, ackFrame{Type: "left", ConversationID: conversationID.String()})
}

func (h *WebSocketHandler) handleSend(c *gin.Context, conn *realtime.Connection, userID uuid.UUID, frame inboundFrame) {
	if frame.Payload == nil {
		h.sendError(conn, "bad_request", "payload is required")
		return
	}

	payload := frame.Payload
	conversationID := uuid.Nil
	switch payload.ConversationType {
	case domain.ConversationKindJob:
		if payload.ApplicationID != nil {
			conversationID = *payload.ApplicationID
		}
	case domain.ConversationKindService:
		if payload.BookingID != nil {
			conversationID = *payload.BookingID
		}
	}
	if conversationID == uuid.Nil {
		h.sendError(conn, "bad_request", "conversation reference must match conversation_type")
		return
	}

	message, err := h.messageService.CreateMessage(c.Request.Context(), service.CreateMessageInput{
		SenderID:       userID,
		ReceiverID:     payload.ReceiverID,
		Content:        payload.Content,
		ConversationID: conversationID,
		Kind:           payload.ConversationType,
	})
	if err != nil {
		h.sendError(conn, "rejected", err.Error())
		return
	}

	out, err := marshalReceiveFrame(message)
	if err != nil {
		h.sendError(conn, "internal_error", "failed to encode message")
		return
	}

	// Everyone in the room gets the same receive_message event, the sender
	// included; the sender renders from this event, never from a local echo.
	h.hub.Broadcast(conversationID.String(), out)
}

func (h *WebSocketHandler) sendAck(conn *realtime.Connection, ack ackFrame) {
	if payload, err := json.Marshal(ack); err == nil {
		_ = conn.Send(payload)
	}
}

func (h *WebSocketHandler) sendError(conn *realtime.Connection, code, msg string) {
	if payload, err := json.Marshal(errorFrame{Type: "error", Code: code, Error: msg}); err == nil {
		_ = conn.Send(payload)
	}
}
