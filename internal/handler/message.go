package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/realtime"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/service"
	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

type MessageHandler struct {
	messageService service.MessageService
	hub            *realtime.Hub
	log            logger.Logger
}

func NewMessageHandler(messageService service.MessageService, hub *realtime.Hub, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		hub:            hub,
		log:            log,
	}
}

// History returns the ordered message history of a conversation. The caller
// must be one of its two participants.
func (h *MessageHandler) History(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	kind := domain.ConversationKind(c.Query("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 'job' or 'service'"})
		return
	}

	messages, err := h.messageService.LoadHistory(c.Request.Context(), userID.(uuid.UUID), conversationID, kind)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type CreateMessageRequest struct {
	ReceiverID       uuid.UUID               `json:"receiver_id" binding:"required"`
	Content          string                  `json:"content" binding:"required"`
	ConversationType domain.ConversationKind `json:"conversation_type" binding:"required"`
	ApplicationID    *uuid.UUID              `json:"application_id,omitempty"`
	BookingID        *uuid.UUID              `json:"booking_id,omitempty"`
}

func (r *CreateMessageRequest) conversationID() uuid.UUID {
	switch r.ConversationType {
	case domain.ConversationKindJob:
		if r.ApplicationID != nil {
			return *r.ApplicationID
		}
	case domain.ConversationKindService:
		if r.BookingID != nil {
			return *r.BookingID
		}
	}
	return uuid.Nil
}

// Create is the synchronous fallback path: it persists one message and
// broadcasts it into the conversation's room so a connected counterparty
// still sees it live. The sender appends the response locally, so the sender
// is never in the room on this path.
func (h *MessageHandler) Create(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversationID := req.conversationID()
	if conversationID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation reference must match conversation_type"})
		return
	}

	message, err := h.messageService.CreateMessage(c.Request.Context(), service.CreateMessageInput{
		SenderID:       userID.(uuid.UUID),
		ReceiverID:     req.ReceiverID,
		Content:        req.Content,
		ConversationID: conversationID,
		Kind:           req.ConversationType,
	})
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	if payload, err := marshalReceiveFrame(message); err == nil {
		h.hub.Broadcast(conversationID.String(), payload)
	} else {
		h.log.Error("Failed to encode message frame", "error", err)
	}

	c.JSON(http.StatusCreated, message)
}
