package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/config"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/repository"
	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

type CreateMessageInput struct {
	SenderID       uuid.UUID
	ReceiverID     uuid.UUID
	Content        string
	ConversationID uuid.UUID
	Kind           domain.ConversationKind
}

// MessageService is the gateway to ordered message history per conversation.
type MessageService interface {
	// LoadHistory returns the conversation's messages ascending by
	// created_at. Restartable and side-effect free apart from flagging the
	// requester's incoming messages as read (best effort).
	LoadHistory(ctx context.Context, requesterID, conversationID uuid.UUID, kind domain.ConversationKind) ([]*domain.Message, error)
	// CreateMessage validates, persists and returns exactly one message.
	// Both delivery paths (realtime and fallback) go through here, so the
	// send rate limit holds regardless of path.
	CreateMessage(ctx context.Context, in CreateMessageInput) (*domain.Message, error)
}

type messageService struct {
	messageRepo     repository.MessageRepository
	applicationRepo repository.ApplicationRepository
	bookingRepo     repository.BookingRepository
	sendQuotaRepo   repository.SendQuotaRepository
	cfg             config.ChatConfig
	log             logger.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	applicationRepo repository.ApplicationRepository,
	bookingRepo repository.BookingRepository,
	sendQuotaRepo repository.SendQuotaRepository,
	cfg config.ChatConfig,
	log logger.Logger,
) MessageService {
	return &messageService{
		messageRepo:     messageRepo,
		applicationRepo: applicationRepo,
		bookingRepo:     bookingRepo,
		sendQuotaRepo:   sendQuotaRepo,
		cfg:             cfg,
		log:             log,
	}
}

func (s *messageService) LoadHistory(ctx context.Context, requesterID, conversationID uuid.UUID, kind domain.ConversationKind) ([]*domain.Message, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown conversation kind %q", apperrors.ErrValidation, kind)
	}

	first, second, err := s.participants(ctx, conversationID, kind)
	if err != nil {
		return nil, err
	}
	if requesterID != first.ID && requesterID != second.ID {
		return nil, apperrors.ErrNotParticipant
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conversationID, kind, s.cfg.HistoryPageSize)
	if err != nil {
		return nil, err
	}

	// Read receipts ride along with the fetch; a failure here never blocks
	// history delivery.
	if err := s.messageRepo.MarkRead(ctx, conversationID, kind, requesterID); err != nil {
		s.log.Warn("Failed to mark messages read", "conversation_id", conversationID, "error", err)
	}

	return messages, nil
}

func (s *messageService) CreateMessage(ctx context.Context, in CreateMessageInput) (*domain.Message, error) {
	if in.SenderID == uuid.Nil || in.ReceiverID == uuid.Nil {
		return nil, fmt.Errorf("%w: sender and receiver are required", apperrors.ErrValidation)
	}
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown conversation kind %q", apperrors.ErrValidation, in.Kind)
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content must not be empty", apperrors.ErrValidation)
	}
	if s.cfg.MaxMessageLength > 0 && utf8.RuneCountInString(content) > s.cfg.MaxMessageLength {
		return nil, fmt.Errorf("%w: content exceeds %d characters", apperrors.ErrValidation, s.cfg.MaxMessageLength)
	}

	first, second, err := s.participants(ctx, in.ConversationID, in.Kind)
	if err != nil {
		return nil, err
	}

	sender, receiver, ok := matchParticipants(first, second, in.SenderID, in.ReceiverID)
	if !ok {
		return nil, fmt.Errorf("%w: sender and receiver must be the two participants of the conversation", apperrors.ErrValidation)
	}

	if s.sendQuotaRepo != nil && s.cfg.SendRateLimit > 0 {
		allowed, err := s.sendQuotaRepo.AllowSend(ctx, in.SenderID, s.cfg.SendRateLimit, s.cfg.SendRateWindow)
		if err != nil {
			// Quota storage being down never blocks messaging.
			s.log.Warn("Send quota check unavailable", "sender_id", in.SenderID, "error", err)
		} else if !allowed {
			return nil, apperrors.ErrRateLimited
		}
	}

	message := &domain.Message{
		ConversationType: in.Kind,
		Sender:           sender,
		Receiver:         receiver,
		Content:          content,
	}
	switch in.Kind {
	case domain.ConversationKindJob:
		id := in.ConversationID
		message.ApplicationID = &id
	case domain.ConversationKindService:
		id := in.ConversationID
		message.BookingID = &id
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (s *messageService) participants(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind) (domain.Participant, domain.Participant, error) {
	if kind == domain.ConversationKindJob {
		return s.applicationRepo.GetParticipants(ctx, conversationID)
	}
	return s.bookingRepo.GetParticipants(ctx, conversationID)
}

// matchParticipants checks that senderID and receiverID are exactly the two
// (distinct) participants and returns them in sender, receiver order.
func matchParticipants(first, second domain.Participant, senderID, receiverID uuid.UUID) (domain.Participant, domain.Participant, bool) {
	if senderID == receiverID {
		return domain.Participant{}, domain.Participant{}, false
	}
	switch {
	case senderID == first.ID && receiverID == second.ID:
		return first, second, true
	case senderID == second.ID && receiverID == first.ID:
		return second, first, true
	default:
		return domain.Participant{}, domain.Participant{}, false
	}
}
