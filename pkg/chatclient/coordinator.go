package chatclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

// Coordinator sends exactly one authoritative copy of each outgoing message,
// whichever path carries it. The decision is a synchronous Connected check
// at send time: connected means emit over the channel and let the sender's
// own receive event render the message; disconnected means the HTTP create
// plus a local append, because no receive event will fire. The two paths are
// exclusive per send, which is what rules out duplicates.
type Coordinator struct {
	transport Transport
	gateway   Gateway
	view      *ViewState
	log       logger.Logger
}

func NewCoordinator(transport Transport, gateway Gateway, view *ViewState, log logger.Logger) *Coordinator {
	return &Coordinator{
		transport: transport,
		gateway:   gateway,
		view:      view,
		log:       log,
	}
}

// Send delivers content to the selected conversation's counterparty.
//
// Validation failures (no selection, unresolvable receiver, empty content)
// abort before any network call: zero messages, zero requests. A failure of
// the fallback HTTP call is returned as a DeliveryError and the message is
// not retried; resending is the user's call.
func (c *Coordinator) Send(ctx context.Context, content string) error {
	conversation, ok := c.view.Selected()
	if !ok {
		return fmt.Errorf("%w: no conversation selected", apperrors.ErrValidation)
	}

	if conversation.Counterparty.IsZero() {
		return fmt.Errorf("%w: cannot resolve message receiver", apperrors.ErrValidation)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: content must not be empty", apperrors.ErrValidation)
	}

	payload := MessagePayload{
		ReceiverID:       conversation.Counterparty.ID,
		Content:          content,
		ConversationType: conversation.Kind,
	}
	switch conversation.Kind {
	case domain.ConversationKindJob:
		id := conversation.ID
		payload.ApplicationID = &id
	case domain.ConversationKindService:
		id := conversation.ID
		payload.BookingID = &id
	default:
		return fmt.Errorf("%w: unknown conversation kind %q", apperrors.ErrValidation, conversation.Kind)
	}

	if c.transport.Connected() {
		// Realtime path: no local append. The message shows up through
		// the same receive event both participants get.
		if err := c.transport.Emit(payload); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrDelivery, err)
		}
		return nil
	}

	c.log.Debug("Realtime channel down, using fallback path",
		"conversation_id", conversation.ID, "kind", conversation.Kind)

	message, err := c.gateway.CreateMessage(ctx, payload)
	if err != nil {
		return err
	}

	c.view.Append(message)
	return nil
}
