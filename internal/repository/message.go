package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

type MessageRepository interface {
	// Create persists the message and fills in its server-assigned id and
	// timestamp.
	Create(ctx context.Context, message *domain.Message) error
	// ListByConversation returns the full history of a conversation,
	// ascending by created_at. Read-only and safe to call repeatedly.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind, limit int) ([]*domain.Message, error)
	// MarkRead flags all messages addressed to receiverID in the
	// conversation as read.
	MarkRead(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind, receiverID uuid.UUID) error
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, application_id, booking_id, conversation_type, sender_id, receiver_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING created_at
	`

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		message.ID, message.ApplicationID, message.BookingID, message.ConversationType,
		message.Sender.ID, message.Receiver.ID, message.Content, message.Read,
	).Scan(&message.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create message", "error", err)
		return err
	}

	return nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind, limit int) ([]*domain.Message, error) {
	query := `
		SELECT m.id, m.application_id, m.booking_id, m.conversation_type,
		       s.id, s.display_name, s.email,
		       rc.id, rc.display_name, rc.email,
		       m.content, m.read, m.created_at
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users rc ON rc.id = m.receiver_id
		WHERE m.conversation_type = $2
		  AND ((m.application_id = $1 AND m.conversation_type = 'job')
		    OR (m.booking_id = $1 AND m.conversation_type = 'service'))
	`
	args := []interface{}{conversationID, kind}
	if limit > 0 {
		// A capped fetch keeps the newest messages; the slice is put back
		// into ascending order below.
		query += ` ORDER BY m.created_at DESC LIMIT $3`
		args = append(args, limit)
	} else {
		query += ` ORDER BY m.created_at ASC`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		message := &domain.Message{}
		err := rows.Scan(
			&message.ID, &message.ApplicationID, &message.BookingID, &message.ConversationType,
			&message.Sender.ID, &message.Sender.DisplayName, &message.Sender.Email,
			&message.Receiver.ID, &message.Receiver.DisplayName, &message.Receiver.Email,
			&message.Content, &message.Read, &message.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if limit > 0 {
		restoreAscending(messages)
	}
	return messages, nil
}

// restoreAscending reverses a newest-first page back into the ascending
// order history consumers expect.
func restoreAscending(messages []*domain.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

func (r *messageRepository) MarkRead(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind, receiverID uuid.UUID) error {
	query := `
		UPDATE messages
		SET read = TRUE
		WHERE conversation_type = $2 AND receiver_id = $3 AND read = FALSE
		  AND ((application_id = $1 AND conversation_type = 'job')
		    OR (booking_id = $1 AND conversation_type = 'service'))
	`

	_, err := r.db.Exec(ctx, query, conversationID, kind, receiverID)
	if err != nil {
		r.log.Error("Failed to mark messages read", "error", err)
		return err
	}

	return nil
}
