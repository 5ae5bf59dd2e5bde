package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

// BookingRepository reads the service-booking relationship source.
// "Bookings as provider" and "bookings as customer" are different relations
// even for the same user, so they are separate queries.
type BookingRepository interface {
	ListProviderConversations(ctx context.Context, providerID uuid.UUID) ([]domain.Conversation, error)
	ListCustomerConversations(ctx context.Context, customerID uuid.UUID) ([]domain.Conversation, error)
	// GetParticipants resolves the provider and customer of an approved
	// booking. Returns ErrConversationNotFound when the booking does not
	// exist or is not approved.
	GetParticipants(ctx context.Context, bookingID uuid.UUID) (provider, customer domain.Participant, err error)
}

type bookingRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewBookingRepository(db *pgxpool.Pool, log logger.Logger) BookingRepository {
	return &bookingRepository{db: db, log: log}
}

func (r *bookingRepository) ListProviderConversations(ctx context.Context, providerID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT b.id, b.created_at, s.title, s.category, s.price, b.status,
		       u.id, u.display_name, u.email
		FROM service_bookings b
		JOIN services s ON s.id = b.service_id
		JOIN users u ON u.id = b.customer_id
		WHERE b.provider_id = $1 AND b.status = $2
		ORDER BY b.created_at DESC
	`

	return r.queryConversations(ctx, query, providerID)
}

func (r *bookingRepository) ListCustomerConversations(ctx context.Context, customerID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT b.id, b.created_at, s.title, s.category, s.price, b.status,
		       u.id, u.display_name, u.email
		FROM service_bookings b
		JOIN services s ON s.id = b.service_id
		JOIN users u ON u.id = b.provider_id
		WHERE b.customer_id = $1 AND b.status = $2
		ORDER BY b.created_at DESC
	`

	return r.queryConversations(ctx, query, customerID)
}

func (r *bookingRepository) queryConversations(ctx context.Context, query string, userID uuid.UUID) ([]domain.Conversation, error) {
	rows, err := r.db.Query(ctx, query, userID, domain.BookingStatusApproved)
	if err != nil {
		r.log.Error("Failed to list service conversations", "error", err)
		return nil, err
	}
	defer rows.Close()

	conversations := make([]domain.Conversation, 0)
	for rows.Next() {
		conv := domain.Conversation{Kind: domain.ConversationKindService}
		var price float64
		err := rows.Scan(
			&conv.ID, &conv.CreatedAt,
			&conv.Subject.Title, &conv.Subject.Category, &price, &conv.Subject.Status,
			&conv.Counterparty.ID, &conv.Counterparty.DisplayName, &conv.Counterparty.Email,
		)
		if err != nil {
			r.log.Error("Failed to scan service conversation", "error", err)
			return nil, err
		}
		conv.Subject.Price = &price
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

func (r *bookingRepository) GetParticipants(ctx context.Context, bookingID uuid.UUID) (domain.Participant, domain.Participant, error) {
	query := `
		SELECT p.id, p.display_name, p.email,
		       c.id, c.display_name, c.email
		FROM service_bookings b
		JOIN users p ON p.id = b.provider_id
		JOIN users c ON c.id = b.customer_id
		WHERE b.id = $1 AND b.status = $2
	`

	var provider, customer domain.Participant
	err := r.db.QueryRow(ctx, query, bookingID, domain.BookingStatusApproved).Scan(
		&provider.ID, &provider.DisplayName, &provider.Email,
		&customer.ID, &customer.DisplayName, &customer.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Participant{}, domain.Participant{}, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to get booking participants", "error", err)
		return domain.Participant{}, domain.Participant{}, err
	}

	return provider, customer, nil
}
