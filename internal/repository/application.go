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

// ApplicationRepository reads the job-application relationship source.
// Conversations are derived rows: only approved applications surface.
type ApplicationRepository interface {
	// ListWorkerConversations returns conversations where the user applied
	// as a worker; the counterparty is the job's client.
	ListWorkerConversations(ctx context.Context, workerID uuid.UUID) ([]domain.Conversation, error)
	// ListClientConversations returns conversations across the client's own
	// jobs; the counterparty is the applying worker.
	ListClientConversations(ctx context.Context, clientID uuid.UUID) ([]domain.Conversation, error)
	// GetParticipants resolves the worker and client of an approved
	// application. Returns ErrConversationNotFound when the application does
	// not exist or is not approved.
	GetParticipants(ctx context.Context, applicationID uuid.UUID) (worker, client domain.Participant, err error)
}

type applicationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewApplicationRepository(db *pgxpool.Pool, log logger.Logger) ApplicationRepository {
	return &applicationRepository{db: db, log: log}
}

func (r *applicationRepository) ListWorkerConversations(ctx context.Context, workerID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT a.id, a.created_at, j.title, j.category, j.status,
		       c.id, c.display_name, c.email
		FROM job_applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN users c ON c.id = j.client_id
		WHERE a.worker_id = $1 AND a.status = $2
		ORDER BY a.created_at DESC
	`

	return r.queryConversations(ctx, query, workerID)
}

func (r *applicationRepository) ListClientConversations(ctx context.Context, clientID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT a.id, a.created_at, j.title, j.category, j.status,
		       w.id, w.display_name, w.email
		FROM job_applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN users w ON w.id = a.worker_id
		WHERE j.client_id = $1 AND a.status = $2
		ORDER BY a.created_at DESC
	`

	return r.queryConversations(ctx, query, clientID)
}

func (r *applicationRepository) queryConversations(ctx context.Context, query string, userID uuid.UUID) ([]domain.Conversation, error) {
	rows, err := r.db.Query(ctx, query, userID, domain.ApplicationStatusApproved)
	if err != nil {
		r.log.Error("Failed to list job conversations", "error", err)
		return nil, err
	}
	defer rows.Close()

	conversations := make([]domain.Conversation, 0)
	for rows.Next() {
		conv := domain.Conversation{Kind: domain.ConversationKindJob}
		err := rows.Scan(
			&conv.ID, &conv.CreatedAt,
			&conv.Subject.Title, &conv.Subject.Category, &conv.Subject.Status,
			&conv.Counterparty.ID, &conv.Counterparty.DisplayName, &conv.Counterparty.Email,
		)
		if err != nil {
			r.log.Error("Failed to scan job conversation", "error", err)
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

func (r *applicationRepository) GetParticipants(ctx context.Context, applicationID uuid.UUID) (domain.Participant, domain.Participant, error) {
	query := `
		SELECT w.id, w.display_name, w.email,
		       c.id, c.display_name, c.email
		FROM job_applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN users w ON w.id = a.worker_id
		JOIN users c ON c.id = j.client_id
		WHERE a.id = $1 AND a.status = $2
	`

	var worker, client domain.Participant
	err := r.db.QueryRow(ctx, query, applicationID, domain.ApplicationStatusApproved).Scan(
		&worker.ID, &worker.DisplayName, &worker.Email,
		&client.ID, &client.DisplayName, &client.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Participant{}, domain.Participant{}, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to get application participants", "error", err)
		return domain.Participant{}, domain.Participant{}, err
	}

	return worker, client, nil
}
