package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/repository"
	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

// Resolution is the merged conversation list for one user. Warnings name the
// sources that failed when the result is partial.
type Resolution struct {
	Conversations []domain.Conversation `json:"conversations"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// ConversationService derives the conversations a user participates in by
// merging the two relationship sources: approved job applications and
// approved service bookings.
type ConversationService interface {
	// Resolve returns the user's conversations sorted newest-first. A
	// failure in one source degrades to a partial list with a warning;
	// only failure of both sources is an error, and even then the
	// conversation list is empty, never nil.
	Resolve(ctx context.Context, userID uuid.UUID) (*Resolution, error)
	// Authorize checks that the user participates in the conversation and
	// reports its kind. Application and booking ids are disjoint, so the
	// bare id identifies the relationship.
	Authorize(ctx context.Context, userID, conversationID uuid.UUID) (domain.ConversationKind, error)
}

type conversationService struct {
	applicationRepo repository.ApplicationRepository
	bookingRepo     repository.BookingRepository
	log             logger.Logger
}

func NewConversationService(applicationRepo repository.ApplicationRepository, bookingRepo repository.BookingRepository, log logger.Logger) ConversationService {
	return &conversationService{
		applicationRepo: applicationRepo,
		bookingRepo:     bookingRepo,
		log:             log,
	}
}

func (s *conversationService) Resolve(ctx context.Context, userID uuid.UUID) (*Resolution, error) {
	var (
		wg                     sync.WaitGroup
		jobConvs, serviceConvs []domain.Conversation
		jobErr, serviceErr     error
	)

	// The two sources are independent; query them in parallel. Roles are
	// not exclusive, so each source runs both of its viewpoint queries.
	wg.Add(2)
	go func() {
		defer wg.Done()
		jobConvs, jobErr = s.resolveJobSource(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		serviceConvs, serviceErr = s.resolveServiceSource(ctx, userID)
	}()
	wg.Wait()

	if jobErr != nil && serviceErr != nil {
		s.log.Error("All conversation sources failed", "user_id", userID, "job_error", jobErr, "service_error", serviceErr)
		return &Resolution{Conversations: []domain.Conversation{}}, apperrors.ErrResolution
	}

	result := &Resolution{Conversations: make([]domain.Conversation, 0, len(jobConvs)+len(serviceConvs))}
	result.Conversations = append(result.Conversations, jobConvs...)
	result.Conversations = append(result.Conversations, serviceConvs...)

	if jobErr != nil {
		s.log.Warn("Job conversation source failed, returning partial list", "user_id", userID, "error", jobErr)
		result.Warnings = append(result.Warnings, "job conversations unavailable")
	}
	if serviceErr != nil {
		s.log.Warn("Service conversation source failed, returning partial list", "user_id", userID, "error", serviceErr)
		result.Warnings = append(result.Warnings, "service conversations unavailable")
	}

	sort.SliceStable(result.Conversations, func(i, j int) bool {
		return result.Conversations[i].CreatedAt.After(result.Conversations[j].CreatedAt)
	})

	return result, nil
}

func (s *conversationService) Authorize(ctx context.Context, userID, conversationID uuid.UUID) (domain.ConversationKind, error) {
	worker, client, err := s.applicationRepo.GetParticipants(ctx, conversationID)
	if err == nil {
		if userID == worker.ID || userID == client.ID {
			return domain.ConversationKindJob, nil
		}
		return "", apperrors.ErrNotParticipant
	}
	if !errors.Is(err, apperrors.ErrConversationNotFound) {
		return "", err
	}

	provider, customer, err := s.bookingRepo.GetParticipants(ctx, conversationID)
	if err != nil {
		return "", err
	}
	if userID == provider.ID || userID == customer.ID {
		return domain.ConversationKindService, nil
	}
	return "", apperrors.ErrNotParticipant
}

// resolveJobSource merges the worker view (my applications) and the client
// view (applications to my jobs) of the job-application relation.
func (s *conversationService) resolveJobSource(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	asWorker, err := s.applicationRepo.ListWorkerConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	asClient, err := s.applicationRepo.ListClientConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	return append(asWorker, asClient...), nil
}

// resolveServiceSource merges the provider and customer views of the
// service-booking relation. These are distinct relations even for one user.
func (s *conversationService) resolveServiceSource(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	asProvider, err := s.bookingRepo.ListProviderConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	asCustomer, err := s.bookingRepo.ListCustomerConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	return append(asProvider, asCustomer...), nil
}
