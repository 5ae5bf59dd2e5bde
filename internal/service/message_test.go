package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/config"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

type fakeMessageRepo struct {
	created  []*domain.Message
	history  []*domain.Message
	markRead int
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	f.created = append(f.created, message)
	return nil
}

func (f *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind, limit int) ([]*domain.Message, error) {
	return f.history, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind, receiverID uuid.UUID) error {
	f.markRead++
	return nil
}

type fakeSendQuotaRepo struct {
	allowed bool
	calls   int
}

func (f *fakeSendQuotaRepo) AllowSend(ctx context.Context, senderID uuid.UUID, limit int, window time.Duration) (bool, error) {
	f.calls++
	return f.allowed, nil
}

func chatConfig() config.ChatConfig {
	return config.ChatConfig{MaxMessageLength: 100}
}

func newMessageFixture(t *testing.T) (MessageService, *fakeMessageRepo, domain.Participant, domain.Participant, uuid.UUID) {
	t.Helper()

	worker := domain.Participant{ID: uuid.New(), DisplayName: "Worker", Email: "worker@example.com"}
	client := domain.Participant{ID: uuid.New(), DisplayName: "Client", Email: "client@example.com"}
	applicationID := uuid.New()

	messageRepo := &fakeMessageRepo{}
	svc := NewMessageService(
		messageRepo,
		&fakeApplicationRepo{worker: worker, client: client},
		&fakeBookingRepo{participantErr: apperrors.ErrConversationNotFound},
		nil,
		chatConfig(),
		logger.New("error"),
	)

	return svc, messageRepo, worker, client, applicationID
}

func TestCreateMessagePersistsExactlyOne(t *testing.T) {
	svc, repo, worker, client, applicationID := newMessageFixture(t)

	message, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		SenderID:       worker.ID,
		ReceiverID:     client.ID,
		Content:        "  Hello  ",
		ConversationID: applicationID,
		Kind:           domain.ConversationKindJob,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	assert.Equal(t, "Hello", message.Content)
	assert.Equal(t, worker, message.Sender)
	assert.Equal(t, client, message.Receiver)
	require.NotNil(t, message.ApplicationID)
	assert.Equal(t, applicationID, *message.ApplicationID)
	assert.Nil(t, message.BookingID)
	assert.False(t, message.Read)
	assert.NotEqual(t, uuid.Nil, message.ID)
}

func TestCreateMessageValidation(t *testing.T) {
	svc, repo, worker, client, applicationID := newMessageFixture(t)

	cases := []struct {
		name string
		in   CreateMessageInput
	}{
		{
			name: "empty content",
			in: CreateMessageInput{
				SenderID: worker.ID, ReceiverID: client.ID,
				Content: "   ", ConversationID: applicationID, Kind: domain.ConversationKindJob,
			},
		},
		{
			name: "missing receiver",
			in: CreateMessageInput{
				SenderID: worker.ID,
				Content:  "hi", ConversationID: applicationID, Kind: domain.ConversationKindJob,
			},
		},
		{
			name: "unknown kind",
			in: CreateMessageInput{
				SenderID: worker.ID, ReceiverID: client.ID,
				Content: "hi", ConversationID: applicationID, Kind: "amc",
			},
		},
		{
			name: "sender equals receiver",
			in: CreateMessageInput{
				SenderID: worker.ID, ReceiverID: worker.ID,
				Content: "hi", ConversationID: applicationID, Kind: domain.ConversationKindJob,
			},
		},
		{
			name: "receiver outside conversation",
			in: CreateMessageInput{
				SenderID: worker.ID, ReceiverID: uuid.New(),
				Content: "hi", ConversationID: applicationID, Kind: domain.ConversationKindJob,
			},
		},
		{
			name: "content over limit",
			in: CreateMessageInput{
				SenderID: worker.ID, ReceiverID: client.ID,
				Content: strings.Repeat("x", 101), ConversationID: applicationID, Kind: domain.ConversationKindJob,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateMessage(context.Background(), tc.in)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	assert.Empty(t, repo.created, "validation failures must not persist anything")
}

func TestCreateMessageForServiceConversation(t *testing.T) {
	provider := domain.Participant{ID: uuid.New(), DisplayName: "Provider", Email: "provider@example.com"}
	customer := domain.Participant{ID: uuid.New(), DisplayName: "Customer", Email: "customer@example.com"}
	bookingID := uuid.New()

	repo := &fakeMessageRepo{}
	svc := NewMessageService(
		repo,
		&fakeApplicationRepo{participantErr: apperrors.ErrConversationNotFound},
		&fakeBookingRepo{provider: provider, customer: customer},
		nil,
		chatConfig(),
		logger.New("error"),
	)

	message, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		SenderID:       customer.ID,
		ReceiverID:     provider.ID,
		Content:        "When can you come?",
		ConversationID: bookingID,
		Kind:           domain.ConversationKindService,
	})
	require.NoError(t, err)

	require.NotNil(t, message.BookingID)
	assert.Equal(t, bookingID, *message.BookingID)
	assert.Nil(t, message.ApplicationID)
	assert.Equal(t, customer, message.Sender)
	assert.Equal(t, provider, message.Receiver)
}

func TestCreateMessageRateLimited(t *testing.T) {
	worker := domain.Participant{ID: uuid.New()}
	client := domain.Participant{ID: uuid.New()}

	messageRepo := &fakeMessageRepo{}
	quota := &fakeSendQuotaRepo{allowed: false}
	svc := NewMessageService(
		messageRepo,
		&fakeApplicationRepo{worker: worker, client: client},
		&fakeBookingRepo{},
		quota,
		config.ChatConfig{MaxMessageLength: 100, SendRateLimit: 5, SendRateWindow: time.Minute},
		logger.New("error"),
	)

	_, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		SenderID:       worker.ID,
		ReceiverID:     client.ID,
		Content:        "hi",
		ConversationID: uuid.New(),
		Kind:           domain.ConversationKindJob,
	})
	require.ErrorIs(t, err, apperrors.ErrRateLimited)
	assert.Equal(t, 1, quota.calls)
	assert.Empty(t, messageRepo.created, "an over-quota send must not persist")
}

func TestRevokedRelationshipDeniesMessaging(t *testing.T) {
	// A withdrawn or rejected relationship resolves to no participants,
	// which must close off both sending and history.
	worker := domain.Participant{ID: uuid.New()}
	client := domain.Participant{ID: uuid.New()}
	messageRepo := &fakeMessageRepo{}
	svc := NewMessageService(
		messageRepo,
		&fakeApplicationRepo{participantErr: apperrors.ErrConversationNotFound},
		&fakeBookingRepo{participantErr: apperrors.ErrConversationNotFound},
		nil,
		chatConfig(),
		logger.New("error"),
	)

	_, err := svc.CreateMessage(context.Background(), CreateMessageInput{
		SenderID:       worker.ID,
		ReceiverID:     client.ID,
		Content:        "hi",
		ConversationID: uuid.New(),
		Kind:           domain.ConversationKindJob,
	})
	require.ErrorIs(t, err, apperrors.ErrConversationNotFound)
	assert.Empty(t, messageRepo.created)

	_, err = svc.LoadHistory(context.Background(), worker.ID, uuid.New(), domain.ConversationKindJob)
	require.ErrorIs(t, err, apperrors.ErrConversationNotFound)
	assert.Zero(t, messageRepo.markRead)
}

func TestLoadHistoryRequiresParticipant(t *testing.T) {
	svc, _, worker, _, applicationID := newMessageFixture(t)

	_, err := svc.LoadHistory(context.Background(), uuid.New(), applicationID, domain.ConversationKindJob)
	require.ErrorIs(t, err, apperrors.ErrNotParticipant)

	_, err = svc.LoadHistory(context.Background(), worker.ID, applicationID, domain.ConversationKindJob)
	require.NoError(t, err)
}

func TestLoadHistoryMarksIncomingRead(t *testing.T) {
	svc, repo, worker, client, applicationID := newMessageFixture(t)
	repo.history = []*domain.Message{
		{ID: uuid.New(), Sender: client, Receiver: worker, Content: "hello"},
	}

	messages, err := svc.LoadHistory(context.Background(), worker.ID, applicationID, domain.ConversationKindJob)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, 1, repo.markRead)
}
