package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
	apperrors "github.com/Ramoniswack/Job-Portal-sub000/pkg/errors"
)

// Gateway is the synchronous request/response side of the messaging layer:
// history loads and the fallback create path.
type Gateway interface {
	LoadHistory(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind) ([]*domain.Message, error)
	CreateMessage(ctx context.Context, payload MessagePayload) (*domain.Message, error)
}

// HTTPGateway talks to the REST endpoints with a bearer token.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPGateway(baseURL, token string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type historyResponse struct {
	Messages []*domain.Message `json:"messages"`
}

func (g *HTTPGateway) LoadHistory(ctx context.Context, conversationID uuid.UUID, kind domain.ConversationKind) ([]*domain.Message, error) {
	url := fmt.Sprintf("%s/api/v1/conversations/%s/messages?kind=%s", g.baseURL, conversationID, kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDelivery, readErrorBody(resp.Body))
	}

	var out historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (g *HTTPGateway) CreateMessage(ctx context.Context, payload MessagePayload) (*domain.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDelivery, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, readErrorBody(resp.Body))
	default:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDelivery, readErrorBody(resp.Body))
	}

	message := &domain.Message{}
	if err := json.NewDecoder(resp.Body).Decode(message); err != nil {
		return nil, err
	}
	return message, nil
}

func readErrorBody(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return "request failed"
}
