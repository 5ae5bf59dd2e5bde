package handler

import (
	"github.com/Ramoniswack/Job-Portal-sub000/internal/config"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/realtime"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/service"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Conversation *ConversationHandler
	Message      *MessageHandler
	WebSocket    *WebSocketHandler
}

func NewHandlers(services *service.Services, hub *realtime.Hub, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(cfg),
		Auth:         NewAuthHandler(services.Auth, log),
		Conversation: NewConversationHandler(services.Conversation, log),
		Message:      NewMessageHandler(services.Message, hub, log),
		WebSocket:    NewWebSocketHandler(services.Auth, services.Conversation, services.Message, hub, log),
	}
}
