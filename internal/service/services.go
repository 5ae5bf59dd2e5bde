package service

import (
	"github.com/Ramoniswack/Job-Portal-sub000/internal/config"
	"github.com/Ramoniswack/Job-Portal-sub000/internal/repository"
	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

type Services struct {
	Auth         AuthService
	Conversation ConversationService
	Message      MessageService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Auth:         NewAuthService(repos.User, cfg.JWT, log),
		Conversation: NewConversationService(repos.Application, repos.Booking, log),
		Message:      NewMessageService(repos.Message, repos.Application, repos.Booking, repos.SendQuota, cfg.Chat, log),
	}
}
