package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

type Repositories struct {
	User        UserRepository
	Application ApplicationRepository
	Booking     BookingRepository
	Message     MessageRepository
	SendQuota   SendQuotaRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db, log),
		Application: NewApplicationRepository(db, log),
		Booking:     NewBookingRepository(db, log),
		Message:     NewMessageRepository(db, log),
		SendQuota:   NewSendQuotaRepository(redis, log),
	}
}
