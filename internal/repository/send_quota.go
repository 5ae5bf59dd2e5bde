package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Ramoniswack/Job-Portal-sub000/pkg/logger"
)

// SendQuotaRepository bounds how many messages a sender may create per
// window, across both delivery paths.
type SendQuotaRepository interface {
	// AllowSend counts the attempt and reports whether it is within the
	// sender's quota. The window starts at the first send and resets when
	// the redis key expires.
	AllowSend(ctx context.Context, senderID uuid.UUID, limit int, window time.Duration) (bool, error)
}

type sendQuotaRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewSendQuotaRepository(redis *redis.Client, log logger.Logger) SendQuotaRepository {
	return &sendQuotaRepository{redis: redis, log: log}
}

func (r *sendQuotaRepository) AllowSend(ctx context.Context, senderID uuid.UUID, limit int, window time.Duration) (bool, error) {
	key := "chat:quota:" + senderID.String()

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		r.log.Error("Failed to count message send", "sender_id", senderID, "error", err)
		return false, err
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, window).Err(); err != nil {
			r.log.Warn("Failed to arm send quota window", "sender_id", senderID, "error", err)
		}
	}

	return count <= int64(limit), nil
}
