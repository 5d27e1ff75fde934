package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ytscript-backend/internal/models"
)

// StatusNotifier pushes progress events to a user's live connections.
type StatusNotifier interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// RedisNotifier publishes on the per-user channel the WebSocket hub
// subscribes to.
type RedisNotifier struct {
	redis *redis.Client
}

func NewRedisNotifier(redisClient *redis.Client) *RedisNotifier {
	return &RedisNotifier{redis: redisClient}
}

func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID.String())
}

// Publish sends a WebSocket update via Redis pub/sub
func (n *RedisNotifier) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := n.redis.Publish(ctx, UserChannel(userID), string(data)).Err(); err != nil {
		log.Printf("WARNING: failed to publish %s for user %s: %v", msg.Type, userID, err)
	}
}
