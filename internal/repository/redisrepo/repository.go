package redisrepo

import (
	"context"
	"time"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/redis/go-redis/v9"
)

type Default interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, key string) (bool, error)
}

// Reactions is the per-device flag store behind the reaction guard.
type Reactions interface {
	SetIfAbsent(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) (bool, error)
	Exists(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) (bool, error)
	Remove(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) error
	Recorded(ctx context.Context, deviceID string, postID string) (map[model.ReactionType]bool, error)
}

type Subscriber interface {
	FindActive(ctx context.Context, email string) (*model.Subscriber, error)
	Create(ctx context.Context, subscriber model.Subscriber) error
	Deactivate(ctx context.Context, email string) error
	ListActive(ctx context.Context) ([]model.Subscriber, error)
}

type Notification interface {
	Append(ctx context.Context, record model.NotificationRecord) error
}

type RedisRepository struct {
	Default      Default
	Reactions    Reactions
	Subscriber   Subscriber
	Notification Notification
}

func New(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{
		Default:      newDefaultRepo(rdb),
		Reactions:    newReactionsRepo(rdb),
		Subscriber:   newSubscriberRepo(rdb),
		Notification: newNotificationRepo(rdb),
	}
}
