package redisrepo

import (
	"context"
	"encoding/json"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/redis/go-redis/v9"
)

// subscriberRepo is the local-only subscriber list used when Postgres is unavailable.
type subscriberRepo struct {
	rdb *redis.Client
}

func newSubscriberRepo(rdb *redis.Client) Subscriber {
	return &subscriberRepo{
		rdb: rdb,
	}
}

func (r *subscriberRepo) FindActive(ctx context.Context, email string) (*model.Subscriber, error) {
	value, err := r.rdb.HGet(ctx, LOCAL_SUBSCRIBERS_KEY, email).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var sub model.Subscriber
	if err := json.Unmarshal([]byte(value), &sub); err != nil {
		return nil, err
	}
	if !sub.Active {
		return nil, nil
	}

	return &sub, nil
}

func (r *subscriberRepo) Create(ctx context.Context, subscriber model.Subscriber) error {
	existing, err := r.FindActive(ctx, subscriber.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	subscriber.Active = true
	subJSON, err := json.Marshal(subscriber)
	if err != nil {
		return err
	}

	return r.rdb.HSet(ctx, LOCAL_SUBSCRIBERS_KEY, subscriber.Email, subJSON).Err()
}

func (r *subscriberRepo) Deactivate(ctx context.Context, email string) error {
	return r.rdb.HDel(ctx, LOCAL_SUBSCRIBERS_KEY, email).Err()
}

func (r *subscriberRepo) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	values, err := r.rdb.HVals(ctx, LOCAL_SUBSCRIBERS_KEY).Result()
	if err != nil {
		return nil, err
	}

	var subscribers []model.Subscriber
	for _, value := range values {
		var sub model.Subscriber
		if err := json.Unmarshal([]byte(value), &sub); err != nil {
			return nil, err
		}
		if sub.Active {
			subscribers = append(subscribers, sub)
		}
	}

	return subscribers, nil
}

type notificationRepo struct {
	rdb *redis.Client
}

func newNotificationRepo(rdb *redis.Client) Notification {
	return &notificationRepo{
		rdb: rdb,
	}
}

func (r *notificationRepo) Append(ctx context.Context, record model.NotificationRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return r.rdb.RPush(ctx, LOCAL_NOTIFICATIONS_KEY, recordJSON).Err()
}
