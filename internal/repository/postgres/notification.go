package postgres

import (
	"context"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type notificationRepo struct {
	db *pgxpool.Pool
}

func newNotificationRepo(db *pgxpool.Pool) Notification {
	return &notificationRepo{
		db: db,
	}
}

func (r *notificationRepo) Append(ctx context.Context, record model.NotificationRecord) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO newsletter_notifications(id, post_title, post_excerpt, post_url, subscriber_count, success_count, failure_count, sent_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID,
		record.PostTitle,
		record.PostExcerpt,
		record.PostURL,
		record.SubscriberCount,
		record.SuccessCount,
		record.FailureCount,
		record.SentAt,
	)
	return err
}
