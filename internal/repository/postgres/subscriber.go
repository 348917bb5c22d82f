package postgres

import (
	"context"
	"errors"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type subscriberRepo struct {
	db *pgxpool.Pool
}

func newSubscriberRepo(db *pgxpool.Pool) Subscriber {
	return &subscriberRepo{
		db: db,
	}
}

func (r *subscriberRepo) FindActive(ctx context.Context, email string) (*model.Subscriber, error) {
	var sub model.Subscriber
	if err := r.db.QueryRow(
		ctx,
		"SELECT id, email, subscribed_at, active FROM newsletter_subscribers WHERE email = $1 AND active",
		email,
	).Scan(&sub.ID, &sub.Email, &sub.SubscribedAt, &sub.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &sub, nil
}

// Create is a no-op when the email already has an active subscription.
func (r *subscriberRepo) Create(ctx context.Context, subscriber model.Subscriber) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO newsletter_subscribers(id, email, subscribed_at, active)
		VALUES($1, $2, $3, TRUE)
		ON CONFLICT (email) WHERE active DO NOTHING`,
		subscriber.ID,
		subscriber.Email,
		subscriber.SubscribedAt,
	)
	return err
}

func (r *subscriberRepo) Deactivate(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, "UPDATE newsletter_subscribers SET active = FALSE WHERE email = $1 AND active", email)
	return err
}

func (r *subscriberRepo) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := r.db.Query(ctx, "SELECT id, email, subscribed_at, active FROM newsletter_subscribers WHERE active ORDER BY subscribed_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscribers []model.Subscriber
	for rows.Next() {
		var sub model.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.SubscribedAt, &sub.Active); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subscribers, nil
}
