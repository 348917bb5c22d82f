package postgres

import (
	"context"
	"time"

	"github.com/BloggingApp/writerspace/internal/config"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func DB(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, cfg.DSN())
}

type Post interface {
	Create(ctx context.Context, post model.Post) (*model.Post, error)
	// Update returns the status the post had before this statement changed it.
	Update(ctx context.Context, id uuid.UUID, update model.PostUpdate, updatedAt time.Time) (model.PostStatus, *model.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleRecommended(ctx context.Context, id uuid.UUID, updatedAt time.Time) (*model.Post, error)
	IncrReaction(ctx context.Context, id uuid.UUID, reaction model.ReactionType) error
	FindAll(ctx context.Context) ([]model.Post, error)
}

type Account interface {
	Create(ctx context.Context, account model.Account) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByProvider(ctx context.Context, provider string, subject string) (*model.Account, error)
}

type User interface {
	CreateIfNotExists(ctx context.Context, user model.User) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
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

type PostgresRepository struct {
	Post
	Account
	User
	Subscriber
	Notification
}

func New(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		Post:         newPostRepo(db),
		Account:      newAccountRepo(db),
		User:         newUserRepo(db),
		Subscriber:   newSubscriberRepo(db),
		Notification: newNotificationRepo(db),
	}
}
