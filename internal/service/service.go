package service

import (
	"context"

	"github.com/BloggingApp/writerspace/internal/config"
	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/BloggingApp/writerspace/internal/mailer"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/BloggingApp/writerspace/internal/postcache"
	"github.com/BloggingApp/writerspace/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher is implemented by *rabbitmq.MQConn.
type EventPublisher interface {
	PublishJSON(ctx context.Context, queue string, v interface{}) error
}

type Post interface {
	Create(ctx context.Context, user *model.User, req dto.CreatePostRequest) (*model.Post, error)
	Update(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdatePostRequest) (*model.Post, error)
	Delete(ctx context.Context, user *model.User, id uuid.UUID) error
	ToggleRecommendation(ctx context.Context, user *model.User, id uuid.UUID) (*model.Post, error)
	GetPost(id uuid.UUID) (*model.Post, error)
	GetPublishedPosts(category *model.PostCategory) []model.Post
	GetRecommendedPosts() []model.Post
	GetAllPosts() []model.Post
	Stats() model.PostStats
	LoadError() string
	FeedError() error
	PostURL(id uuid.UUID) string
	WatchPublished(fn func(posts []model.Post, loadError string)) func()
	// Drain waits for publish announcements still running in the background.
	Drain(ctx context.Context) error
}

type Reaction interface {
	HasReacted(ctx context.Context, deviceID string, postID uuid.UUID, reaction model.ReactionType) (bool, error)
	Recorded(ctx context.Context, deviceID string, postID uuid.UUID) (map[model.ReactionType]bool, error)
	UserReaction(ctx context.Context, deviceID string, postID uuid.UUID) (model.ReactionType, error)
	Record(ctx context.Context, deviceID string, postID uuid.UUID, reaction model.ReactionType) (bool, error)
}

type Newsletter interface {
	Subscribe(ctx context.Context, email string) error
	Unsubscribe(ctx context.Context, email string) error
	Notify(ctx context.Context, title, excerpt, postURL string) (*model.NotificationRecord, error)
}

type Session interface {
	SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error)
	SignIn(ctx context.Context, req dto.SignInRequest) (*dto.AuthResponse, error)
	SignInFederated(ctx context.Context, idToken string) (*dto.AuthResponse, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*model.User, error)
	CreateAdmin(ctx context.Context, req dto.SignUpRequest) (*model.User, error)
	OnAuthStateChanged(fn func(model.AuthEvent)) func()
}

type Service struct {
	Post
	Reaction
	Newsletter
	Session
}

// Dependencies are the collaborators that do not come from the repository. Publisher and
// Verifier may be nil.
type Dependencies struct {
	Cache     *postcache.Store
	Mailer    mailer.Sender
	Publisher EventPublisher
	Verifier  IdentityVerifier
}

func New(logger *zap.Logger, repo *repository.Repository, deps Dependencies, cfg *config.AppConfig) *Service {
	subscribers := &fallbackSubscribers{
		logger:   logger,
		primary:  repo.Postgres.Subscriber,
		fallback: repo.Redis.Subscriber,
	}
	notifications := &fallbackNotifications{
		logger:   logger,
		primary:  repo.Postgres.Notification,
		fallback: repo.Redis.Notification,
	}

	newsletter := newNewsletterService(logger, subscribers, notifications, deps.Mailer, cfg.Newsletter.Concurrency, cfg.PublicOrigin)

	return &Service{
		Post:       newPostService(logger, repo, deps.Cache, newsletter, deps.Publisher, cfg.PublicOrigin),
		Reaction:   newReactionService(logger, repo),
		Newsletter: newsletter,
		Session:    newSessionService(logger, repo, deps.Verifier, cfg.Auth),
	}
}
