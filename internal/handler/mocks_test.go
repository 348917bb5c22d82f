package handler

import (
	"context"
	"sync"

	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockPostService struct {
	mock.Mock

	mu       sync.Mutex
	watchers []func(posts []model.Post, loadError string)
}

func (m *mockPostService) Create(ctx context.Context, user *model.User, req dto.CreatePostRequest) (*model.Post, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *mockPostService) Update(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdatePostRequest) (*model.Post, error) {
	args := m.Called(ctx, user, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *mockPostService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	args := m.Called(ctx, user, id)
	return args.Error(0)
}

func (m *mockPostService) ToggleRecommendation(ctx context.Context, user *model.User, id uuid.UUID) (*model.Post, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *mockPostService) GetPost(id uuid.UUID) (*model.Post, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *mockPostService) GetPublishedPosts(category *model.PostCategory) []model.Post {
	args := m.Called(category)
	return args.Get(0).([]model.Post)
}

func (m *mockPostService) GetRecommendedPosts() []model.Post {
	args := m.Called()
	return args.Get(0).([]model.Post)
}

func (m *mockPostService) GetAllPosts() []model.Post {
	args := m.Called()
	return args.Get(0).([]model.Post)
}

func (m *mockPostService) Stats() model.PostStats {
	args := m.Called()
	return args.Get(0).(model.PostStats)
}

func (m *mockPostService) LoadError() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockPostService) FeedError() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockPostService) Drain(ctx context.Context) error {
	return nil
}

func (m *mockPostService) PostURL(id uuid.UUID) string {
	return "https://writerspace.example/post/" + id.String()
}

func (m *mockPostService) WatchPublished(fn func(posts []model.Post, loadError string)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
	return func() {}
}

func (m *mockPostService) broadcast(posts []model.Post, loadError string) {
	m.mu.Lock()
	watchers := append(([]func([]model.Post, string))(nil), m.watchers...)
	m.mu.Unlock()
	for _, fn := range watchers {
		fn(posts, loadError)
	}
}

func (m *mockPostService) watcherCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

type mockReactionService struct {
	mock.Mock
}

func (m *mockReactionService) HasReacted(ctx context.Context, deviceID string, postID uuid.UUID, reaction model.ReactionType) (bool, error) {
	args := m.Called(ctx, deviceID, postID, reaction)
	return args.Bool(0), args.Error(1)
}

func (m *mockReactionService) Recorded(ctx context.Context, deviceID string, postID uuid.UUID) (map[model.ReactionType]bool, error) {
	args := m.Called(ctx, deviceID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.ReactionType]bool), args.Error(1)
}

func (m *mockReactionService) UserReaction(ctx context.Context, deviceID string, postID uuid.UUID) (model.ReactionType, error) {
	args := m.Called(ctx, deviceID, postID)
	return args.Get(0).(model.ReactionType), args.Error(1)
}

func (m *mockReactionService) Record(ctx context.Context, deviceID string, postID uuid.UUID, reaction model.ReactionType) (bool, error) {
	args := m.Called(ctx, deviceID, postID, reaction)
	return args.Bool(0), args.Error(1)
}

type mockNewsletterService struct {
	mock.Mock
}

func (m *mockNewsletterService) Subscribe(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *mockNewsletterService) Unsubscribe(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *mockNewsletterService) Notify(ctx context.Context, title, excerpt, postURL string) (*model.NotificationRecord, error) {
	args := m.Called(ctx, title, excerpt, postURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NotificationRecord), args.Error(1)
}

type mockSessionService struct {
	mock.Mock
}

func (m *mockSessionService) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

func (m *mockSessionService) SignIn(ctx context.Context, req dto.SignInRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

func (m *mockSessionService) SignInFederated(ctx context.Context, idToken string) (*dto.AuthResponse, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

func (m *mockSessionService) SignOut(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockSessionService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockSessionService) CreateAdmin(ctx context.Context, req dto.SignUpRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockSessionService) OnAuthStateChanged(fn func(model.AuthEvent)) func() {
	return func() {}
}
