package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BloggingApp/writerspace/internal/auth"
	"github.com/BloggingApp/writerspace/internal/mailer"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/BloggingApp/writerspace/internal/repository"
	"github.com/BloggingApp/writerspace/internal/repository/postgres"
	"github.com/BloggingApp/writerspace/internal/repository/redisrepo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockPostRepository struct {
	mock.Mock
}

func (m *mockPostRepository) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	args := m.Called(ctx, post)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	// Return(nil, nil) echoes the inserted row.
	if created, ok := args.Get(0).(*model.Post); ok {
		return created, nil
	}
	return &post, nil
}

func (m *mockPostRepository) Update(ctx context.Context, id uuid.UUID, update model.PostUpdate, updatedAt time.Time) (model.PostStatus, *model.Post, error) {
	args := m.Called(ctx, id, update, updatedAt)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.Get(0).(model.PostStatus), args.Get(1).(*model.Post), args.Error(2)
}

func (m *mockPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPostRepository) ToggleRecommended(ctx context.Context, id uuid.UUID, updatedAt time.Time) (*model.Post, error) {
	args := m.Called(ctx, id, updatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *mockPostRepository) IncrReaction(ctx context.Context, id uuid.UUID, reaction model.ReactionType) error {
	args := m.Called(ctx, id, reaction)
	return args.Error(0)
}

func (m *mockPostRepository) FindAll(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, params mailer.TemplateParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(ctx context.Context, queue string, v interface{}) error {
	args := m.Called(ctx, queue, v)
	return args.Error(0)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, idToken string) (*auth.Identity, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Identity), args.Error(1)
}

// recordingNewsletter counts fan-outs for the post service tests.
type recordingNewsletter struct {
	mu      sync.Mutex
	notices []model.NotificationRecord
	// release, when set, holds every Notify until it is closed.
	release chan struct{}
}

func (n *recordingNewsletter) Subscribe(ctx context.Context, email string) error   { return nil }
func (n *recordingNewsletter) Unsubscribe(ctx context.Context, email string) error { return nil }

func (n *recordingNewsletter) Notify(ctx context.Context, title, excerpt, postURL string) (*model.NotificationRecord, error) {
	if n.release != nil {
		<-n.release
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	record := model.NotificationRecord{PostTitle: title, PostExcerpt: excerpt, PostURL: postURL}
	n.notices = append(n.notices, record)
	return &record, nil
}

func (n *recordingNewsletter) calls() []model.NotificationRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.NotificationRecord(nil), n.notices...)
}

type memReactions struct {
	mu      sync.Mutex
	flags   map[string]bool
	failSet error
}

func newMemReactions() *memReactions {
	return &memReactions{flags: make(map[string]bool)}
}

func (r *memReactions) key(deviceID, postID string, reaction model.ReactionType) string {
	return redisrepo.DeviceReactionsKey(deviceID) + "/" + redisrepo.ReactionField(postID, string(reaction))
}

func (r *memReactions) SetIfAbsent(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet != nil {
		return false, r.failSet
	}
	k := r.key(deviceID, postID, reaction)
	if r.flags[k] {
		return false, nil
	}
	r.flags[k] = true
	return true, nil
}

func (r *memReactions) Exists(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flags[r.key(deviceID, postID, reaction)], nil
}

func (r *memReactions) Remove(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flags, r.key(deviceID, postID, reaction))
	return nil
}

func (r *memReactions) Recorded(ctx context.Context, deviceID string, postID string) (map[model.ReactionType]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[model.ReactionType]bool)
	for _, t := range model.ReactionTypes {
		out[t] = r.flags[r.key(deviceID, postID, t)]
	}
	return out, nil
}

type memSubscribers struct {
	mu   sync.Mutex
	subs map[string]model.Subscriber
	err  error
}

func newMemSubscribers() *memSubscribers {
	return &memSubscribers{subs: make(map[string]model.Subscriber)}
}

func (s *memSubscribers) FindActive(ctx context.Context, email string) (*model.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	sub, ok := s.subs[email]
	if !ok || !sub.Active {
		return nil, nil
	}
	return &sub, nil
}

func (s *memSubscribers) Create(ctx context.Context, subscriber model.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if existing, ok := s.subs[subscriber.Email]; ok && existing.Active {
		return nil
	}
	s.subs[subscriber.Email] = subscriber
	return nil
}

func (s *memSubscribers) Deactivate(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if sub, ok := s.subs[email]; ok {
		sub.Active = false
		s.subs[email] = sub
	}
	return nil
}

func (s *memSubscribers) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Subscriber
	for _, sub := range s.subs {
		if sub.Active {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *memSubscribers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

type memNotifications struct {
	mu      sync.Mutex
	records []model.NotificationRecord
	err     error
}

func (n *memNotifications) Append(ctx context.Context, record model.NotificationRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.records = append(n.records, record)
	return nil
}

type memDefault struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemDefault() *memDefault {
	return &memDefault{values: make(map[string]string)}
}

func (d *memDefault) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[key] = "1"
	return nil
}

func (d *memDefault) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[key] = "cached"
	return nil
}

// Get always misses so reads fall through to Postgres.
func (d *memDefault) Get(ctx context.Context, key string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (d *memDefault) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range keys {
		delete(d.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (d *memDefault) Exists(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.values[key]
	return ok, nil
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: make(map[uuid.UUID]model.Account)}
}

func (a *memAccounts) Create(ctx context.Context, account model.Account) (*model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.accounts {
		if account.Email != "" && strings.EqualFold(existing.Email, account.Email) {
			return nil, postgres.ErrDuplicate
		}
	}
	a.accounts[account.ID] = account
	return &account, nil
}

func (a *memAccounts) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, account := range a.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (a *memAccounts) FindByProvider(ctx context.Context, provider string, subject string) (*model.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, account := range a.accounts {
		if account.Provider == provider && account.ProviderSubject == subject {
			return &account, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]model.User)}
}

func (u *memUsers) CreateIfNotExists(ctx context.Context, user model.User) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if existing, ok := u.users[user.ID]; ok {
		return &existing, nil
	}
	u.users[user.ID] = user
	return &user, nil
}

func (u *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (u *memUsers) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Role = role
	u.users[id] = user
	return nil
}

type testRepo struct {
	posts         *mockPostRepository
	accounts      *memAccounts
	users         *memUsers
	subscribers   *memSubscribers
	notifications *memNotifications
	cache         *memDefault
	reactions     *memReactions
	localSubs     *memSubscribers
	localNotes    *memNotifications
}

func newTestRepo() (*testRepo, *repository.Repository) {
	tr := &testRepo{
		posts:         new(mockPostRepository),
		accounts:      newMemAccounts(),
		users:         newMemUsers(),
		subscribers:   newMemSubscribers(),
		notifications: &memNotifications{},
		cache:         newMemDefault(),
		reactions:     newMemReactions(),
		localSubs:     newMemSubscribers(),
		localNotes:    &memNotifications{},
	}

	repo := &repository.Repository{
		Postgres: &postgres.PostgresRepository{
			Post:         tr.posts,
			Account:      tr.accounts,
			User:         tr.users,
			Subscriber:   tr.subscribers,
			Notification: tr.notifications,
		},
		Redis: &redisrepo.RedisRepository{
			Default:      tr.cache,
			Reactions:    tr.reactions,
			Subscriber:   tr.localSubs,
			Notification: tr.localNotes,
		},
	}

	return tr, repo
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
