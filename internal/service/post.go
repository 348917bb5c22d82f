package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/BloggingApp/writerspace/internal/postcache"
	"github.com/BloggingApp/writerspace/internal/rabbitmq"
	"github.com/BloggingApp/writerspace/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type postService struct {
	logger       *zap.Logger
	repo         *repository.Repository
	cache        *postcache.Store
	newsletter   Newsletter
	publisher    EventPublisher
	publicOrigin string

	// announcing tracks fan-outs still running after their mutation returned.
	announcing sync.WaitGroup
}

func newPostService(logger *zap.Logger, repo *repository.Repository, cache *postcache.Store, newsletter Newsletter, publisher EventPublisher, publicOrigin string) Post {
	return &postService{
		logger:       logger,
		repo:         repo,
		cache:        cache,
		newsletter:   newsletter,
		publisher:    publisher,
		publicOrigin: strings.TrimRight(publicOrigin, "/"),
	}
}

func (s *postService) Create(ctx context.Context, user *model.User, req dto.CreatePostRequest) (*model.Post, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = model.PostCategoryBlog
	}
	status := req.Status
	if status == "" {
		status = model.PostStatusDraft
	}
	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" {
		excerpt = Excerpt(req.Content)
	}

	now := time.Now().UTC()
	post := model.Post{
		ID:            uuid.New(),
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       excerpt,
		Author:        authorName(user),
		AuthorID:      user.ID,
		Category:      category,
		Status:        status,
		Tags:          NormalizeTags(req.Tags),
		ReadTime:      ReadTime(req.Content),
		ImageURL:      req.ImageURL,
		IsRecommended: req.IsRecommended,
		PublishedAt:   now,
		UpdatedAt:     now,
	}

	createdPost, err := s.repo.Postgres.Post.Create(ctx, post)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create post by user(%s): %s", user.ID.String(), err.Error())
		return nil, ErrInternal
	}

	if createdPost.IsPublished() {
		s.announceAsync(ctx, *createdPost)
	}

	return createdPost, nil
}

func (s *postService) Update(ctx context.Context, user *model.User, id uuid.UUID, req dto.UpdatePostRequest) (*model.Post, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	update := model.PostUpdate{
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Category:      req.Category,
		Status:        req.Status,
		ImageURL:      req.ImageURL,
		IsRecommended: req.IsRecommended,
	}
	if req.Content != nil {
		readTime := ReadTime(*req.Content)
		update.ReadTime = &readTime
	}
	if req.Tags != nil {
		update.Tags = NormalizeTags(req.Tags)
	}

	prevStatus, post, err := s.repo.Postgres.Post.Update(ctx, id, update, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to update post(%s): %s", id.String(), err.Error())
		return nil, ErrInternal
	}

	if prevStatus != model.PostStatusPublished && post.IsPublished() {
		s.announceAsync(ctx, *post)
	}

	return post, nil
}

func (s *postService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	if user == nil {
		return ErrUnauthenticated
	}

	if err := s.repo.Postgres.Post.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to delete post(%s): %s", id.String(), err.Error())
		return ErrInternal
	}

	return nil
}

func (s *postService) ToggleRecommendation(ctx context.Context, user *model.User, id uuid.UUID) (*model.Post, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}

	post, err := s.repo.Postgres.Post.ToggleRecommended(ctx, id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		s.logger.Sugar().Errorf("failed to toggle recommendation of post(%s): %s", id.String(), err.Error())
		return nil, ErrInternal
	}

	return post, nil
}

func (s *postService) GetPost(id uuid.UUID) (*model.Post, error) {
	post, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrPostNotFound
	}
	return &post, nil
}

func (s *postService) GetPublishedPosts(category *model.PostCategory) []model.Post {
	return s.cache.Published(category)
}

func (s *postService) GetRecommendedPosts() []model.Post {
	return s.cache.Recommended()
}

func (s *postService) GetAllPosts() []model.Post {
	return s.cache.All()
}

func (s *postService) Stats() model.PostStats {
	return s.cache.Stats()
}

func (s *postService) LoadError() string {
	return s.cache.Snapshot().Error
}

func (s *postService) FeedError() error {
	return s.cache.Err()
}

// WatchPublished calls fn with the published posts of every new cache snapshot.
func (s *postService) WatchPublished(fn func(posts []model.Post, loadError string)) func() {
	return s.cache.Subscribe(func(snap postcache.Snapshot) {
		published := make([]model.Post, 0, len(snap.Posts))
		for _, p := range snap.Posts {
			if p.IsPublished() {
				published = append(published, p)
			}
		}
		fn(published, snap.Error)
	})
}

func (s *postService) PostURL(id uuid.UUID) string {
	return s.publicOrigin + "/post/" + id.String()
}

// announceAsync starts the fan-out for one transition into published and returns at once,
// so a slow mail provider never holds up the mutation's response. Drain waits for it.
func (s *postService) announceAsync(ctx context.Context, post model.Post) {
	ctx = context.WithoutCancel(ctx)

	s.announcing.Add(1)
	go func() {
		defer s.announcing.Done()
		s.announce(ctx, &post)
	}()
}

// Drain blocks until every started announcement has finished or ctx is done.
func (s *postService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.announcing.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// announce runs the newsletter fan-out and then the queue event. Neither step can fail the
// mutation that triggered it.
func (s *postService) announce(ctx context.Context, post *model.Post) {
	url := s.PostURL(post.ID)

	record, err := s.newsletter.Notify(ctx, post.Title, post.Excerpt, url)
	if err != nil {
		s.logger.Sugar().Errorf("failed to notify subscribers about post(%s): %s", post.ID.String(), err.Error())
	} else if record != nil {
		s.logger.Sugar().Infof("newsletter for post(%s) sent to %d/%d subscribers", post.ID.String(), record.SuccessCount, record.SubscriberCount)
	}

	if s.publisher == nil {
		return
	}

	msg := dto.MQPostPublishedMsg{
		PostID:      post.ID,
		AuthorID:    post.AuthorID,
		PostTitle:   post.Title,
		PostURL:     url,
		Category:    string(post.Category),
		PublishedAt: post.UpdatedAt,
	}
	if err := s.publisher.PublishJSON(ctx, rabbitmq.POST_PUBLISHED_QUEUE, msg); err != nil {
		s.logger.Sugar().Errorf("failed to publish post(%s) to queue(%s): %s", post.ID.String(), rabbitmq.POST_PUBLISHED_QUEUE, err.Error())
	}
}

func authorName(user *model.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	if user.Username != "" {
		return user.Username
	}
	return user.Email
}
