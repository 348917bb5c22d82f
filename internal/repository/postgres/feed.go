package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const PostsChangedChannel = "posts_changed"

// PostSink receives whole snapshots of the posts table.
type PostSink interface {
	Replace(posts []model.Post)
	Fail(err error)
	Reset()
}

// PostFeed keeps a PostSink in step with the posts table using LISTEN/NOTIFY.
type PostFeed struct {
	db         *pgxpool.Pool
	posts      Post
	sink       PostSink
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewPostFeed(db *pgxpool.Pool, sink PostSink, logger *zap.Logger, retryDelay time.Duration) *PostFeed {
	return &PostFeed{
		db:         db,
		posts:      newPostRepo(db),
		sink:       sink,
		logger:     logger,
		retryDelay: retryDelay,
	}
}

// Run blocks until ctx is cancelled, reconnecting after every failure.
func (f *PostFeed) Run(ctx context.Context) error {
	for {
		f.sink.Reset()

		err := f.listen(ctx)
		if ctx.Err() != nil {
			f.logger.Info("posts feed stopped")
			return ctx.Err()
		}

		f.logger.Sugar().Errorf("posts feed failed, retrying in %s: %s", f.retryDelay, err.Error())
		f.sink.Fail(err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.retryDelay):
		}
	}
}

func (f *PostFeed) listen(ctx context.Context) error {
	conn, err := f.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	// The session keeps its LISTEN registration, so it never goes back to the pool.
	defer func() {
		pgConn := conn.Hijack()
		pgConn.Close(context.Background())
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+PostsChangedChannel); err != nil {
		return fmt.Errorf("listen %s: %w", PostsChangedChannel, err)
	}

	if err := f.reload(ctx); err != nil {
		return err
	}
	f.logger.Info("posts feed subscribed")

	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		if err := f.reload(ctx); err != nil {
			return err
		}
	}
}

func (f *PostFeed) reload(ctx context.Context) error {
	posts, err := f.posts.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load posts snapshot: %w", err)
	}

	f.sink.Replace(posts)
	return nil
}
