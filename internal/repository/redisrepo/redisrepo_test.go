package redisrepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a throwaway redis. Set WRITERSPACE_INTEGRATION=1 to run; needs docker.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("WRITERSPACE_INTEGRATION") != "1" {
		t.Skip("set WRITERSPACE_INTEGRATION=1 to run redis integration tests")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	return rdb
}

func TestRedisRepository(t *testing.T) {
	rdb := setupRedis(t)
	repo := New(rdb)
	ctx := context.Background()

	t.Run("reaction flags are set once per device", func(t *testing.T) {
		postID := uuid.NewString()

		set, err := repo.Reactions.SetIfAbsent(ctx, "device-a", postID, model.ReactionLikes)
		require.NoError(t, err)
		assert.True(t, set)

		set, err = repo.Reactions.SetIfAbsent(ctx, "device-a", postID, model.ReactionLikes)
		require.NoError(t, err)
		assert.False(t, set)

		set, err = repo.Reactions.SetIfAbsent(ctx, "device-b", postID, model.ReactionLikes)
		require.NoError(t, err)
		assert.True(t, set)

		recorded, err := repo.Reactions.Recorded(ctx, "device-a", postID)
		require.NoError(t, err)
		assert.Equal(t, map[model.ReactionType]bool{
			model.ReactionLikes:    true,
			model.ReactionDislikes: false,
			model.ReactionShares:   false,
		}, recorded)

		require.NoError(t, repo.Reactions.Remove(ctx, "device-a", postID, model.ReactionLikes))
		exists, err := repo.Reactions.Exists(ctx, "device-a", postID, model.ReactionLikes)
		require.NoError(t, err)
		assert.False(t, exists)

		keys, err := rdb.HKeys(ctx, DeviceReactionsKey("device-b")).Result()
		require.NoError(t, err)
		assert.Equal(t, []string{postID + "_likes"}, keys)
	})

	t.Run("json values round trip through Get", func(t *testing.T) {
		user := model.User{ID: uuid.New(), Email: "reader@example.com", Role: model.RoleUser}
		key := UserCacheKey(user.ID.String())
		require.NoError(t, repo.Default.SetJSON(ctx, key, user, time.Minute))

		cached, err := Get[model.User](repo.Default, ctx, key)
		require.NoError(t, err)
		assert.Equal(t, user.ID, cached.ID)

		require.NoError(t, repo.Default.Del(ctx, key).Err())
		_, err = Get[model.User](repo.Default, ctx, key)
		assert.ErrorIs(t, err, redis.Nil)
	})

	t.Run("local subscribers", func(t *testing.T) {
		email := "reader@example.com"
		require.NoError(t, repo.Subscriber.Create(ctx, model.Subscriber{ID: uuid.New(), Email: email, SubscribedAt: time.Now()}))
		require.NoError(t, repo.Subscriber.Create(ctx, model.Subscriber{ID: uuid.New(), Email: email, SubscribedAt: time.Now()}))

		active, err := repo.Subscriber.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.True(t, active[0].Active)

		require.NoError(t, repo.Subscriber.Deactivate(ctx, email))
		found, err := repo.Subscriber.FindActive(ctx, email)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("notifications append to a list", func(t *testing.T) {
		require.NoError(t, repo.Notification.Append(ctx, model.NotificationRecord{ID: uuid.New(), PostTitle: "Hello"}))
		n, err := rdb.LLen(ctx, LOCAL_NOTIFICATIONS_KEY).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
