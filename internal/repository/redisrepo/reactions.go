package redisrepo

import (
	"context"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/redis/go-redis/v9"
)

// reactionsRepo keeps one hash per device, field "<postID>_<type>", mirroring the
// browser's blog_reactions object.
type reactionsRepo struct {
	rdb *redis.Client
}

func newReactionsRepo(rdb *redis.Client) Reactions {
	return &reactionsRepo{
		rdb: rdb,
	}
}

func (r *reactionsRepo) SetIfAbsent(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) (bool, error) {
	return r.rdb.HSetNX(ctx, DeviceReactionsKey(deviceID), ReactionField(postID, string(reaction)), true).Result()
}

func (r *reactionsRepo) Exists(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) (bool, error) {
	return r.rdb.HExists(ctx, DeviceReactionsKey(deviceID), ReactionField(postID, string(reaction))).Result()
}

func (r *reactionsRepo) Remove(ctx context.Context, deviceID string, postID string, reaction model.ReactionType) error {
	return r.rdb.HDel(ctx, DeviceReactionsKey(deviceID), ReactionField(postID, string(reaction))).Err()
}

func (r *reactionsRepo) Recorded(ctx context.Context, deviceID string, postID string) (map[model.ReactionType]bool, error) {
	fields := make([]string, len(model.ReactionTypes))
	for i, t := range model.ReactionTypes {
		fields[i] = ReactionField(postID, string(t))
	}

	values, err := r.rdb.HMGet(ctx, DeviceReactionsKey(deviceID), fields...).Result()
	if err != nil {
		return nil, err
	}

	recorded := make(map[model.ReactionType]bool, len(values))
	for i, v := range values {
		recorded[model.ReactionTypes[i]] = v != nil
	}
	return recorded, nil
}
