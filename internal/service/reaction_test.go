package service

import (
	"context"
	"errors"
	"testing"

	"github.com/BloggingApp/writerspace/internal/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReactionFixture() (Reaction, *testRepo) {
	tr, repo := newTestRepo()
	return newReactionService(testLogger(), repo), tr
}

func TestReactionService_RecordOncePerDevice(t *testing.T) {
	ctx := context.Background()
	svc, tr := newReactionFixture()
	postID := uuid.New()
	tr.posts.On("IncrReaction", mock.Anything, postID, model.ReactionLikes).Return(nil)

	recorded, err := svc.Record(ctx, "device-a", postID, model.ReactionLikes)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = svc.Record(ctx, "device-a", postID, model.ReactionLikes)
	require.NoError(t, err)
	assert.False(t, recorded)

	tr.posts.AssertNumberOfCalls(t, "IncrReaction", 1)

	reacted, err := svc.HasReacted(ctx, "device-a", postID, model.ReactionLikes)
	require.NoError(t, err)
	assert.True(t, reacted)

	recorded, err = svc.Record(ctx, "device-b", postID, model.ReactionLikes)
	require.NoError(t, err)
	assert.True(t, recorded)
	tr.posts.AssertNumberOfCalls(t, "IncrReaction", 2)
}

func TestReactionService_TypesAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc, tr := newReactionFixture()
	postID := uuid.New()
	tr.posts.On("IncrReaction", mock.Anything, postID, mock.Anything).Return(nil)

	for _, reaction := range model.ReactionTypes {
		recorded, err := svc.Record(ctx, "device-a", postID, reaction)
		require.NoError(t, err)
		assert.True(t, recorded, reaction)
	}
	tr.posts.AssertNumberOfCalls(t, "IncrReaction", 3)
}

func TestReactionService_FailedIncrementRevertsFlag(t *testing.T) {
	ctx := context.Background()
	svc, tr := newReactionFixture()
	postID := uuid.New()
	tr.posts.On("IncrReaction", mock.Anything, postID, model.ReactionShares).Return(errors.New("network down")).Once()
	tr.posts.On("IncrReaction", mock.Anything, postID, model.ReactionShares).Return(nil).Once()

	recorded, err := svc.Record(ctx, "device-a", postID, model.ReactionShares)
	assert.ErrorIs(t, err, ErrReactionFailed)
	assert.False(t, recorded)

	reacted, err := svc.HasReacted(ctx, "device-a", postID, model.ReactionShares)
	require.NoError(t, err)
	assert.False(t, reacted)

	recorded, err = svc.Record(ctx, "device-a", postID, model.ReactionShares)
	require.NoError(t, err)
	assert.True(t, recorded)
}

func TestReactionService_MissingPost(t *testing.T) {
	ctx := context.Background()
	svc, tr := newReactionFixture()
	postID := uuid.New()
	tr.posts.On("IncrReaction", mock.Anything, postID, model.ReactionLikes).Return(pgx.ErrNoRows)

	recorded, err := svc.Record(ctx, "device-a", postID, model.ReactionLikes)
	assert.ErrorIs(t, err, ErrReactionFailed)
	assert.False(t, recorded)

	reacted, _ := svc.HasReacted(ctx, "device-a", postID, model.ReactionLikes)
	assert.False(t, reacted)
}

func TestReactionService_FlagStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, tr := newReactionFixture()
	tr.reactions.failSet = errors.New("redis down")

	recorded, err := svc.Record(ctx, "device-a", uuid.New(), model.ReactionLikes)
	assert.ErrorIs(t, err, ErrReactionFailed)
	assert.False(t, recorded)
	tr.posts.AssertNotCalled(t, "IncrReaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestReactionService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, tr := newReactionFixture()
	var verrs validation.Errors

	_, err := svc.Record(ctx, "device-a", uuid.New(), model.ReactionType("hearts"))
	assert.True(t, errors.As(err, &verrs))

	_, err = svc.Record(ctx, "", uuid.New(), model.ReactionLikes)
	assert.True(t, errors.As(err, &verrs))

	_, err = svc.HasReacted(ctx, "device-a", uuid.New(), model.ReactionType(""))
	assert.True(t, errors.As(err, &verrs))

	tr.posts.AssertNotCalled(t, "IncrReaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestReactionService_UserReaction(t *testing.T) {
	ctx := context.Background()
	svc, tr := newReactionFixture()
	postID := uuid.New()
	tr.posts.On("IncrReaction", mock.Anything, postID, mock.Anything).Return(nil)

	reaction, err := svc.UserReaction(ctx, "device-a", postID)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionType(""), reaction)

	_, err = svc.Record(ctx, "device-a", postID, model.ReactionShares)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "device-a", postID, model.ReactionDislikes)
	require.NoError(t, err)

	reaction, err = svc.UserReaction(ctx, "device-a", postID)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionDislikes, reaction)
}

func TestReactionService_Recorded(t *testing.T) {
	ctx := context.Background()
	svc, tr := newReactionFixture()
	postID := uuid.New()
	tr.posts.On("IncrReaction", mock.Anything, postID, mock.Anything).Return(nil)

	_, err := svc.Record(ctx, "device-a", postID, model.ReactionLikes)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "device-a", postID, model.ReactionDislikes)
	require.NoError(t, err)

	recorded, err := svc.Recorded(ctx, "device-a", postID)
	require.NoError(t, err)
	assert.Equal(t, map[model.ReactionType]bool{
		model.ReactionLikes:    true,
		model.ReactionDislikes: true,
		model.ReactionShares:   false,
	}, recorded)

	recorded, err = svc.Recorded(ctx, "device-b", postID)
	require.NoError(t, err)
	assert.False(t, recorded[model.ReactionLikes])
	assert.False(t, recorded[model.ReactionDislikes])

	_, err = svc.Recorded(ctx, "", postID)
	var verrs validation.Errors
	assert.True(t, errors.As(err, &verrs))
}
