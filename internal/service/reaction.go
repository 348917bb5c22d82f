package service

import (
	"context"
	"errors"

	"github.com/BloggingApp/writerspace/internal/metrics"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/BloggingApp/writerspace/internal/repository"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	errUnknownReaction = validation.Errors{
		"type": validation.NewError("invalid_reaction", "reaction must be likes, dislikes or shares"),
	}
	errMissingDevice = validation.Errors{
		"device": validation.NewError("device_required", "device id is required"),
	}
)

// reactionService records at most one reaction of each type per (device, post). The flag is
// written first and removed again if the counter increment does not go through.
type reactionService struct {
	logger *zap.Logger
	repo   *repository.Repository
}

func newReactionService(logger *zap.Logger, repo *repository.Repository) Reaction {
	return &reactionService{
		logger: logger,
		repo:   repo,
	}
}

func (s *reactionService) HasReacted(ctx context.Context, deviceID string, postID uuid.UUID, reaction model.ReactionType) (bool, error) {
	if err := checkReaction(deviceID, reaction); err != nil {
		return false, err
	}

	reacted, err := s.repo.Redis.Reactions.Exists(ctx, deviceID, postID.String(), reaction)
	if err != nil {
		s.logger.Sugar().Errorf("failed to check %s of post(%s) for device(%s): %s", reaction, postID.String(), deviceID, err.Error())
		return false, ErrInternal
	}

	return reacted, nil
}

// Recorded reports every reaction type for the post, each flag independent of the others.
func (s *reactionService) Recorded(ctx context.Context, deviceID string, postID uuid.UUID) (map[model.ReactionType]bool, error) {
	if deviceID == "" {
		return nil, errMissingDevice
	}

	recorded, err := s.repo.Redis.Reactions.Recorded(ctx, deviceID, postID.String())
	if err != nil {
		s.logger.Sugar().Errorf("failed to get reactions of post(%s) for device(%s): %s", postID.String(), deviceID, err.Error())
		return nil, ErrInternal
	}

	return recorded, nil
}

func (s *reactionService) UserReaction(ctx context.Context, deviceID string, postID uuid.UUID) (model.ReactionType, error) {
	recorded, err := s.Recorded(ctx, deviceID, postID)
	if err != nil {
		return "", err
	}

	for _, t := range model.ReactionTypes {
		if recorded[t] {
			return t, nil
		}
	}
	return "", nil
}

func (s *reactionService) Record(ctx context.Context, deviceID string, postID uuid.UUID, reaction model.ReactionType) (bool, error) {
	if err := checkReaction(deviceID, reaction); err != nil {
		return false, err
	}

	set, err := s.repo.Redis.Reactions.SetIfAbsent(ctx, deviceID, postID.String(), reaction)
	if err != nil {
		s.logger.Sugar().Errorf("failed to flag %s of post(%s) for device(%s): %s", reaction, postID.String(), deviceID, err.Error())
		metrics.ReactionsTotal.WithLabelValues(string(reaction), "failed").Inc()
		return false, ErrReactionFailed
	}
	if !set {
		metrics.ReactionsTotal.WithLabelValues(string(reaction), "duplicate").Inc()
		return false, nil
	}

	if err := s.repo.Postgres.Post.IncrReaction(ctx, postID, reaction); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Sugar().Errorf("failed to increment %s of post(%s): post does not exist", reaction, postID.String())
		} else {
			s.logger.Sugar().Errorf("failed to increment %s of post(%s): %s", reaction, postID.String(), err.Error())
		}

		if err := s.repo.Redis.Reactions.Remove(context.WithoutCancel(ctx), deviceID, postID.String(), reaction); err != nil {
			s.logger.Sugar().Errorf("failed to revert %s flag of post(%s) for device(%s): %s", reaction, postID.String(), deviceID, err.Error())
		}

		metrics.ReactionsTotal.WithLabelValues(string(reaction), "failed").Inc()
		return false, ErrReactionFailed
	}

	metrics.ReactionsTotal.WithLabelValues(string(reaction), "recorded").Inc()
	return true, nil
}

func checkReaction(deviceID string, reaction model.ReactionType) error {
	if deviceID == "" {
		return errMissingDevice
	}
	if !reaction.Valid() {
		return errUnknownReaction
	}
	return nil
}
