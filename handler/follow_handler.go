package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"buzznest/events"
	"buzznest/model"
	"buzznest/pkg/jwt"
	"buzznest/repository"
)

type FollowHandler struct {
	repo      repository.FollowRepository
	publisher Publisher
}

func NewFollowHandler(repo repository.FollowRepository, pub Publisher) *FollowHandler {
	return &FollowHandler{
		repo:      repo,
		publisher: pub,
	}
}

// ToggleFollow follows the target user, or unfollows when the caller already
// follows them.
func (h *FollowHandler) ToggleFollow(ctx context.Context, caller *jwt.Claims, rawTargetID string) (*models.FollowResponse, error) {
	followerID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	targetID, err := parseID(rawTargetID, "Invalid userId")
	if err != nil {
		return nil, err
	}
	if targetID == followerID {
		return nil, status.Error(codes.InvalidArgument, "You cannot follow yourself.")
	}

	following, err := h.repo.ToggleFollow(ctx, followerID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "User not found")
		}
		return nil, internal(ctx, err, "failed to toggle follow")
	}

	subject, message := events.UserUnfollowed, "Unfollowed successfully."
	if following {
		subject, message = events.UserFollowed, "Followed successfully."
	}

	published(ctx, h.publisher.PublishFollow(events.FollowEvent{
		FollowerID:  followerID,
		FollowingID: targetID,
		CreatedAt:   now(),
	}, following), subject)

	return &models.FollowResponse{
		Message:   message,
		Following: following,
	}, nil
}

func (h *FollowHandler) GetFollowCounts(ctx context.Context, rawUserID string) (*models.FollowCounts, error) {
	userID, err := parseID(rawUserID, "Invalid userId")
	if err != nil {
		return nil, err
	}

	counts, err := h.repo.GetFollowCounts(ctx, userID)
	if err != nil {
		return nil, internal(ctx, err, "failed to get follow counts")
	}
	return counts, nil
}
