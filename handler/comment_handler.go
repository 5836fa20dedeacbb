package handler

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"buzznest/events"
	"buzznest/model"
	"buzznest/pkg/jwt"
	"buzznest/repository"
)

type CommentHandler struct {
	repo      repository.CommentRepository
	posts     repository.PostRepository
	publisher Publisher
}

func NewCommentHandler(repo repository.CommentRepository, posts repository.PostRepository, pub Publisher) *CommentHandler {
	return &CommentHandler{
		repo:      repo,
		posts:     posts,
		publisher: pub,
	}
}

// AddComment stores a comment by the caller on the post. Any authenticated
// user may comment on any post.
func (h *CommentHandler) AddComment(ctx context.Context, caller *jwt.Claims, req *models.CreateCommentRequest) (*models.CommentResponse, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	req.PostID = strings.TrimSpace(req.PostID)
	req.Content = strings.TrimSpace(req.Content)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	postID, err := parseID(req.PostID, "Invalid postId")
	if err != nil {
		return nil, err
	}

	exists, err := h.posts.Exists(ctx, postID)
	if err != nil {
		return nil, internal(ctx, err, "failed to check post")
	}
	if !exists {
		return nil, status.Error(codes.NotFound, "Post not found")
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: now(),
	}

	if err := h.repo.Create(ctx, comment); err != nil {
		return nil, internal(ctx, err, "failed to create comment")
	}

	published(ctx, h.publisher.PublishCommentAdded(events.CommentAddedEvent{
		CommentID: comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}), events.CommentAdded)

	return &models.CommentResponse{
		Message: "Comment saved successfully",
		Comment: comment,
	}, nil
}

// ListComments returns the post's comments oldest first.
func (h *CommentHandler) ListComments(ctx context.Context, rawPostID string) (*models.CommentsResponse, error) {
	if strings.TrimSpace(rawPostID) == "" {
		return nil, status.Error(codes.InvalidArgument, "Invalid postId")
	}
	postID, err := parseID(rawPostID, "Invalid postId")
	if err != nil {
		return nil, err
	}

	comments, err := h.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, internal(ctx, err, "failed to list comments")
	}
	return &models.CommentsResponse{Comments: comments}, nil
}
