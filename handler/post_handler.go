package handler

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"buzznest/events"
	"buzznest/media"
	"buzznest/model"
	"buzznest/pkg/jwt"
	"buzznest/repository"
)

const maxPageSize = 100

// Upload is a single file received with a new post.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type PostHandler struct {
	repo      repository.PostRepository
	uploader  media.Uploader
	publisher Publisher
}

func NewPostHandler(repo repository.PostRepository, uploader media.Uploader, pub Publisher) *PostHandler {
	return &PostHandler{
		repo:      repo,
		uploader:  uploader,
		publisher: pub,
	}
}

func (h *PostHandler) CreatePost(ctx context.Context, caller *jwt.Claims, content string, file *Upload) (*models.PostResponse, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	if file == nil || file.Body == nil {
		return nil, status.Error(codes.InvalidArgument, "No file uploaded.")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, status.Error(codes.InvalidArgument, "Please enter the content.")
	}
	if len([]rune(content)) > maxContentLength {
		return nil, status.Error(codes.InvalidArgument, "content must be at most 2000 characters")
	}

	head, body, err := media.Sniff(file.Body)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "failed to read uploaded file")
	}
	kind := media.Classify(file.ContentType, head)

	url, err := h.uploader.Upload(ctx, body, file.Filename, kind)
	if err != nil {
		return nil, internal(ctx, err, "failed to upload media")
	}

	ts := now()
	post := &models.Post{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   content,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	post.SetMedia(kind, url)

	if err := h.repo.Create(ctx, post); err != nil {
		return nil, internal(ctx, err, "failed to create post")
	}

	published(ctx, h.publisher.PublishPostCreated(events.PostCreatedEvent{
		PostID:    post.ID,
		UserID:    post.UserID,
		Content:   post.Content,
		MediaURL:  url,
		MediaKind: string(kind),
		CreatedAt: post.CreatedAt,
	}), events.PostCreated)

	return &models.PostResponse{
		Message: "File uploaded and post created successfully.",
		Post:    post,
	}, nil
}

// ListFeed returns every post newest first. The second value is the cursor of
// the next page when page.Limit is set and more posts remain.
func (h *PostHandler) ListFeed(ctx context.Context, caller *jwt.Claims, page models.Page) ([]models.FeedPost, string, error) {
	if _, err := callerID(caller); err != nil {
		return nil, "", err
	}
	return h.list(ctx, nil, page)
}

// ListOwnPosts is ListFeed restricted to the caller's posts.
func (h *PostHandler) ListOwnPosts(ctx context.Context, caller *jwt.Claims, page models.Page) ([]models.FeedPost, string, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, "", err
	}
	return h.list(ctx, &userID, page)
}

func (h *PostHandler) list(ctx context.Context, ownerID *uuid.UUID, page models.Page) ([]models.FeedPost, string, error) {
	if page.Limit < 0 || page.Limit > maxPageSize {
		return nil, "", status.Errorf(codes.InvalidArgument, "limit must be between 1 and %d", maxPageSize)
	}
	if page.Cursor != "" && page.Limit == 0 {
		return nil, "", status.Error(codes.InvalidArgument, "cursor requires limit")
	}

	posts, next, err := h.repo.ListFeed(ctx, ownerID, page)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, "", status.Error(codes.InvalidArgument, "invalid cursor")
		}
		return nil, "", internal(ctx, err, "failed to list posts")
	}
	return posts, next, nil
}

func (h *PostHandler) UpdatePost(ctx context.Context, caller *jwt.Claims, rawPostID string, req *models.UpdatePostRequest) (*models.PostResponse, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	postID, err := parseID(rawPostID, "Invalid postId")
	if err != nil {
		return nil, err
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if err := h.authorizeOwner(ctx, postID, userID, "You do not have permission to update this post"); err != nil {
		return nil, err
	}

	post, err := h.repo.UpdateContent(ctx, postID, req.Content, now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "Post not found")
		}
		return nil, internal(ctx, err, "failed to update post")
	}

	return &models.PostResponse{
		Message: "Post updated successfully",
		Post:    post,
	}, nil
}

func (h *PostHandler) DeletePost(ctx context.Context, caller *jwt.Claims, rawPostID string) (*models.PostResponse, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	postID, err := parseID(rawPostID, "Invalid postId")
	if err != nil {
		return nil, err
	}

	if err := h.authorizeOwner(ctx, postID, userID, "You do not have permission to delete this post"); err != nil {
		return nil, err
	}

	post, err := h.repo.Delete(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "Post not found")
		}
		return nil, internal(ctx, err, "failed to delete post")
	}

	published(ctx, h.publisher.PublishPostDeleted(events.PostDeletedEvent{
		PostID:    post.ID,
		UserID:    post.UserID,
		DeletedAt: now(),
	}), events.PostDeleted)

	return &models.PostResponse{
		Message: "Post deleted successfully",
		Post:    post,
	}, nil
}

func (h *PostHandler) authorizeOwner(ctx context.Context, postID, userID uuid.UUID, denied string) error {
	post, err := h.repo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return status.Error(codes.NotFound, "Post not found")
		}
		return internal(ctx, err, "failed to get post")
	}
	if post.UserID != userID {
		return status.Error(codes.PermissionDenied, denied)
	}
	return nil
}

func (h *PostHandler) ToggleLike(ctx context.Context, caller *jwt.Claims, rawPostID string) (*models.LikeResponse, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	postID, err := parseID(rawPostID, "Invalid postId")
	if err != nil {
		return nil, err
	}

	post, liked, err := h.repo.ToggleLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "Post not found")
		}
		return nil, internal(ctx, err, "failed to toggle like")
	}

	subject, message := events.PostUnliked, "Post unliked."
	if liked {
		subject, message = events.PostLiked, "Post liked."
	}

	published(ctx, h.publisher.PublishPostLike(events.PostLikeEvent{
		PostID:     post.ID,
		PostUserID: post.UserID,
		UserID:     userID,
		LikesCount: post.LikesCount,
		CreatedAt:  now(),
	}, liked), subject)

	return &models.LikeResponse{
		Message:     message,
		Liked:       liked,
		UpdatedPost: post,
	}, nil
}

func (h *PostHandler) GetPostCount(ctx context.Context, caller *jwt.Claims) (*models.PostCountResponse, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	count, err := h.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, internal(ctx, err, "failed to count posts")
	}
	return &models.PostCountResponse{PostCount: count}, nil
}
