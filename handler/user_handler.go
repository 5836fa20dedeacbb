package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"buzznest/model"
	"buzznest/repository"
)

type UserHandler struct {
	repo repository.UserRepository
}

func NewUserHandler(repo repository.UserRepository) *UserHandler {
	return &UserHandler{repo: repo}
}

// SearchUsers returns every user whose username or email contains query,
// ignoring case.
func (h *UserHandler) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, status.Error(codes.InvalidArgument, "Invalid search query.")
	}

	users, err := h.repo.Search(ctx, query)
	if err != nil {
		return nil, internal(ctx, err, "failed to search users")
	}
	return users, nil
}
