package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"buzznest/model"
	"buzznest/pkg/jwt"
	"buzznest/repository"
)

type AuthHandler struct {
	repo       repository.UserRepository
	jwtManager *jwt.Manager
	bcryptCost int
}

func NewAuthHandler(repo repository.UserRepository, jwtManager *jwt.Manager, bcryptCost int) *AuthHandler {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthHandler{
		repo:       repo,
		jwtManager: jwtManager,
		bcryptCost: bcryptCost,
	}
}

func (h *AuthHandler) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	exists, err := h.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, internal(ctx, err, "failed to check email")
	}
	if exists {
		return nil, status.Error(codes.AlreadyExists, "User already exists, please try logging in")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		return nil, internal(ctx, err, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now(),
	}

	if err := h.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, status.Error(codes.AlreadyExists, "User already exists, please try logging in")
		}
		return nil, internal(ctx, err, "failed to create user")
	}

	token, err := h.jwtManager.Generate(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, internal(ctx, err, "failed to generate access token")
	}

	return &models.AuthResponse{
		Message: "User created successfully",
		Token:   token,
	}, nil
}

func (h *AuthHandler) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := h.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "User does not exist, please sign up")
		}
		return nil, internal(ctx, err, "failed to get user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, status.Error(codes.Unauthenticated, "Invalid credentials")
	}

	token, err := h.jwtManager.Generate(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, internal(ctx, err, "failed to generate access token")
	}

	return &models.AuthResponse{
		Message: "User logged in successfully",
		Token:   token,
	}, nil
}

func (h *AuthHandler) GetProfile(ctx context.Context, caller *jwt.Claims) (*models.ProfileResponse, error) {
	userID, err := callerID(caller)
	if err != nil {
		return nil, err
	}

	user, err := h.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "User not found")
		}
		return nil, internal(ctx, err, "failed to get user")
	}

	return &models.ProfileResponse{
		Message: "Profile retrieved successfully",
		User:    user.Summary(),
	}, nil
}
