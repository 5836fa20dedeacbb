package handler

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"buzznest/events"
	"buzznest/pkg/jwt"
)

// Publisher emits domain events after successful writes.
type Publisher interface {
	PublishPostCreated(event events.PostCreatedEvent) error
	PublishPostDeleted(event events.PostDeletedEvent) error
	PublishPostLike(event events.PostLikeEvent, liked bool) error
	PublishCommentAdded(event events.CommentAddedEvent) error
	PublishFollow(event events.FollowEvent, following bool) error
}

const maxContentLength = 2000

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs struct validation and converts failures into an
// InvalidArgument status carrying one field violation per failed field.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return status.Error(codes.InvalidArgument, "Invalid request")
	}

	br := &errdetails.BadRequest{}
	for _, fe := range verrs {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       fe.Field(),
			Description: fieldMessage(fe),
		})
	}

	st, detailErr := status.New(codes.InvalidArgument, "Validation error").WithDetails(br)
	if detailErr != nil {
		return status.Error(codes.InvalidArgument, "Validation error")
	}
	return st.Err()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// callerID returns the authenticated user's id.
func callerID(caller *jwt.Claims) (uuid.UUID, error) {
	if caller == nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "User not authenticated.")
	}
	id, err := caller.UserUUID()
	if err != nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "User not authenticated.")
	}
	return id, nil
}

func parseID(raw, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, message)
	}
	return id, nil
}

// internal logs err with the request-scoped logger and returns an opaque
// Internal status.
func internal(ctx context.Context, err error, msg string) error {
	zerolog.Ctx(ctx).Error().Err(err).Msg(msg)
	return status.Error(codes.Internal, "Internal server error")
}

// published logs a failed event publication; it never fails the request.
func published(ctx context.Context, err error, subject string) {
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
