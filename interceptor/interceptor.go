package interceptor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"buzznest/pkg/jwt"
)

// ContextKey type for context keys
type ContextKey string

const (
	ClaimsKey ContextKey = "claims"
)

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// AuthInterceptor guards routes with bearer-token authentication
type AuthInterceptor struct {
	jwtManager  *jwt.Manager
	publicPaths map[string]bool
	onError     ErrorWriter
}

// NewAuthInterceptor creates a new auth interceptor. publicPaths are mux path
// templates that are served without a token.
func NewAuthInterceptor(jwtManager *jwt.Manager, publicPaths []string) *AuthInterceptor {
	pathMap := make(map[string]bool)
	for _, path := range publicPaths {
		pathMap[path] = true
	}

	return &AuthInterceptor{
		jwtManager:  jwtManager,
		publicPaths: pathMap,
		onError:     writeUnauthorized,
	}
}

// AddPublicPath adds a route template that doesn't require authentication
func (interceptor *AuthInterceptor) AddPublicPath(path string) {
	interceptor.publicPaths[path] = true
}

// SetErrorWriter replaces the default JSON 401 renderer.
func (interceptor *AuthInterceptor) SetErrorWriter(fn ErrorWriter) {
	if fn != nil {
		interceptor.onError = fn
	}
}

// Middleware authenticates every request on a non-public route and stores the
// claims in the request context.
func (interceptor *AuthInterceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if interceptor.isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := interceptor.authorize(r)
		if err != nil {
			hlog.FromRequest(r).Debug().Err(err).Msg("rejected request")
			interceptor.onError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (interceptor *AuthInterceptor) isPublic(r *http.Request) bool {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return interceptor.publicPaths[tpl]
		}
	}
	return interceptor.publicPaths[r.URL.Path]
}

// authorize verifies the bearer token and returns its claims
func (interceptor *AuthInterceptor) authorize(r *http.Request) (*jwt.Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, status.Error(codes.Unauthenticated, "authorization token is not provided")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, status.Error(codes.Unauthenticated, "invalid authorization format")
	}

	claims, err := interceptor.jwtManager.Verify(strings.TrimSpace(token))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, fmt.Sprintf("invalid token: %v", err))
	}

	return claims, nil
}

// ClaimsFromContext extracts the authenticated caller from context
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": status.Convert(err).Message()})
}
