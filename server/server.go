package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"buzznest/handler"
	"buzznest/interceptor"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config wires the HTTP layer to the handlers.
type Config struct {
	Auth    *handler.AuthHandler
	Posts   *handler.PostHandler
	Comment *handler.CommentHandler
	Follow  *handler.FollowHandler
	Users   *handler.UserHandler

	Interceptor *interceptor.AuthInterceptor
	Logger      zerolog.Logger

	// MaxUploadBytes bounds the multipart body of /upload.
	MaxUploadBytes int64
	// MediaDir, when set, is served read-only under /media/.
	MediaDir string
	// Health maps a dependency name to its probe.
	Health map[string]HealthCheck
}

// Server exposes the REST API.
type Server struct {
	cfg    Config
	router *mux.Router
}

func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	s := &Server{cfg: cfg, router: mux.NewRouter()}
	s.routes()
	return s
}

// Handler returns the router wrapped in logging and recovery middleware.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = recoverer(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		event := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			event = hlog.FromRequest(r).Error()
		}
		event.
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.NewHandler(s.cfg.Logger)(h)
	return h
}

func (s *Server) routes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
	})

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/signup", s.signup).Methods(http.MethodPost)
	r.HandleFunc("/login", s.login).Methods(http.MethodPost)
	if s.cfg.MediaDir != "" {
		r.PathPrefix("/media/").Handler(http.StripPrefix("/media/", noDirListing(http.FileServer(http.Dir(s.cfg.MediaDir))))).
			Methods(http.MethodGet, http.MethodHead)
	}

	r.HandleFunc("/profile", s.profile).Methods(http.MethodGet)

	r.HandleFunc("/upload", s.upload).Methods(http.MethodPost)
	r.HandleFunc("/posts", s.listFeed).Methods(http.MethodGet)
	r.HandleFunc("/posts/me", s.listOwnPosts).Methods(http.MethodGet)
	r.HandleFunc("/update/{postId}", s.updatePost).Methods(http.MethodPost)
	r.HandleFunc("/delete/{postId}", s.deletePost).Methods(http.MethodDelete)
	r.HandleFunc("/post/{postId}/like-unlike", s.toggleLike).Methods(http.MethodPost)
	r.HandleFunc("/post-count", s.postCount).Methods(http.MethodGet)

	r.HandleFunc("/comment", s.addComment).Methods(http.MethodPost)
	r.HandleFunc("/comments/{postId}", s.addCommentToPost).Methods(http.MethodPost)
	r.HandleFunc("/getcomments", s.listCommentsQuery).Methods(http.MethodGet)
	r.HandleFunc("/comments/{postId}", s.listComments).Methods(http.MethodGet)

	r.HandleFunc("/follow/{userId}", s.toggleFollow).Methods(http.MethodPost)
	r.HandleFunc("/followers-following/{userId}", s.followCounts).Methods(http.MethodGet)

	r.HandleFunc("/search", s.searchUsers).Methods(http.MethodGet)

	if s.cfg.Interceptor != nil {
		for _, path := range []string{"/health", "/signup", "/login", "/media/"} {
			s.cfg.Interceptor.AddPublicPath(path)
		}
		s.cfg.Interceptor.SetErrorWriter(writeError)
		r.Use(s.cfg.Interceptor.Middleware)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.cfg.Health))
	code := http.StatusOK
	for name, check := range s.cfg.Health {
		if err := check(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("dependency", name).Msg("health check failed")
			checks[name] = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if code != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, code, map[string]interface{}{"status": state, "checks": checks})
}

// recoverer turns a panic in a handler into a 500 response.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hlog.FromRequest(r).Error().Interface("panic", rec).Msg("recovered from panic")
				writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
