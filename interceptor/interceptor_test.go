package interceptor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"buzznest/pkg/jwt"
)

func newRouter(t *testing.T, manager *jwt.Manager) *mux.Router {
	t.Helper()

	router := mux.NewRouter()
	router.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
			return
		}
		_, _ = w.Write([]byte(claims.Username))
	})

	router.Use(NewAuthInterceptor(manager, []string{"/login"}).Middleware)
	return router
}

func TestMiddleware_PublicPath(t *testing.T) {
	router := newRouter(t, jwt.NewManager("secret", time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("expected public route to pass, got %d", w.Code)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour)
	router := newRouter(t, manager)

	token, err := manager.Generate(uuid.New(), "alice@x.com", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "alice" {
		t.Errorf("expected 200 alice, got %d %q", w.Code, w.Body.String())
	}
}

func TestMiddleware_Rejections(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour)
	router := newRouter(t, manager)

	expired, _ := jwt.NewManager("secret", -time.Minute).Generate(uuid.New(), "a@x.com", "a")
	foreign, _ := jwt.NewManager("other", time.Hour).Generate(uuid.New(), "a@x.com", "a")

	cases := map[string]string{
		"missing header":    "",
		"wrong scheme":      "Basic abc",
		"no token":          "Bearer ",
		"garbage token":     "Bearer not-a-jwt",
		"expired token":     "Bearer " + expired,
		"foreign signature": "Bearer " + foreign,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["message"] == "" {
				t.Errorf("expected JSON message body, got %q (%v)", w.Body.String(), err)
			}
		})
	}
}
