package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rescue-coordination/internal/model"
	"rescue-coordination/internal/tracing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func actorEcho(t *testing.T, want model.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := ActorFromContext(r.Context())
		if !ok {
			t.Fatalf("actor missing from context")
		}
		if got != want {
			t.Fatalf("expected actor %+v, got %+v", want, got)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddlewareAcceptsIssuedToken(t *testing.T) {
	auth := NewAuthenticator("secret")
	actor := model.Actor{ID: 5, Role: model.RoleVolunteer}
	token, err := auth.Issue(actor, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	auth.Middleware(actorEcho(t, actor)).ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	auth := NewAuthenticator("secret")
	other := NewAuthenticator("other-secret")

	expired, _ := auth.Issue(model.Actor{ID: 1, Role: model.RoleAdmin}, -time.Minute)
	foreign, _ := other.Issue(model.Actor{ID: 1, Role: model.RoleAdmin}, time.Hour)
	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{UserID: 1, Role: "guest"}).SignedString([]byte("secret"))

	cases := map[string]string{
		"missing header":  "",
		"no bearer":       "Token abc",
		"garbage":         "Bearer abc",
		"expired":         "Bearer " + expired,
		"wrong signature": "Bearer " + foreign,
		"unknown role":    "Bearer " + badRole,
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not be reached")
	})

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()

			auth.Middleware(next).ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(model.RoleAdmin, model.RoleVolunteer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		actor  *model.Actor
		status int
	}{
		{"no actor", nil, http.StatusUnauthorized},
		{"reporter", &model.Actor{ID: 1, Role: model.RoleReporter}, http.StatusForbidden},
		{"volunteer", &model.Actor{ID: 2, Role: model.RoleVolunteer}, http.StatusOK},
		{"admin", &model.Actor{ID: 3, Role: model.RoleAdmin}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
			if tc.actor != nil {
				req = req.WithContext(WithActor(req.Context(), *tc.actor))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestTraceKeepsIncomingID(t *testing.T) {
	var seen string
	h := Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = tracing.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "abc-123" || w.Header().Get(TraceHeader) != "abc-123" {
		t.Fatalf("trace id not propagated: ctx=%q header=%q", seen, w.Header().Get(TraceHeader))
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc-123" || w.Header().Get(TraceHeader) != seen {
		t.Fatalf("expected generated trace id, got %q", seen)
	}
}

func TestLoggerAndMetricsPassThrough(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := Metrics(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/42", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", w.Code)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath("/api/v1/reports/42/status"); got != "/api/v1/reports/:id/status" {
		t.Fatalf("unexpected normalized path %q", got)
	}
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterMetrics(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterMetrics(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
