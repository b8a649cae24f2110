package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecoverer(t *testing.T) {
	app := newTestApplication(t, nil)
	for name, value := range map[string]any{"error": assert.AnError, "string": "boom"} {
		t.Run(name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(value)
			})
			app.Recoverer(next).ServeHTTP(recorder, request)
			assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.Limiter.Enabled = true
	cfg.Limiter.Rps = 1
	cfg.Limiter.Burst = 2
	app := newTestApplication(t, cfg)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := app.RateLimiter(next)
	codes := make([]int, 0, 3)
	for range 3 {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		handler.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.2:4000"
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAuthenticate(t *testing.T) {
	app := newTestApplication(t, nil)
	token := app.user(t, "alice", models.RoleUser)
	var actor *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = contextGetUser(r)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("anonymous", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		app.Authenticate(next).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, actor.IsAnonymous())
	})
	t.Run("authenticated", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Bearer "+token)
		app.Authenticate(next).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "alice", actor.Username)
	})
	t.Run("wrong scheme", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")
		app.Authenticate(next).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "Bearer", recorder.Header().Get("WWW-Authenticate"))
	})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	app := newTestApplication(t, nil)
	router := chi.NewRouter()
	router.Use(app.Metrics)
	router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418")
	before := testutil.ToFloat64(counter)
	for _, path := range []string{"/items/1", "/items/2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
