package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yamdb/proj/internal/api/tasks"
	"yamdb/proj/internal/config"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/services"
	"yamdb/proj/internal/storage/memory"
	"yamdb/proj/internal/tokens"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// chanMailer hands every mailed confirmation code to the test.
type chanMailer struct {
	codes chan string
}

func (m *chanMailer) Send(_ string, _ string, data any) error {
	m.codes <- data.(map[string]any)["code"].(string)
	return nil
}

func (m *chanMailer) code(t *testing.T) string {
	t.Helper()
	select {
	case code := <-m.codes:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("confirmation code was not mailed")
		return ""
	}
}

type testApp struct {
	*Application
	store   *memory.Storage
	mailer  *chanMailer
	handler http.Handler
}

func memoryStorage(m *memory.Storage) services.Storage {
	return services.Storage{
		Users:      m.Users,
		Categories: m.Categories,
		Genres:     m.Genres,
		Titles:     m.Titles,
		Reviews:    m.Reviews,
		Comments:   m.Comments,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		AppSecret: "test-secret",
		Tokens:    config.Tokens{AccessTTL: time.Hour, HashCost: bcrypt.MinCost},
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	log := logger.Discard()
	store := memory.New()
	mailer := &chanMailer{codes: make(chan string, 10)}
	bgTasks := tasks.New(log, 1, 10)
	bgTasks.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		bgTasks.Shutdown(ctx)
	})
	app := NewApplication(cfg, log, memoryStorage(store), mailer, bgTasks)
	return &testApp{Application: app, store: store, mailer: mailer, handler: app.routes()}
}

// user stores a user with the given role and returns a bearer token for it.
func (a *testApp) user(t *testing.T, username string, role models.Role) string {
	t.Helper()
	u, err := a.store.Users.Insert(context.Background(), &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
	})
	require.NoError(t, err)
	token, err := tokens.New(a.cfg.AppSecret, time.Hour).Issue(u)
	require.NoError(t, err)
	return token
}

type testResponse struct {
	Code int
	Body Response
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) testResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	res := testResponse{Code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.Body), rec.Body.String())
	}
	return res
}

// item returns data[key] of the response as a JSON object.
func (r testResponse) item(t *testing.T, key string) map[string]any {
	t.Helper()
	v, ok := r.Body.Data[key].(map[string]any)
	require.True(t, ok, "response has no object %q: %+v", key, r.Body)
	return v
}

func (r testResponse) list(t *testing.T, key string) []any {
	t.Helper()
	v, ok := r.Body.Data[key].([]any)
	require.True(t, ok, "response has no list %q: %+v", key, r.Body)
	return v
}
