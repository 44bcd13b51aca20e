package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/olehkozhan/contactbook/internal/api"
	"github.com/olehkozhan/contactbook/internal/app"
	iauth "github.com/olehkozhan/contactbook/internal/auth"
	"github.com/olehkozhan/contactbook/internal/avatar"
	"github.com/olehkozhan/contactbook/internal/models"
	"github.com/olehkozhan/contactbook/internal/services"
	"github.com/olehkozhan/contactbook/internal/tasks"
	"github.com/olehkozhan/contactbook/pkg/mail"
	"github.com/olehkozhan/contactbook/pkg/response"
)

// CaptureMailer records outgoing messages instead of delivering them.
type CaptureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *CaptureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Sent returns a copy of all captured messages.
func (m *CaptureMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Env encapsulates a fully-wired API instance backed by a throwaway database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	Auth   *services.AuthService
	Mailer *CaptureMailer
	Runner *tasks.Runner

	mu  sync.Mutex
	now time.Time
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "handler-test.sqlite")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Contact{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	env := &Env{
		T:      t,
		DB:     db,
		Mailer: &CaptureMailer{},
		Runner: tasks.NewRunner(),
		now:    time.Now(),
	}

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret: "handler-test-suite-secret",
		Issuer: "contactbook-test",
		Clock:  env.Now,
	})
	require.NoError(t, err)

	cfg := &app.Config{
		Server: app.ServerConfig{BaseURL: "http://localhost:3000"},
		Avatars: app.AvatarConfig{
			Dir:     t.TempDir(),
			TempDir: t.TempDir(),
			Size:    250,
			Quality: 60,
		},
	}

	avatarStore, err := avatar.NewStore(avatar.StoreConfig{
		Dir:     cfg.Avatars.Dir,
		Size:    cfg.Avatars.Size,
		Quality: cfg.Avatars.Quality,
	}, env.Runner)
	require.NoError(t, err)

	authSvc, err := services.NewAuthService(db, jwtSvc, env.Mailer, avatarStore, env.Runner,
		services.WithVerificationBaseURL(cfg.Server.BaseURL))
	require.NoError(t, err)

	contactSvc, err := services.NewContactService(db)
	require.NoError(t, err)

	router, err := api.NewRouter(db, authSvc, contactSvc, cfg)
	require.NoError(t, err)

	env.Auth = authSvc
	env.Router = router
	return env
}

// Now returns the environment clock used for token issuance and validation.
func (e *Env) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// AdvanceClock moves the environment clock forward.
func (e *Env) AdvanceClock(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// Register creates an account via the public endpoint and returns its database record.
func (e *Env) Register(email, password string) *models.User {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/users/register", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(e.T, e.DB.Take(&user, "email = ?", email).Error)
	return &user
}

// RegisterVerified creates an account and walks the verification link.
func (e *Env) RegisterVerified(email, password string) *models.User {
	e.T.Helper()

	user := e.Register(email, password)
	require.NotNil(e.T, user.VerificationToken)

	w := e.Request(http.MethodGet, "/api/users/verify/"+*user.VerificationToken, nil, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	require.NoError(e.T, e.DB.Take(user, "id = ?", user.ID).Error)
	return user
}

// LoginResult bundles the JSON response from POST /api/users/login.
type LoginResult struct {
	Token string      `json:"token"`
	User  UserPayload `json:"user"`
}

// UserPayload captures the user fields returned from auth endpoints.
type UserPayload struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

// Login authenticates via the public endpoint and returns the issued session token.
func (e *Env) Login(email, password string) LoginResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.Token)
	require.Equal(e.T, result.User.Email, email)

	return result
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
