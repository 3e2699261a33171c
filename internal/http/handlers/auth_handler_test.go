package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigconnect/backend/internal/http/middleware"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/service"
)

type stubAuthRepo struct {
	created int
}

func (s *stubAuthRepo) Create(ctx context.Context, user *models.User) error {
	s.created++
	user.ID = uuid.New()
	return nil
}

func (s *stubAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}

func (s *stubAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}

func (s *stubAuthRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (s *stubAuthRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone *string) (*models.User, error) {
	return nil, repository.ErrUserNotFound
}

func (s *stubAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	return nil
}

func (s *stubAuthRepo) GetSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	return nil, repository.ErrSessionNotFound
}

func (s *stubAuthRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	return nil
}

func signupRouter(repo *stubAuthRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	tokens := service.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	h := NewAuthHandler(service.NewAuthService(repo, tokens))

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/auth/signup", h.Signup)
	return router
}

func postSignup(t *testing.T, router *gin.Engine, payload map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

type errorEnvelope struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func TestSignup_MalformedEmailReturnsValidationEnvelope(t *testing.T) {
	repo := &stubAuthRepo{}
	router := signupRouter(repo)

	recorder := postSignup(t, router, map[string]string{
		"email":     "bad email@@x",
		"password":  "Sup3rSecret",
		"full_name": "Ada Client",
		"phone":     "+2348012345678",
		"role":      "client",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Validation failed", resp.Error)
	require.NotEmpty(t, resp.Details)
	assert.Contains(t, resp.Details[0], "email")
	assert.Zero(t, repo.created)
}

func TestSignup_WeakPasswordReturnsValidationEnvelope(t *testing.T) {
	repo := &stubAuthRepo{}
	router := signupRouter(repo)

	recorder := postSignup(t, router, map[string]string{
		"email":     "ada@example.com",
		"password":  "short",
		"full_name": "Ada Client",
		"phone":     "+2348012345678",
		"role":      "client",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Error)
	require.NotEmpty(t, resp.Details)
	assert.Contains(t, resp.Details[0], "password")
	assert.Zero(t, repo.created)
}
