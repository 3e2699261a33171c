package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
)

type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	sessions     map[string]*models.Session
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
		sessions:     make(map[string]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if user, ok := m.usersByID[userID]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (m *mockAuthRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone *string) (*models.User, error) {
	user, ok := m.usersByID[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if fullName != nil {
		user.FullName = *fullName
	}
	if phone != nil {
		user.Phone = *phone
	}
	return user, nil
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *mockAuthRepository) GetSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	if session, ok := m.sessions[refreshToken]; ok {
		return session, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	delete(m.sessions, refreshToken)
	return nil
}

func seedActiveUser(repo *mockAuthRepository, email, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "Ada Obi",
		Phone:        "+2348012345678",
		PasswordHash: string(hash),
		Role:         models.RoleClient,
		Status:       models.UserStatusVerified,
	}
	repo.usersByEmail[user.Email] = user
	repo.usersByID[user.ID] = user
	return user
}

func TestAuthService_Signup(t *testing.T) {
	repo := newMockAuthRepository()
	svc := NewAuthService(repo, NewTokenManager("access", "refresh", time.Minute, time.Hour))
	ctx := context.Background()

	in := SignupInput{
		Email:    "ada@example.com",
		Password: "Sup3rSecret",
		FullName: "Ada Obi",
		Phone:    "+2348012345678",
		Role:     models.RoleFreelancer,
	}

	user, err := svc.Signup(ctx, in)
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatal("user ID should be set")
	}
	if user.Status != models.UserStatusPendingKYC {
		t.Fatalf("new accounts should start in pending_kyc, got %s", user.Status)
	}
	if len(repo.sessions) != 0 {
		t.Fatal("signup must not open a session")
	}

	// A second signup with the same email conflicts.
	if _, err := svc.Signup(ctx, in); err != apperror.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_SignupValidation(t *testing.T) {
	svc := NewAuthService(newMockAuthRepository(), NewTokenManager("a", "r", time.Minute, time.Hour))

	bad := []SignupInput{
		{Email: "not-an-email", Password: "Sup3rSecret", FullName: "Ada Obi", Phone: "+2348012345678", Role: "client"},
		{Email: "ok@example.com", Password: "short", FullName: "Ada Obi", Phone: "+2348012345678", Role: "client"},
		{Email: "ok@example.com", Password: "nouppercase1", FullName: "Ada Obi", Phone: "+2348012345678", Role: "client"},
		{Email: "ok@example.com", Password: "Sup3rSecret", FullName: "A", Phone: "+2348012345678", Role: "client"},
		{Email: "ok@example.com", Password: "Sup3rSecret", FullName: "Ada Obi", Phone: "0801", Role: "client"},
		{Email: "ok@example.com", Password: "Sup3rSecret", FullName: "Ada Obi", Phone: "+2348012345678", Role: "superuser"},
	}

	for _, in := range bad {
		if _, err := svc.Signup(context.Background(), in); !apperror.IsValidation(err) {
			t.Fatalf("input %+v: expected validation error, got %v", in, err)
		}
	}
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockAuthRepository()
	svc := NewAuthService(repo, NewTokenManager("access", "refresh", time.Minute, time.Hour))
	ctx := context.Background()

	user := seedActiveUser(repo, "ada@example.com", "Sup3rSecret")

	res, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "Sup3rSecret"}, nil)
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if res.TokenPair.AccessToken == "" || res.TokenPair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(repo.sessions))
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"}, nil); err != apperror.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"}, nil); err != apperror.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	user.Status = models.UserStatusPendingKYC
	if _, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "Sup3rSecret"}, nil); err != apperror.ErrAccountInactive {
		t.Fatalf("expected ErrAccountInactive for pending_kyc account, got %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	repo := newMockAuthRepository()
	svc := NewAuthService(repo, NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour))
	ctx := context.Background()

	seedActiveUser(repo, "ada@example.com", "Sup3rSecret")
	res, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "Sup3rSecret"}, nil)
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	newRes, err := svc.Refresh(ctx, res.TokenPair.RefreshToken, nil)
	if err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if newRes.TokenPair.RefreshToken == res.TokenPair.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	// The old token is revoked, a second refresh with it must fail.
	if _, err := svc.Refresh(ctx, res.TokenPair.RefreshToken, nil); err != apperror.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for reused token, got %v", err)
	}
}
