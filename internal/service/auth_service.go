package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/validation"
)

// AuthRepository is the storage surface AuthService depends on.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone *string) (*models.User, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
}

// AuthService covers signup, login and session rotation.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
}

func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{repo: repo, tokenManager: tokenManager}
}

// SignupInput carries the new account's fields.
type SignupInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// ClientMeta is optional request metadata stored with the session.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// AuthResult is the outcome of signup, login or refresh.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
	ExpiresAt time.Time
}

// Signup validates the input and creates the account. New accounts
// start in pending_kyc and cannot log in until an admin verifies them,
// so no session is opened here.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := s.validateSignup(in); err != nil {
		return nil, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(passHash),
		Role:         in.Role,
		Status:       models.UserStatusPendingKYC,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.ErrEmailTaken
		}
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).WithField("role", user.Role).Info("user signed up")

	return user, nil
}

// Login checks credentials and account status, then opens a session.
// Accounts that are suspended or still pending KYC are rejected even
// with a correct password.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta *ClientMeta) (*AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, apperror.ErrAccountInactive
	}

	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		logger.Log.WithError(err).Warn("auth service: cannot update last login")
	}

	return s.openSession(ctx, user, meta)
}

// Refresh rotates a refresh token: the presented token must verify,
// match a stored session, and belong to an account in good standing.
// The old session is revoked before the new one is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta *ClientMeta) (*AuthResult, error) {
	claims, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}

	session, err := s.repo.GetSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if session.ExpiresAt.Before(time.Now()) {
		_ = s.repo.DeleteSession(ctx, refreshToken)
		return nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID != session.UserID {
		return nil, apperror.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}
	if !user.IsActive() {
		return nil, apperror.ErrAccountInactive
	}

	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user, meta)
}

// Logout revokes the session behind the refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.DeleteSession(ctx, refreshToken)
}

// GetUser loads an account by id.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile patches the caller's mutable fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone *string) (*models.User, error) {
	if fullName != nil {
		if err := validation.ValidateFullName(*fullName); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if phone != nil {
		if err := validation.ValidatePhone(*phone); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	user, err := s.repo.UpdateProfile(ctx, userID, fullName, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) validateSignup(in SignupInput) error {
	checks := []error{
		validation.ValidateEmail(in.Email),
		validation.ValidatePassword(in.Password),
		validation.ValidateFullName(in.FullName),
		validation.ValidatePhone(in.Phone),
		validation.ValidateRole(in.Role),
	}
	for _, err := range checks {
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, meta *ClientMeta) (*AuthResult, error) {
	pair, accessExp, refreshExp, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: generate tokens: %w", err)
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    refreshExp,
	}
	if meta != nil {
		if meta.UserAgent != "" {
			session.UserAgent = &meta.UserAgent
		}
		if meta.IPAddress != "" {
			session.IPAddress = &meta.IPAddress
		}
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: pair, ExpiresAt: accessExp}, nil
}
