package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigconnect/backend/internal/models"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user together with its role profile, wallet and
// KYC record in one transaction, so signup never leaves a half-built
// account behind.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, user, `
		INSERT INTO users (email, full_name, phone, password_hash, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, email, full_name, phone, password_hash, role, status,
		          last_login_at, created_at, updated_at
	`, strings.ToLower(user.Email), user.FullName, user.Phone, user.PasswordHash, user.Role, user.Status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("user repository: create user: %w", err)
	}

	switch user.Role {
	case models.RoleFreelancer:
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO freelancers (user_id, skills) VALUES ($1, '{}')
		`, user.ID); err != nil {
			return fmt.Errorf("user repository: create freelancer profile: %w", err)
		}
	case models.RoleClient:
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO clients (user_id) VALUES ($1)
		`, user.ID); err != nil {
			return fmt.Errorf("user repository: create client profile: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance_cents, reserved_cents) VALUES ($1, 0, 0)
	`, user.ID); err != nil {
		return fmt.Errorf("user repository: create wallet: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO kyc_records (user_id, status) VALUES ($1, 'pending')
	`, user.ID); err != nil {
		return fmt.Errorf("user repository: create kyc record: %w", err)
	}

	return tx.Commit()
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, email, full_name, phone, password_hash, role, status,
		       last_login_at, created_at, updated_at
		FROM users WHERE email = $1
	`, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, email, full_name, phone, password_hash, role, status,
		       last_login_at, created_at, updated_at
		FROM users WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id: %w", err)
	}
	return &user, nil
}

// List returns the newest accounts first, for the admin view.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT id, email, full_name, phone, password_hash, role, status,
		       last_login_at, created_at, updated_at
		FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("user repository: list: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1
	`, userID)
	return err
}

// UpdateProfile patches the mutable user fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, phone *string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
		    phone = COALESCE($3, phone),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, full_name, phone, password_hash, role, status,
		          last_login_at, created_at, updated_at
	`, userID, fullName, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: update profile: %w", err)
	}
	return &user, nil
}

// VerifyKYC marks the user's KYC record verified and flips the account
// status, both in one transaction.
func (r *UserRepository) VerifyKYC(ctx context.Context, userID, adminID uuid.UUID) (*models.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE kyc_records
		SET status = 'verified', verified_by_admin_id = $2, verified_at = NOW(), updated_at = NOW()
		WHERE user_id = $1
	`, userID, adminID)
	if err != nil {
		return nil, fmt.Errorf("user repository: verify kyc: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	err = tx.GetContext(ctx, &user, `
		UPDATE users SET status = 'verified', updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, full_name, phone, password_hash, role, status,
		          last_login_at, created_at, updated_at
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: update user status: %w", err)
	}

	return &user, tx.Commit()
}

// UpdateStatus sets the account status and returns the updated user.
func (r *UserRepository) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, full_name, phone, password_hash, role, status,
		          last_login_at, created_at, updated_at
	`, userID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: update status: %w", err)
	}
	return &user, nil
}

// GetClientByUserID resolves the client profile row of a user account.
func (r *UserRepository) GetClientByUserID(ctx context.Context, userID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.GetContext(ctx, &client, `
		SELECT id, user_id, total_spent, total_orders, created_at, updated_at
		FROM clients WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("user repository: get client profile: %w", err)
	}
	return &client, nil
}

// GetFreelancerByUserID resolves the freelancer profile row of a user account.
func (r *UserRepository) GetFreelancerByUserID(ctx context.Context, userID uuid.UUID) (*models.Freelancer, error) {
	var freelancer models.Freelancer
	err := r.db.GetContext(ctx, &freelancer, `
		SELECT id, user_id, tagline, rating_avg, total_orders, completed_orders, created_at, updated_at
		FROM freelancers WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("user repository: get freelancer profile: %w", err)
	}
	return &freelancer, nil
}

// Session management.

func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	err := r.db.GetContext(ctx, session, `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
	`, session.UserID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("user repository: create session: %w", err)
	}
	return nil
}

func (r *UserRepository) GetSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT id, user_id, refresh_token, user_agent, ip_address, expires_at, created_at
		FROM sessions WHERE refresh_token = $1
	`, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("user repository: get session: %w", err)
	}
	return &session, nil
}

func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry; the cleanup
// worker calls this on its weekly schedule.
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("user repository: delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
