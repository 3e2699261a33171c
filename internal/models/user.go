package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
	RoleModerator  = "moderator"
)

// User account statuses.
const (
	UserStatusActive     = "active"
	UserStatusSuspended  = "suspended"
	UserStatusPendingKYC = "pending_kyc"
	UserStatusVerified   = "verified"
)

// KYC record statuses.
const (
	KYCStatusPending  = "pending"
	KYCStatusVerified = "verified"
	KYCStatusRejected = "rejected"
)

// User is a platform account.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	Phone        string     `db:"phone" json:"phone"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Status       string     `db:"status" json:"status"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the account may log in. Suspended and
// pending-KYC users are locked out of authenticated routes.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive || u.Status == UserStatusVerified
}

// Freelancer is the role-specific profile of a freelancer user.
type Freelancer struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	Tagline         *string   `db:"tagline" json:"tagline,omitempty"`
	Skills          []string  `db:"-" json:"skills"`
	RatingAvg       float64   `db:"rating_avg" json:"rating_avg"`
	TotalOrders     int       `db:"total_orders" json:"total_orders"`
	CompletedOrders int       `db:"completed_orders" json:"completed_orders"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Client is the role-specific profile of a client user.
type Client struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	TotalSpent  int64     `db:"total_spent" json:"total_spent"`
	TotalOrders int       `db:"total_orders" json:"total_orders"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// KYCRecord tracks identity verification of a user.
type KYCRecord struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	UserID            uuid.UUID  `db:"user_id" json:"user_id"`
	Status            string     `db:"status" json:"status"`
	VerifiedByAdminID *uuid.UUID `db:"verified_by_admin_id" json:"verified_by_admin_id,omitempty"`
	VerifiedAt        *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Session is a stored refresh-token session.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
