// Package dto holds the typed request and response bodies of the HTTP
// API. Handlers bind into these and never into loose maps.
package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/models"
)

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps a payload for endpoints without a dedicated
// response type.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// --- auth ---

type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	Success      bool       `json:"success"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         PublicUser `json:"user"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// PublicUser is a user stripped of credentials.
type PublicUser struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewPublicUser(u *models.User) PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Phone:       u.Phone,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

// --- gigs ---

type CreateGigRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	PriceCents   int64    `json:"price_cents" binding:"required"`
	Currency     string   `json:"currency"`
	DeliveryDays int      `json:"delivery_days"`
	Category     string   `json:"category" binding:"required"`
	Tags         []string `json:"tags"`
	SampleMedia  []string `json:"sample_media"`
}

type UpdateGigRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	PriceCents   *int64   `json:"price_cents"`
	DeliveryDays *int     `json:"delivery_days"`
	Category     *string  `json:"category"`
	Tags         []string `json:"tags"`
	SampleMedia  []string `json:"sample_media"`
}

// --- orders ---

type CreateOrderRequest struct {
	GigID              *uuid.UUID `json:"gig_id"`
	FreelancerID       *uuid.UUID `json:"freelancer_id"`
	AmountCents        int64      `json:"amount_cents"`
	CustomInstructions *string    `json:"custom_instructions"`
	DeliveryDate       *time.Time `json:"delivery_date"`
}

type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- payments ---

type InitiatePaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

type InitiatePaymentResponse struct {
	Success       bool          `json:"success"`
	Reference     string        `json:"reference"`
	AmountCents   int64         `json:"amount_cents"`
	Currency      string        `json:"currency"`
	AccountNumber string        `json:"account_number"`
	AccountName   string        `json:"account_name"`
	BankName      string        `json:"bank_name"`
	Order         *models.Order `json:"order"`
}

type PaymentStatusResponse struct {
	Success      bool                 `json:"success"`
	OrderStatus  string               `json:"order_status"`
	Reference    *string              `json:"reference,omitempty"`
	Transactions []models.Transaction `json:"transactions"`
}

// --- chat ---

type CreateRoomRequest struct {
	ParticipantID string  `json:"participant_id" binding:"required"`
	OrderID       *string `json:"order_id"`
}

type SendMessageRequest struct {
	Type        string   `json:"type"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
	OrderID     *string  `json:"order_id"`
}

// --- projects ---

type CreateProjectRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	Category     string   `json:"category" binding:"required"`
	Budget       float64  `json:"budget" binding:"required"`
	DeliveryTime string   `json:"delivery_time"`
	Skills       []string `json:"skills"`
	Attachments  []string `json:"attachments"`
}

type UpdateProjectRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Budget       *float64 `json:"budget"`
	DeliveryTime *string  `json:"delivery_time"`
	Skills       []string `json:"skills"`
	Status       *string  `json:"status"`
}

// --- admin ---

type VerifyKYCRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type ReleaseEscrowRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
