package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses along the escrow lifecycle.
const (
	OrderStatusPendingPayment      = "pending_payment"
	OrderStatusPendingVerification = "payment_pending_verification"
	OrderStatusInEscrow            = "in_escrow"
	OrderStatusInProgress          = "in_progress"
	OrderStatusDelivered           = "delivered"
	OrderStatusRevisionRequested   = "revision_requested"
	OrderStatusCompleted           = "completed"
	OrderStatusCancelled           = "cancelled"
	OrderStatusDisputed            = "disputed"
)

// OrderStatuses is the closed set of valid order statuses.
var OrderStatuses = map[string]bool{
	OrderStatusPendingPayment:      true,
	OrderStatusPendingVerification: true,
	OrderStatusInEscrow:            true,
	OrderStatusInProgress:          true,
	OrderStatusDelivered:           true,
	OrderStatusRevisionRequested:   true,
	OrderStatusCompleted:           true,
	OrderStatusCancelled:           true,
	OrderStatusDisputed:            true,
}

// Order is a paid engagement between a client and a freelancer.
// AmountCents is immutable after creation; status moves along the
// escrow lifecycle via payment initiation, webhook delivery, or an
// operator action.
type Order struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ClientID           uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID       uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	GigID              *uuid.UUID `db:"gig_id" json:"gig_id,omitempty"`
	AmountCents        int64      `db:"amount_cents" json:"amount_cents"`
	Currency           string     `db:"currency" json:"currency"`
	Status             string     `db:"status" json:"status"`
	CustomInstructions *string    `db:"custom_instructions" json:"custom_instructions,omitempty"`
	PaymentReference   *string    `db:"payment_reference" json:"payment_reference,omitempty"`
	DeliveryDate       *time.Time `db:"delivery_date" json:"delivery_date,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
