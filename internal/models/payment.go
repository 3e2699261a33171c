package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transaction types.
const (
	TransactionTypeEscrowCredit = "escrow_credit"
	TransactionTypeEscrowDebit  = "escrow_debit"
	TransactionTypeAdminPayout  = "admin_payout"
	TransactionTypeRefund       = "refund"
	TransactionTypeWithdrawal   = "withdrawal"
)

// Transaction statuses.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// Metadata is a free-form JSONB blob attached to a transaction.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, m)
}

// Transaction is a financial ledger entry. Rows are written once and
// afterwards only the status/metadata pair is patched (transfer events).
// (paystack_reference, type) is unique, which makes webhook processing
// replay-safe.
type Transaction struct {
	ID                uuid.UUID `db:"id" json:"id"`
	OrderID           uuid.UUID `db:"order_id" json:"order_id"`
	Type              string    `db:"type" json:"type"`
	AmountCents       int64     `db:"amount_cents" json:"amount_cents"`
	Status            string    `db:"status" json:"status"`
	PaystackReference *string   `db:"paystack_reference" json:"paystack_reference,omitempty"`
	Metadata          Metadata  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Wallet holds a user's balance. ReservedCents is money held in escrow
// for the freelancer but not yet released for withdrawal.
type Wallet struct {
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	BalanceCents  int64     `db:"balance_cents" json:"balance_cents"`
	ReservedCents int64     `db:"reserved_cents" json:"reserved_cents"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
