package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gigconnect/backend/internal/models"
)

const orderColumns = `id, client_id, freelancer_id, gig_id, amount_cents, currency, status,
	custom_instructions, payment_reference, delivery_date, completed_at, created_at, updated_at`

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.GetContext(ctx, order, `
		INSERT INTO orders (client_id, freelancer_id, gig_id, amount_cents, currency,
		                    status, custom_instructions, delivery_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+orderColumns+`
	`, order.ClientID, order.FreelancerID, order.GigID, order.AmountCents, order.Currency,
		order.Status, order.CustomInstructions, order.DeliveryDate)
	if err != nil {
		return fmt.Errorf("order repository: create: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: get by id: %w", err)
	}
	return &order, nil
}

// GetByReference resolves an order by its gateway payment reference.
// Webhook handlers use this as the lookup key.
func (r *OrderRepository) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `
		SELECT `+orderColumns+` FROM orders WHERE payment_reference = $1
	`, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: get by reference: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) ListForClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return r.list(ctx, "client_id", clientID, limit, offset)
}

func (r *OrderRepository) ListForFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return r.list(ctx, "freelancer_id", freelancerID, limit, offset)
}

func (r *OrderRepository) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	orders := []models.Order{}
	err := r.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+` FROM orders
		WHERE `+column+` = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("order repository: list by %s: %w", column, err)
	}
	return orders, nil
}

// UpdateStatus moves the order to a new status without touching any
// other column. completed_at is stamped only when the order completes.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
		    updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("order repository: update status: %w", err)
	}
	return requireRow(res, ErrOrderNotFound)
}

// MarkPaymentInitiated attaches the generated gateway reference to an
// unpaid order and moves it to payment_pending_verification. The
// partial unique index on payment_reference guards against two orders
// sharing one reference.
func (r *OrderRepository) MarkPaymentInitiated(ctx context.Context, id uuid.UUID, reference string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_reference = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, id, reference, models.OrderStatusPendingVerification, models.OrderStatusPendingPayment)
	if err != nil {
		return fmt.Errorf("order repository: mark payment initiated: %w", err)
	}
	return requireRow(res, ErrOrderNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
