package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigconnect/backend/internal/models"
)

type GigRepository struct {
	db *sqlx.DB
}

func NewGigRepository(db *sqlx.DB) *GigRepository {
	return &GigRepository{db: db}
}

func (r *GigRepository) Create(ctx context.Context, gig *models.Gig) error {
	err := r.db.GetContext(ctx, gig, `
		INSERT INTO gigs (freelancer_id, title, description, price_cents, currency,
		                  delivery_days, category, tags, sample_media, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING id, freelancer_id, title, description, price_cents, currency,
		          delivery_days, category, tags, sample_media, is_active, created_at, updated_at
	`, gig.FreelancerID, gig.Title, gig.Description, gig.PriceCents, gig.Currency,
		gig.DeliveryDays, gig.Category, pq.Array([]string(gig.Tags)), pq.Array([]string(gig.SampleMedia)))
	if err != nil {
		return fmt.Errorf("gig repository: create: %w", err)
	}
	return nil
}

func (r *GigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var gig models.Gig
	err := r.db.GetContext(ctx, &gig, `
		SELECT id, freelancer_id, title, description, price_cents, currency,
		       delivery_days, category, tags, sample_media, is_active, created_at, updated_at
		FROM gigs WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGigNotFound
		}
		return nil, fmt.Errorf("gig repository: get by id: %w", err)
	}
	return &gig, nil
}

// List applies the search filters and returns newest gigs first.
func (r *GigRepository) List(ctx context.Context, filter models.GigFilter) ([]models.Gig, error) {
	var (
		conds []string
		args  []interface{}
	)

	next := func(value interface{}) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.OnlyActive {
		conds = append(conds, "is_active")
	}
	if filter.Query != "" {
		p := next(filter.Query)
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')", p, p))
	}
	if filter.Category != "" {
		conds = append(conds, "category = "+next(filter.Category))
	}
	if filter.MinPriceCents > 0 {
		conds = append(conds, "price_cents >= "+next(filter.MinPriceCents))
	}
	if filter.MaxPriceCents > 0 {
		conds = append(conds, "price_cents <= "+next(filter.MaxPriceCents))
	}
	if len(filter.Tags) > 0 {
		conds = append(conds, "tags && "+next(pq.Array(filter.Tags)))
	}
	if filter.FreelancerID != nil {
		conds = append(conds, "freelancer_id = "+next(*filter.FreelancerID))
	}

	query := `
		SELECT id, freelancer_id, title, description, price_cents, currency,
		       delivery_days, category, tags, sample_media, is_active, created_at, updated_at
		FROM gigs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	var gigs []models.Gig
	if err := r.db.SelectContext(ctx, &gigs, query, args...); err != nil {
		return nil, fmt.Errorf("gig repository: list: %w", err)
	}
	return gigs, nil
}

// Update patches the mutable fields of a gig owned by the freelancer.
func (r *GigRepository) Update(ctx context.Context, gig *models.Gig) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE gigs
		SET title = $3, description = $4, price_cents = $5, delivery_days = $6,
		    category = $7, tags = $8, sample_media = $9, is_active = $10, updated_at = NOW()
		WHERE id = $1 AND freelancer_id = $2
	`, gig.ID, gig.FreelancerID, gig.Title, gig.Description, gig.PriceCents,
		gig.DeliveryDays, gig.Category, pq.Array([]string(gig.Tags)),
		pq.Array([]string(gig.SampleMedia)), gig.IsActive)
	if err != nil {
		return fmt.Errorf("gig repository: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGigNotFound
	}
	return nil
}

// Deactivate soft-deletes a gig; existing orders keep their reference.
func (r *GigRepository) Deactivate(ctx context.Context, id, freelancerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE gigs SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND freelancer_id = $2
	`, id, freelancerID)
	if err != nil {
		return fmt.Errorf("gig repository: deactivate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGigNotFound
	}
	return nil
}
