package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Gig is a fixed-price service offered by a freelancer.
type Gig struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	FreelancerID uuid.UUID      `db:"freelancer_id" json:"freelancer_id"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description"`
	PriceCents   int64          `db:"price_cents" json:"price_cents"`
	Currency     string         `db:"currency" json:"currency"`
	DeliveryDays int            `db:"delivery_days" json:"delivery_days"`
	Category     string         `db:"category" json:"category"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	SampleMedia  pq.StringArray `db:"sample_media" json:"sample_media"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// GigFilter narrows down gig listings.
type GigFilter struct {
	Query         string
	Category      string
	MinPriceCents int64
	MaxPriceCents int64
	Tags          []string
	FreelancerID  *uuid.UUID
	OnlyActive    bool
	Limit         int
	Offset        int
}
