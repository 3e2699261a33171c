package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/validation"
)

type OrderRepositoryIface interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListForFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type OrderService struct {
	orders   OrderRepositoryIface
	gigs     GigRepositoryIface
	profiles ProfileResolver
}

func NewOrderService(orders OrderRepositoryIface, gigs GigRepositoryIface, profiles ProfileResolver) *OrderService {
	return &OrderService{orders: orders, gigs: gigs, profiles: profiles}
}

// Create places an order by the calling client. When a gig is given,
// the price and freelancer come from the gig; otherwise the caller
// names the freelancer and amount directly.
func (s *OrderService) Create(ctx context.Context, clientUserID uuid.UUID, in dto.CreateOrderRequest) (*models.Order, error) {
	client, err := s.profiles.GetClientByUserID(ctx, clientUserID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, apperror.New(apperror.ErrCodeForbidden, "only clients can place orders")
		}
		return nil, err
	}

	order := &models.Order{
		ClientID:           client.ID,
		Currency:           "NGN",
		Status:             models.OrderStatusPendingPayment,
		CustomInstructions: in.CustomInstructions,
		DeliveryDate:       in.DeliveryDate,
	}

	switch {
	case in.GigID != nil:
		gig, err := s.gigs.GetByID(ctx, *in.GigID)
		if err != nil {
			if errors.Is(err, repository.ErrGigNotFound) {
				return nil, apperror.ErrGigNotFound
			}
			return nil, err
		}
		if !gig.IsActive {
			return nil, apperror.New(apperror.ErrCodeValidation, "gig is no longer available")
		}
		order.GigID = &gig.ID
		order.FreelancerID = gig.FreelancerID
		order.AmountCents = gig.PriceCents
		order.Currency = gig.Currency

	case in.FreelancerID != nil:
		freelancer, err := s.profiles.GetFreelancerByUserID(ctx, *in.FreelancerID)
		if err != nil {
			if errors.Is(err, repository.ErrProfileNotFound) {
				return nil, apperror.New(apperror.ErrCodeValidation, "freelancer profile not found")
			}
			return nil, err
		}
		order.FreelancerID = freelancer.ID
		order.AmountCents = in.AmountCents

	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "either gig_id or freelancer_id is required")
	}

	if order.AmountCents < validation.MinOrderAmountCents {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("amount_cents must be at least %d", validation.MinOrderAmountCents))
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	logger.Log.WithField("order_id", order.ID).
		WithField("amount_cents", order.AmountCents).
		Info("order created")

	return order, nil
}

// Get returns the order if the caller participates in it. Admins and
// moderators see every order.
func (s *OrderService) Get(ctx context.Context, callerID uuid.UUID, callerRole string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}

	if callerRole == models.RoleAdmin || callerRole == models.RoleModerator {
		return order, nil
	}
	ok, err := s.isParticipant(ctx, callerID, order)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return order, nil
}

// List returns the caller's orders on both sides of the marketplace,
// newest first.
func (s *OrderService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var out []models.Order

	if client, err := s.profiles.GetClientByUserID(ctx, userID); err == nil {
		orders, err := s.orders.ListForClient(ctx, client.ID, limit, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, orders...)
	} else if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}

	if freelancer, err := s.profiles.GetFreelancerByUserID(ctx, userID); err == nil {
		orders, err := s.orders.ListForFreelancer(ctx, freelancer.ID, limit, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, orders...)
	} else if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, err
	}

	if out == nil {
		out = []models.Order{}
	}
	return out, nil
}

// UpdateStatus moves an order to any valid status, by a participant.
// The caller's intent is trusted; money only moves through the payment
// flow, never through this call.
func (s *OrderService) UpdateStatus(ctx context.Context, callerID uuid.UUID, callerRole string, orderID uuid.UUID, status string) (*models.Order, error) {
	if !models.OrderStatuses[status] {
		return nil, apperror.New(apperror.ErrCodeValidation, "invalid order status")
	}

	order, err := s.Get(ctx, callerID, callerRole, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, status); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	order.Status = status
	return order, nil
}

func (s *OrderService) isParticipant(ctx context.Context, userID uuid.UUID, order *models.Order) (bool, error) {
	if client, err := s.profiles.GetClientByUserID(ctx, userID); err == nil {
		if client.ID == order.ClientID {
			return true, nil
		}
	} else if !errors.Is(err, repository.ErrProfileNotFound) {
		return false, err
	}

	if freelancer, err := s.profiles.GetFreelancerByUserID(ctx, userID); err == nil {
		if freelancer.ID == order.FreelancerID {
			return true, nil
		}
	} else if !errors.Is(err, repository.ErrProfileNotFound) {
		return false, err
	}

	return false, nil
}
