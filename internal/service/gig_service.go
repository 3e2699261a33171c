package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/validation"
)

type GigRepositoryIface interface {
	Create(ctx context.Context, gig *models.Gig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	List(ctx context.Context, filter models.GigFilter) ([]models.Gig, error)
	Update(ctx context.Context, gig *models.Gig) error
	Deactivate(ctx context.Context, id, freelancerID uuid.UUID) error
}

// ProfileResolver maps user accounts to their role profiles.
type ProfileResolver interface {
	GetFreelancerByUserID(ctx context.Context, userID uuid.UUID) (*models.Freelancer, error)
	GetClientByUserID(ctx context.Context, userID uuid.UUID) (*models.Client, error)
}

type GigService struct {
	gigs     GigRepositoryIface
	profiles ProfileResolver
}

func NewGigService(gigs GigRepositoryIface, profiles ProfileResolver) *GigService {
	return &GigService{gigs: gigs, profiles: profiles}
}

// Create publishes a new gig owned by the calling freelancer.
func (s *GigService) Create(ctx context.Context, userID uuid.UUID, in dto.CreateGigRequest) (*models.Gig, error) {
	if err := validation.ValidateLength("title", in.Title, validation.MinGigTitleLength, validation.MaxGigTitleLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("description", in.Description, validation.MinGigDescriptionLength, validation.MaxGigDescriptionLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.PriceCents <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "price_cents must be positive")
	}

	freelancer, err := s.profiles.GetFreelancerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, apperror.New(apperror.ErrCodeForbidden, "only freelancers can publish gigs")
		}
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = "NGN"
	}

	gig := &models.Gig{
		FreelancerID: freelancer.ID,
		Title:        in.Title,
		Description:  in.Description,
		PriceCents:   in.PriceCents,
		Currency:     currency,
		DeliveryDays: in.DeliveryDays,
		Category:     in.Category,
		Tags:         in.Tags,
		SampleMedia:  in.SampleMedia,
		IsActive:     true,
	}
	if err := s.gigs.Create(ctx, gig); err != nil {
		return nil, err
	}
	return gig, nil
}

func (s *GigService) Get(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	gig, err := s.gigs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGigNotFound) {
			return nil, apperror.ErrGigNotFound
		}
		return nil, err
	}
	return gig, nil
}

func (s *GigService) List(ctx context.Context, filter models.GigFilter) ([]models.Gig, error) {
	return s.gigs.List(ctx, filter)
}

// Update patches the caller's gig. Ownership is enforced by the
// repository's WHERE clause, so a foreign gig reads as not found.
func (s *GigService) Update(ctx context.Context, userID, gigID uuid.UUID, in dto.UpdateGigRequest) (*models.Gig, error) {
	freelancer, err := s.profiles.GetFreelancerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, apperror.ErrGigNotFound
		}
		return nil, err
	}

	gig, err := s.gigs.GetByID(ctx, gigID)
	if err != nil {
		if errors.Is(err, repository.ErrGigNotFound) {
			return nil, apperror.ErrGigNotFound
		}
		return nil, err
	}
	if gig.FreelancerID != freelancer.ID {
		return nil, apperror.ErrGigNotFound
	}

	if in.Title != nil {
		if err := validation.ValidateLength("title", *in.Title, validation.MinGigTitleLength, validation.MaxGigTitleLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		gig.Title = *in.Title
	}
	if in.Description != nil {
		if err := validation.ValidateLength("description", *in.Description, validation.MinGigDescriptionLength, validation.MaxGigDescriptionLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		gig.Description = *in.Description
	}
	if in.PriceCents != nil {
		if *in.PriceCents <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "price_cents must be positive")
		}
		gig.PriceCents = *in.PriceCents
	}
	if in.DeliveryDays != nil {
		gig.DeliveryDays = *in.DeliveryDays
	}
	if in.Category != nil {
		gig.Category = *in.Category
	}
	if in.Tags != nil {
		gig.Tags = in.Tags
	}
	if in.SampleMedia != nil {
		gig.SampleMedia = in.SampleMedia
	}

	if err := s.gigs.Update(ctx, gig); err != nil {
		if errors.Is(err, repository.ErrGigNotFound) {
			return nil, apperror.ErrGigNotFound
		}
		return nil, err
	}
	return gig, nil
}

// Deactivate soft-deletes the caller's gig.
func (s *GigService) Deactivate(ctx context.Context, userID, gigID uuid.UUID) error {
	freelancer, err := s.profiles.GetFreelancerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return apperror.ErrGigNotFound
		}
		return err
	}
	if err := s.gigs.Deactivate(ctx, gigID, freelancer.ID); err != nil {
		if errors.Is(err, repository.ErrGigNotFound) {
			return apperror.ErrGigNotFound
		}
		return err
	}
	return nil
}
