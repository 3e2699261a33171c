package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/validation"
)

type ProjectRepositoryIface interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	List(ctx context.Context, status, clientUserID string, limit, offset int64) ([]models.Project, error)
	Update(ctx context.Context, id primitive.ObjectID, clientUserID string, patch bson.M) error
}

type ProjectService struct {
	projects ProjectRepositoryIface
}

func NewProjectService(projects ProjectRepositoryIface) *ProjectService {
	return &ProjectService{projects: projects}
}

// Create posts a new job brief owned by the calling client.
func (s *ProjectService) Create(ctx context.Context, clientUserID string, in dto.CreateProjectRequest) (*models.Project, error) {
	if err := validation.ValidateLength("title", in.Title, validation.MinProjectTitleLength, validation.MaxProjectTitleLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("description", in.Description, validation.MinProjectDescriptionLength, validation.MaxGigDescriptionLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.Budget <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "budget must be positive")
	}

	project := &models.Project{
		ClientUserID: clientUserID,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Budget:       in.Budget,
		DeliveryTime: in.DeliveryTime,
		Skills:       in.Skills,
		Attachments:  in.Attachments,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.ErrProjectNotFound
	}
	project, err := s.projects.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, status, clientUserID string, limit, offset int64) ([]models.Project, error) {
	return s.projects.List(ctx, status, clientUserID, limit, offset)
}

// Update patches the caller's project; non-owners see it as missing.
func (s *ProjectService) Update(ctx context.Context, clientUserID, id string, in dto.UpdateProjectRequest) (*models.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.ErrProjectNotFound
	}

	patch := bson.M{}
	if in.Title != nil {
		if err := validation.ValidateLength("title", *in.Title, validation.MinProjectTitleLength, validation.MaxProjectTitleLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		patch["title"] = *in.Title
	}
	if in.Description != nil {
		patch["description"] = *in.Description
	}
	if in.Category != nil {
		patch["category"] = *in.Category
	}
	if in.Budget != nil {
		if *in.Budget <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "budget must be positive")
		}
		patch["budget"] = *in.Budget
	}
	if in.DeliveryTime != nil {
		patch["delivery_time"] = *in.DeliveryTime
	}
	if in.Skills != nil {
		patch["skills"] = in.Skills
	}
	if in.Status != nil {
		switch *in.Status {
		case repository.ProjectStatusOpen, repository.ProjectStatusAwarded,
			repository.ProjectStatusClosed, repository.ProjectStatusCancelled:
		default:
			return nil, apperror.New(apperror.ErrCodeValidation, "invalid project status")
		}
		patch["status"] = *in.Status
	}
	if len(patch) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "no fields to update")
	}

	if err := s.projects.Update(ctx, oid, clientUserID, patch); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, apperror.ErrProjectNotFound
		}
		return nil, err
	}

	return s.Get(ctx, id)
}
