package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gigconnect/backend/internal/db"
	"github.com/gigconnect/backend/internal/models"
)

// Project statuses.
const (
	ProjectStatusOpen      = "open"
	ProjectStatusAwarded   = "awarded"
	ProjectStatusClosed    = "closed"
	ProjectStatusCancelled = "cancelled"
)

type ProjectRepository struct {
	projects *mongo.Collection
}

func NewProjectRepository(m *db.Mongo) *ProjectRepository {
	return &ProjectRepository{projects: m.Projects}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = ProjectStatusOpen
	}
	if project.Skills == nil {
		project.Skills = []string{}
	}
	if project.Attachments == nil {
		project.Attachments = []string{}
	}

	res, err := r.projects.InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("project repository: create: %w", err)
	}
	project.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project repository: get by id: %w", err)
	}
	return &project, nil
}

// List pages projects newest first. An empty status or clientUserID
// leaves that filter out.
func (r *ProjectRepository) List(ctx context.Context, status, clientUserID string, limit, offset int64) ([]models.Project, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if clientUserID != "" {
		filter["client_user_id"] = clientUserID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := r.projects.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("project repository: list: %w", err)
	}
	defer cur.Close(ctx)

	projects := []models.Project{}
	if err := cur.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("project repository: decode: %w", err)
	}
	return projects, nil
}

// Update patches the owner's project. Only the mutable fields move.
func (r *ProjectRepository) Update(ctx context.Context, id primitive.ObjectID, clientUserID string, patch bson.M) error {
	patch["updated_at"] = time.Now().UTC()

	res, err := r.projects.UpdateOne(ctx,
		bson.M{"_id": id, "client_user_id": clientUserID},
		bson.M{"$set": patch})
	if err != nil {
		return fmt.Errorf("project repository: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// SetStatus moves the project along its lifecycle regardless of owner.
// Moderators use this to close listings.
func (r *ProjectRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := r.projects.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("project repository: set status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProjectNotFound
	}
	return nil
}
