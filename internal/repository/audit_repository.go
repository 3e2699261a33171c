package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gigconnect/backend/internal/db"
	"github.com/gigconnect/backend/internal/models"
)

// AuditRepository persists the write-ahead trail of user activity,
// privileged actions and upload metadata.
type AuditRepository struct {
	activityLogs *mongo.Collection
	auditEvents  *mongo.Collection
	fileMetadata *mongo.Collection
}

func NewAuditRepository(m *db.Mongo) *AuditRepository {
	return &AuditRepository{
		activityLogs: m.ActivityLogs,
		auditEvents:  m.AuditEvents,
		fileMetadata: m.FileMetadata,
	}
}

func (r *AuditRepository) LogActivity(ctx context.Context, log *models.ActivityLog) error {
	log.CreatedAt = time.Now().UTC()
	if log.Details == nil {
		log.Details = map[string]interface{}{}
	}
	if _, err := r.activityLogs.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("audit repository: log activity: %w", err)
	}
	return nil
}

func (r *AuditRepository) RecordAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	event.CreatedAt = time.Now().UTC()
	if event.Details == nil {
		event.Details = map[string]interface{}{}
	}
	if _, err := r.auditEvents.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("audit repository: record audit event: %w", err)
	}
	return nil
}

// ListAuditEvents pages the privileged-action trail, newest first. An
// empty actorID or action leaves that filter out.
func (r *AuditRepository) ListAuditEvents(ctx context.Context, actorID, action string, limit, offset int64) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	filter := bson.M{}
	if actorID != "" {
		filter["actor_id"] = actorID
	}
	if action != "" {
		filter["action"] = action
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := r.auditEvents.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("audit repository: list audit events: %w", err)
	}
	defer cur.Close(ctx)

	events := []models.AuditEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("audit repository: decode audit events: %w", err)
	}
	return events, nil
}

func (r *AuditRepository) SaveFileMetadata(ctx context.Context, meta *models.FileMetadata) error {
	meta.CreatedAt = time.Now().UTC()
	if meta.UsedBy == nil {
		meta.UsedBy = []string{}
	}

	res, err := r.fileMetadata.InsertOne(ctx, meta)
	if err != nil {
		return fmt.Errorf("audit repository: save file metadata: %w", err)
	}
	meta.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListOrphanFiles returns metadata for uploads older than the cutoff
// that nothing references. The cleanup worker deletes these.
func (r *AuditRepository) ListOrphanFiles(ctx context.Context, olderThan time.Time, limit int64) ([]models.FileMetadata, error) {
	if limit <= 0 || limit > 1000 {
		limit = 500
	}

	cur, err := r.fileMetadata.Find(ctx, bson.M{
		"used_by":    bson.M{"$size": 0},
		"created_at": bson.M{"$lt": olderThan},
	}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("audit repository: list orphan files: %w", err)
	}
	defer cur.Close(ctx)

	files := []models.FileMetadata{}
	if err := cur.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("audit repository: decode orphan files: %w", err)
	}
	return files, nil
}

func (r *AuditRepository) DeleteFileMetadata(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.fileMetadata.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("audit repository: delete file metadata: %w", err)
	}
	return nil
}
