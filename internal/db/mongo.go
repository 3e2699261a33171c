package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Retention windows enforced through TTL indexes.
const (
	messageRetention     = 2 * 365 * 24 * time.Hour
	activityLogRetention = 365 * 24 * time.Hour
)

// Mongo bundles the document collections used by the chat and
// moderation subsystems.
type Mongo struct {
	Client       *mongo.Client
	Chats        *mongo.Collection
	Messages     *mongo.Collection
	Projects     *mongo.Collection
	ActivityLogs *mongo.Collection
	FileMetadata *mongo.Collection
	AuditEvents  *mongo.Collection
}

// NewMongo connects to MongoDB, ensures the collections and their
// indexes (including TTL retention), and returns the handle.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: cannot connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo: ping failed: %w", err)
	}

	dbHandle := client.Database(database)
	m := &Mongo{
		Client:       client,
		Chats:        dbHandle.Collection("chats"),
		Messages:     dbHandle.Collection("messages"),
		Projects:     dbHandle.Collection("projects"),
		ActivityLogs: dbHandle.Collection("activity_logs"),
		FileMetadata: dbHandle.Collection("file_metadata"),
		AuditEvents:  dbHandle.Collection("audit_events"),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongo: cannot create indexes: %w", err)
	}

	return m, nil
}

// Ping checks the connection, used by the health endpoint.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	ttl := func(seconds int32) *options.IndexOptions {
		return options.Index().SetExpireAfterSeconds(seconds)
	}

	specs := map[*mongo.Collection][]mongo.IndexModel{
		m.Chats: {
			// Mongo cannot uniquely index the participants array as a
			// pair; the derived sorted key carries the dedup constraint.
			{Keys: bson.D{{Key: "participant_key", Value: 1}, {Key: "order_id", Value: 1}},
				Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}}},
			{Keys: bson.D{{Key: "last_message_at", Value: -1}}},
		},
		m.Messages: {
			{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "sender_id", Value: 1}}},
			{Keys: bson.D{{Key: "read_by", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: ttl(int32(messageRetention.Seconds()))},
		},
		m.Projects: {
			{Keys: bson.D{{Key: "client_user_id", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		m.ActivityLogs: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}}},
			{Keys: bson.D{{Key: "action", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: ttl(int32(activityLogRetention.Seconds()))},
		},
		m.FileMetadata: {
			{Keys: bson.D{{Key: "uploader_id", Value: 1}}},
			{Keys: bson.D{{Key: "storage_url", Value: 1}}},
			{Keys: bson.D{{Key: "used_by", Value: 1}}},
		},
		m.AuditEvents: {
			{Keys: bson.D{{Key: "actor_id", Value: 1}}},
			{Keys: bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}}},
			{Keys: bson.D{{Key: "action", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "ip_address", Value: 1}}},
		},
	}

	for coll, models := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("collection %s: %w", coll.Name(), err)
		}
	}

	return nil
}
