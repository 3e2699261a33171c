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

type ChatRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(m *db.Mongo) *ChatRepository {
	return &ChatRepository{chats: m.Chats, messages: m.Messages}
}

// ParticipantKey derives the sorted pair key the unique room index is
// built on. Participant order does not matter.
func ParticipantKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// FindRoom returns the existing conversation between the two users for
// the given order context, if one exists.
func (r *ChatRepository) FindRoom(ctx context.Context, userA, userB string, orderID *string) (*models.Chat, error) {
	filter := bson.M{
		"participant_key": ParticipantKey(userA, userB),
		"order_id":        orderID,
	}

	var chat models.Chat
	err := r.chats.FindOne(ctx, filter).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat repository: find room: %w", err)
	}
	return &chat, nil
}

// CreateRoom inserts the conversation. The unique (participant_key,
// order_id) index turns a concurrent insert of the same room into
// ErrChatExists, so callers can re-fetch instead of duplicating it.
func (r *ChatRepository) CreateRoom(ctx context.Context, chat *models.Chat) error {
	chat.ParticipantKey = ParticipantKey(chat.Participants[0], chat.Participants[1])
	chat.CreatedAt = time.Now().UTC()
	chat.LastMessageAt = chat.CreatedAt

	res, err := r.chats.InsertOne(ctx, chat)
	if mongo.IsDuplicateKeyError(err) {
		return ErrChatExists
	}
	if err != nil {
		return fmt.Errorf("chat repository: create room: %w", err)
	}
	chat.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ChatRepository) GetRoom(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat repository: get room: %w", err)
	}
	return &chat, nil
}

// ListRooms returns the user's conversations, most recently active first.
func (r *ChatRepository) ListRooms(ctx context.Context, userID string, limit int64) ([]models.Chat, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_message_at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.chats.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("chat repository: list rooms: %w", err)
	}
	defer cur.Close(ctx)

	chats := []models.Chat{}
	if err := cur.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("chat repository: decode rooms: %w", err)
	}
	return chats, nil
}

// InsertMessage stores the message and bumps the room's last activity
// timestamp so room lists stay sorted by recency.
func (r *ChatRepository) InsertMessage(ctx context.Context, msg *models.Message) error {
	msg.CreatedAt = time.Now().UTC()
	if msg.Attachments == nil {
		msg.Attachments = []string{}
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []string{msg.SenderID}
	}

	res, err := r.messages.InsertOne(ctx, msg)
	if err != nil {
		return fmt.Errorf("chat repository: insert message: %w", err)
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)

	chatID, err := primitive.ObjectIDFromHex(msg.ChatID)
	if err != nil {
		return fmt.Errorf("chat repository: bad chat id %q: %w", msg.ChatID, err)
	}
	if _, err := r.chats.UpdateByID(ctx, chatID,
		bson.M{"$set": bson.M{"last_message_at": msg.CreatedAt}}); err != nil {
		return fmt.Errorf("chat repository: touch room: %w", err)
	}
	return nil
}

// ListMessages pages a room's history, newest first.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string, limit, offset int64) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := r.messages.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("chat repository: list messages: %w", err)
	}
	defer cur.Close(ctx)

	messages := []models.Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("chat repository: decode messages: %w", err)
	}
	return messages, nil
}

// MarkRead adds the reader to every unread message in the room. The
// receipt is an idempotent set union.
func (r *ChatRepository) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	res, err := r.messages.UpdateMany(ctx,
		bson.M{"chat_id": chatID, "read_by": bson.M{"$ne": readerID}},
		bson.M{"$addToSet": bson.M{"read_by": readerID}})
	if err != nil {
		return 0, fmt.Errorf("chat repository: mark read: %w", err)
	}
	return res.ModifiedCount, nil
}

// CountUnread reports how many messages in the room the user has not
// seen yet.
func (r *ChatRepository) CountUnread(ctx context.Context, chatID, userID string) (int64, error) {
	n, err := r.messages.CountDocuments(ctx, bson.M{
		"chat_id":   chatID,
		"sender_id": bson.M{"$ne": userID},
		"read_by":   bson.M{"$ne": userID},
	})
	if err != nil {
		return 0, fmt.Errorf("chat repository: count unread: %w", err)
	}
	return n, nil
}
