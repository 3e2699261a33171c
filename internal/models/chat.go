package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types.
const (
	MessageTypeText         = "text"
	MessageTypeImage        = "image"
	MessageTypeFile         = "file"
	MessageTypePaymentProof = "payment_proof"
)

// Chat is a conversation between two users, optionally tied to an order.
// ParticipantKey is the sorted participant pair joined with a colon; the
// unique (participant_key, order_id) index dedups rooms because Mongo
// cannot uniquely index the participants array as a pair.
type Chat struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Participants   []string           `bson:"participants" json:"participants"`
	ParticipantKey string             `bson:"participant_key" json:"-"`
	OrderID        *string            `bson:"order_id" json:"order_id,omitempty"`
	LastMessageAt  time.Time          `bson:"last_message_at" json:"last_message_at"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Message is a single chat message. ReadBy collects the user ids that
// have seen the message; receipts are best-effort array unions.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID      string             `bson:"chat_id" json:"chat_id"`
	SenderID    string             `bson:"sender_id" json:"sender_id"`
	Type        string             `bson:"type" json:"type"`
	Content     string             `bson:"content" json:"content"`
	Attachments []string           `bson:"attachments" json:"attachments"`
	OrderID     *string            `bson:"order_id" json:"order_id,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	DeliveredAt *time.Time         `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	ReadBy      []string           `bson:"read_by" json:"read_by"`
}

// Project is a client-posted job brief that freelancers respond to.
type Project struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientUserID string             `bson:"client_user_id" json:"client_user_id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Category     string             `bson:"category" json:"category"`
	Budget       float64            `bson:"budget" json:"budget"`
	DeliveryTime string             `bson:"delivery_time" json:"delivery_time"`
	Skills       []string           `bson:"skills" json:"skills"`
	Attachments  []string           `bson:"attachments" json:"attachments"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// ActivityLog records user-visible platform activity (TTL: one year).
type ActivityLog struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID     string                 `bson:"user_id" json:"user_id"`
	Action     string                 `bson:"action" json:"action"`
	TargetType string                 `bson:"target_type" json:"target_type"`
	TargetID   string                 `bson:"target_id" json:"target_id"`
	Details    map[string]interface{} `bson:"details" json:"details"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
}

// AuditEvent records privileged or money-moving actions for moderation review.
type AuditEvent struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	ActorID    string                 `bson:"actor_id" json:"actor_id"`
	Action     string                 `bson:"action" json:"action"`
	TargetType string                 `bson:"target_type" json:"target_type"`
	TargetID   string                 `bson:"target_id" json:"target_id"`
	Details    map[string]interface{} `bson:"details" json:"details"`
	IPAddress  *string                `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent  *string                `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
}

// FileMetadata describes an uploaded file kept on local storage.
type FileMetadata struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StorageURL string             `bson:"storage_url" json:"storage_url"`
	UploaderID string             `bson:"uploader_id" json:"uploader_id"`
	FileType   string             `bson:"file_type" json:"file_type"`
	Size       int64              `bson:"size" json:"size"`
	UsedBy     []string           `bson:"used_by" json:"used_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
