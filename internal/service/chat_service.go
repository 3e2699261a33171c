package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/validation"
)

var messageTypes = map[string]bool{
	models.MessageTypeText:         true,
	models.MessageTypeImage:        true,
	models.MessageTypeFile:         true,
	models.MessageTypePaymentProof: true,
}

type ChatRepositoryIface interface {
	FindRoom(ctx context.Context, userA, userB string, orderID *string) (*models.Chat, error)
	CreateRoom(ctx context.Context, chat *models.Chat) error
	GetRoom(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	ListRooms(ctx context.Context, userID string, limit int64) ([]models.Chat, error)
	InsertMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, chatID string, limit, offset int64) ([]models.Message, error)
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)
	CountUnread(ctx context.Context, chatID, userID string) (int64, error)
}

type ChatService struct {
	chats ChatRepositoryIface
}

func NewChatService(chats ChatRepositoryIface) *ChatService {
	return &ChatService{chats: chats}
}

// OpenRoom returns the conversation between the caller and the other
// participant, creating it when absent. Opening an existing room is
// not an error.
func (s *ChatService) OpenRoom(ctx context.Context, callerID string, in dto.CreateRoomRequest) (*models.Chat, bool, error) {
	if in.ParticipantID == "" || in.ParticipantID == callerID {
		return nil, false, apperror.New(apperror.ErrCodeValidation, "participant_id must name another user")
	}

	existing, err := s.chats.FindRoom(ctx, callerID, in.ParticipantID, in.OrderID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrChatNotFound) {
		return nil, false, err
	}

	chat := &models.Chat{
		Participants: []string{callerID, in.ParticipantID},
		OrderID:      in.OrderID,
	}
	err = s.chats.CreateRoom(ctx, chat)
	if errors.Is(err, repository.ErrChatExists) {
		// Lost a race with a concurrent open of the same room; the
		// unique index kept one winner, return it.
		existing, err := s.chats.FindRoom(ctx, callerID, in.ParticipantID, in.OrderID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return chat, true, nil
}

// ListRooms returns the caller's conversations, most recent first.
func (s *ChatService) ListRooms(ctx context.Context, callerID string, limit int64) ([]models.Chat, error) {
	return s.chats.ListRooms(ctx, callerID, limit)
}

// Messages pages a room's history for a participant. Non-participants
// see the room as missing rather than forbidden.
func (s *ChatService) Messages(ctx context.Context, callerID, chatID string, limit, offset int64) ([]models.Message, error) {
	if _, err := s.memberRoom(ctx, callerID, chatID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, chatID, limit, offset)
}

// Send posts a message into a room the caller participates in.
func (s *ChatService) Send(ctx context.Context, callerID, chatID string, in dto.SendMessageRequest) (*models.Message, error) {
	chat, err := s.memberRoom(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}

	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !messageTypes[msgType] {
		return nil, apperror.New(apperror.ErrCodeValidation, "invalid message type")
	}
	if err := validation.ValidateLength("content", in.Content, 0, validation.MaxMessageLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if msgType == models.MessageTypeText && in.Content == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "content is required for text messages")
	}

	orderID := in.OrderID
	if orderID == nil {
		orderID = chat.OrderID
	}

	msg := &models.Message{
		ChatID:      chatID,
		SenderID:    callerID,
		Type:        msgType,
		Content:     in.Content,
		Attachments: in.Attachments,
		OrderID:     orderID,
	}
	if err := s.chats.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkRead records the caller's read receipt across the whole room.
func (s *ChatService) MarkRead(ctx context.Context, callerID, chatID string) (int64, error) {
	if _, err := s.memberRoom(ctx, callerID, chatID); err != nil {
		return 0, err
	}
	return s.chats.MarkRead(ctx, chatID, callerID)
}

// UnreadCount reports the caller's unread messages in a room.
func (s *ChatService) UnreadCount(ctx context.Context, callerID, chatID string) (int64, error) {
	if _, err := s.memberRoom(ctx, callerID, chatID); err != nil {
		return 0, err
	}
	return s.chats.CountUnread(ctx, chatID, callerID)
}

func (s *ChatService) memberRoom(ctx context.Context, callerID, chatID string) (*models.Chat, error) {
	id, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, apperror.ErrChatNotFound
	}

	chat, err := s.chats.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, apperror.ErrChatNotFound
		}
		return nil, err
	}

	for _, p := range chat.Participants {
		if p == callerID {
			return chat, nil
		}
	}
	return nil, apperror.ErrChatNotFound
}
