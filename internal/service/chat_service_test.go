package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/repository"
)

type mockChatRepository struct {
	rooms map[string]*models.Chat

	// When set, CreateRoom behaves as if a concurrent caller inserted
	// the room first: the winner lands in rooms and the insert fails
	// with ErrChatExists.
	loseCreateRace bool
}

func newMockChatRepository() *mockChatRepository {
	return &mockChatRepository{rooms: make(map[string]*models.Chat)}
}

func roomKey(userA, userB string, orderID *string) string {
	key := repository.ParticipantKey(userA, userB)
	if orderID != nil {
		key += "|" + *orderID
	}
	return key
}

func (m *mockChatRepository) FindRoom(ctx context.Context, userA, userB string, orderID *string) (*models.Chat, error) {
	if chat, ok := m.rooms[roomKey(userA, userB, orderID)]; ok {
		return chat, nil
	}
	return nil, repository.ErrChatNotFound
}

func (m *mockChatRepository) CreateRoom(ctx context.Context, chat *models.Chat) error {
	key := roomKey(chat.Participants[0], chat.Participants[1], chat.OrderID)
	if m.loseCreateRace {
		winner := &models.Chat{
			ID:           primitive.NewObjectID(),
			Participants: chat.Participants,
			OrderID:      chat.OrderID,
			CreatedAt:    time.Now().UTC(),
		}
		m.rooms[key] = winner
		return repository.ErrChatExists
	}
	if _, ok := m.rooms[key]; ok {
		return repository.ErrChatExists
	}
	chat.ID = primitive.NewObjectID()
	chat.CreatedAt = time.Now().UTC()
	chat.LastMessageAt = chat.CreatedAt
	m.rooms[key] = chat
	return nil
}

func (m *mockChatRepository) GetRoom(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	for _, chat := range m.rooms {
		if chat.ID == id {
			return chat, nil
		}
	}
	return nil, repository.ErrChatNotFound
}

func (m *mockChatRepository) ListRooms(ctx context.Context, userID string, limit int64) ([]models.Chat, error) {
	var out []models.Chat
	for _, chat := range m.rooms {
		for _, p := range chat.Participants {
			if p == userID {
				out = append(out, *chat)
				break
			}
		}
	}
	return out, nil
}

func (m *mockChatRepository) InsertMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockChatRepository) ListMessages(ctx context.Context, chatID string, limit, offset int64) ([]models.Message, error) {
	return nil, nil
}

func (m *mockChatRepository) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	return 0, nil
}

func (m *mockChatRepository) CountUnread(ctx context.Context, chatID, userID string) (int64, error) {
	return 0, nil
}

func TestOpenRoom_SecondOpenReturnsExistingRoom(t *testing.T) {
	repo := newMockChatRepository()
	svc := NewChatService(repo)

	first, created, err := svc.OpenRoom(context.Background(), "alice", dto.CreateRoomRequest{ParticipantID: "bob"})
	require.NoError(t, err)
	assert.True(t, created)

	// Opening from the other side must land in the same room.
	second, created, err := svc.OpenRoom(context.Background(), "bob", dto.CreateRoomRequest{ParticipantID: "alice"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.rooms, 1)
}

func TestOpenRoom_ConcurrentCreateReturnsWinner(t *testing.T) {
	repo := newMockChatRepository()
	repo.loseCreateRace = true
	svc := NewChatService(repo)

	chat, created, err := svc.OpenRoom(context.Background(), "alice", dto.CreateRoomRequest{ParticipantID: "bob"})
	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, chat)

	winner := repo.rooms[roomKey("alice", "bob", nil)]
	assert.Equal(t, winner.ID, chat.ID)
	assert.Len(t, repo.rooms, 1)
}

func TestOpenRoom_RejectsSelfChat(t *testing.T) {
	svc := NewChatService(newMockChatRepository())

	_, _, err := svc.OpenRoom(context.Background(), "alice", dto.CreateRoomRequest{ParticipantID: "alice"})
	assert.Error(t, err)
}

func TestParticipantKeyIsOrderInsensitive(t *testing.T) {
	assert.Equal(t, repository.ParticipantKey("alice", "bob"), repository.ParticipantKey("bob", "alice"))
	assert.Equal(t, "alice:bob", repository.ParticipantKey("bob", "alice"))
}
