package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/http/handlers/common"
	"github.com/gigconnect/backend/internal/service"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// OpenRoom POST /chat/rooms
//
// Opening a room with the same participant pair and order is
// idempotent; the existing room comes back with a 200 instead of 201.
func (h *ChatHandler) OpenRoom(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "participant_id is required")
		return
	}

	room, created, err := h.chats.OpenRoom(c.Request.Context(), userID.String(), req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	common.RespondData(c, status, room)
}

// ListRooms GET /chat/rooms
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, _ := common.ParseLimitOffset(c, 50, 200)

	rooms, err := h.chats.ListRooms(c.Request.Context(), userID.String(), int64(limit))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, rooms)
}

// Messages GET /chat/rooms/:id/messages
func (h *ChatHandler) Messages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.ParseLimitOffset(c, 50, 200)

	messages, err := h.chats.Messages(c.Request.Context(), userID.String(), c.Param("id"), int64(limit), int64(offset))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, messages)
}

// Send POST /chat/rooms/:id/messages
func (h *ChatHandler) Send(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	message, err := h.chats.Send(c.Request.Context(), userID.String(), c.Param("id"), req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, message)
}

// MarkRead POST /chat/rooms/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	marked, err := h.chats.MarkRead(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gin.H{"marked": marked})
}

// UnreadCount GET /chat/rooms/:id/unread
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	count, err := h.chats.UnreadCount(c.Request.Context(), userID.String(), c.Param("id"))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gin.H{"unread": count})
}
