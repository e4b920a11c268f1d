package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"meets/internal/delivery/http/middleware"
	"meets/internal/delivery/http/response"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ChatHandler holds dependencies for chat room handlers.
type ChatHandler struct {
	uc     usecase.ChatUsecase
	logger *slog.Logger
}

// NewChatHandler is the constructor for ChatHandler, injected by Fx.
func NewChatHandler(uc usecase.ChatUsecase, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{uc: uc, logger: logger}
}

type createChatRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	ParticipantIDs []string `json:"participantIds" validate:"required,len=2,dive,uuid"`
}

type joinChatRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type sendMessageRequest struct {
	Content   string `json:"content" validate:"required"`
	CreatedAt string `json:"createdAt" validate:"omitempty"`
}

type sendMessageBatchRequest struct {
	Messages []sendMessageRequest `json:"messages" validate:"required,min=1,max=100,dive"`
}

// Create opens a new room between exactly two users. The caller must be
// one of the two participants.
func (h *ChatHandler) Create(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid chat input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	participants := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid participant id")
		}
		participants = append(participants, id)
	}

	chat, err := h.uc.CreateChat(c.Request().Context(), usecase.CreateChatInput{
		Name:           req.Name,
		CreatorID:      userID,
		ParticipantIDs: participants,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, chat, "Chat created")
}

// Join joins the caller into the named room, creating it when the name is
// free.
func (h *ChatHandler) Join(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req joinChatRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid chat input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	chat, err := h.uc.JoinChat(c.Request().Context(), req.Name, userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, chat, "Joined chat")
}

// List returns the caller's chat list with recent messages and unread
// counts.
func (h *ChatHandler) List(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	summaries, err := h.uc.GetChats(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, summaries, "Chats")
}

// Messages returns one page of room history, newest first. Pages are
// 1-indexed through the page and perPage query parameters.
func (h *ChatHandler) Messages(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	input := usecase.ListMessagesInput{
		ChatName: c.Param("name"),
		UserID:   userID,
	}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid page")
		}
		input.Page = page
	}
	if raw := c.QueryParam("perPage"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid perPage")
		}
		input.PerPage = perPage
	}

	page, err := h.uc.GetMessages(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, page, "Messages")
}

// Send posts a message to the room over plain HTTP. Connected websocket
// clients receive it through the hub. An optional createdAt timestamp lets
// clients flush messages composed while offline.
func (h *ChatHandler) Send(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid message input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	input := usecase.SendMessageInput{
		ChatName: c.Param("name"),
		SenderID: userID,
		Content:  req.Content,
	}
	if req.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, req.CreatedAt)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid createdAt timestamp")
		}
		input.CreatedAt = &createdAt
	}

	message, err := h.uc.SendMessage(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, message, "Message sent")
}

// SendBatch ingests several messages in one request. Clients flush their
// offline outbox through this endpoint, so every item may carry its own
// createdAt timestamp.
func (h *ChatHandler) SendBatch(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	var req sendMessageBatchRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid message input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	input := usecase.SendMessagesInput{
		ChatName: c.Param("name"),
		SenderID: userID,
		Messages: make([]usecase.BatchMessageInput, 0, len(req.Messages)),
	}
	for _, item := range req.Messages {
		batched := usecase.BatchMessageInput{Content: item.Content}
		if item.CreatedAt != "" {
			createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
			if err != nil {
				return response.BadRequest(c, "INVALID_INPUT", "Invalid createdAt timestamp")
			}
			batched.CreatedAt = &createdAt
		}
		input.Messages = append(input.Messages, batched)
	}

	count, err := h.uc.SendMessages(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, map[string]int{"count": count}, "Messages sent")
}

// DeleteMessage removes one of the caller's own messages from the room.
func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid message id")
	}

	if err := h.uc.DeleteMessage(c.Request().Context(), messageID, userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Message deleted"}, "Message deleted")
}

// NewMessagesCount reports how many messages arrived since the caller
// last marked the room read.
func (h *ChatHandler) NewMessagesCount(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	count, err := h.uc.CountNewMessages(c.Request().Context(), c.Param("name"), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int64{"count": count}, "New messages count")
}

// MarkRead zeroes the caller's unread count for the room.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	if err := h.uc.MarkRead(c.Request().Context(), c.Param("name"), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Marked read"}, "Marked read")
}

// FollowingToChat lists followed users the caller has no room with yet.
func (h *ChatHandler) FollowingToChat(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	candidates, err := h.uc.FollowingToChat(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, candidates, "Following to chat")
}

// InviteCandidates lists followed users not yet in the room.
func (h *ChatHandler) InviteCandidates(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	candidates, err := h.uc.InviteCandidates(c.Request().Context(), c.Param("name"), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, candidates, "Invite candidates")
}

// InviteQR renders the room's join link as a PNG QR code.
func (h *ChatHandler) InviteQR(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	png, err := h.uc.InviteQR(c.Request().Context(), c.Param("name"), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}
