package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meets/config"
	"meets/internal/domain/entity"
	"meets/internal/domain/service"
	mockRepo "meets/internal/mocks/repository"
	mockSvc "meets/internal/mocks/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type pushHandlerFixtures struct {
	handler         *PushHandler
	chatRepo        *mockRepo.MockChatRepository
	notificationSvc *mockSvc.MockNotificationService
}

func createTestPushHandler(t *testing.T) *pushHandlerFixtures {
	chatRepo := mockRepo.NewMockChatRepository(t)
	notificationSvc := mockSvc.NewMockNotificationService(t)

	handler := NewPushHandler(PushHandlerParams{
		Config:          &config.Config{},
		Logger:          slog.New(slog.DiscardHandler),
		ChatRepo:        chatRepo,
		NotificationSvc: notificationSvc,
	})

	return &pushHandlerFixtures{
		handler:         handler,
		chatRepo:        chatRepo,
		notificationSvc: notificationSvc,
	}
}

func pushRequest(t *testing.T, event *service.Event) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var pushMsg PubSubMessage
	pushMsg.Message.Data = base64.StdEncoding.EncodeToString(payload)
	pushMsg.Message.MessageID = "m-1"
	pushMsg.Subscription = "projects/test/subscriptions/meets-events"

	body, err := json.Marshal(pushMsg)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func chatMessageEvent(chatID, senderID uuid.UUID) *service.Event {
	return &service.Event{
		Type:       service.EventChatMessageCreated,
		OccurredAt: time.Now(),
		Attributes: map[string]string{
			"chat":        "gophers",
			"chat_id":     chatID.String(),
			"message_id":  uuid.New().String(),
			"sender_id":   senderID.String(),
			"sender_name": "alice",
			"preview":     "hello there",
		},
	}
}

func TestPushHandler_ChatMessageNotifiesOtherParticipants(t *testing.T) {
	fix := createTestPushHandler(t)

	chatID := uuid.New()
	senderID := uuid.New()
	otherID := uuid.New()

	fix.chatRepo.On("ListParticipants", mock.Anything, chatID).
		Return([]entity.UserSummary{
			{ID: senderID, Name: "alice"},
			{ID: otherID, Name: "bob"},
		}, nil)
	fix.notificationSvc.On("SendToUser", mock.Anything, otherID, "gophers", "alice: hello there",
		mock.AnythingOfType("map[string]string")).
		Return(nil)

	ctx, rec := pushRequest(t, chatMessageEvent(chatID, senderID))

	require.NoError(t, fix.handler.HandlePush(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPushHandler_RetriesWhenParticipantLookupFails(t *testing.T) {
	fix := createTestPushHandler(t)

	chatID := uuid.New()
	fix.chatRepo.On("ListParticipants", mock.Anything, chatID).
		Return(nil, errors.New("connection refused"))

	ctx, rec := pushRequest(t, chatMessageEvent(chatID, uuid.New()))

	require.NoError(t, fix.handler.HandlePush(ctx))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPushHandler_AcksMalformedEvent(t *testing.T) {
	fix := createTestPushHandler(t)

	event := chatMessageEvent(uuid.New(), uuid.New())
	event.Attributes["chat_id"] = "not-a-uuid"

	ctx, rec := pushRequest(t, event)

	require.NoError(t, fix.handler.HandlePush(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPushHandler_WelcomeNotification(t *testing.T) {
	fix := createTestPushHandler(t)

	userID := uuid.New()
	fix.notificationSvc.On("SendToUser", mock.Anything, userID, "Welcome to Meets",
		mock.AnythingOfType("string"), mock.AnythingOfType("map[string]string")).
		Return(nil)

	ctx, rec := pushRequest(t, &service.Event{
		Type:       service.EventUserRegistered,
		OccurredAt: time.Now(),
		Attributes: map[string]string{"user_id": userID.String()},
	})

	require.NoError(t, fix.handler.HandlePush(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPushHandler_IgnoresUnknownEventType(t *testing.T) {
	fix := createTestPushHandler(t)

	ctx, rec := pushRequest(t, &service.Event{
		Type:       "user.deleted",
		OccurredAt: time.Now(),
	})

	require.NoError(t, fix.handler.HandlePush(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
}
