package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"meets/config"
	deliverycontext "meets/internal/delivery/context"
	"meets/internal/domain/repository"
	"meets/internal/domain/service"
	"meets/internal/infra/pubsub"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryableError wraps an error to indicate it should trigger a Pub/Sub retry
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// newRetryableError wraps an error as retryable
func newRetryableError(err error) error {
	return &retryableError{err: err}
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	var re *retryableError

	return errors.As(err, &re)
}

// PushHandler handles Pub/Sub push messages and fans events out as push
// notifications.
type PushHandler struct {
	verifyPushAuth  bool
	logger          *slog.Logger
	chatRepo        repository.ChatRepository
	notificationSvc service.NotificationService
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config          *config.Config
	Logger          *slog.Logger
	ChatRepo        repository.ChatRepository
	NotificationSvc service.NotificationService `optional:"true"`
}

// NewPushHandler creates a new Pub/Sub push handler
func NewPushHandler(params PushHandlerParams) *PushHandler {
	// Google delivers signed pushes; the local publisher does not.
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == pubsub.ProviderGoogle &&
		params.Config.Env.Env != "develop"

	return &PushHandler{
		verifyPushAuth:  verifyPushAuth,
		logger:          params.Logger,
		chatRepo:        params.ChatRepo,
		notificationSvc: params.NotificationSvc,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	var event service.Event
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := h.extractRequestID(ctx, &pushMsg, &event)
	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing event",
		slog.String("type", event.Type),
		slog.String("message_id", pushMsg.Message.MessageID),
	)

	if err := h.processEvent(ctx, &event); err != nil {
		reqLogger.Error("[Worker] Failed to process event",
			slog.String("type", event.Type),
			slog.Any("error", err),
			slog.Bool("retryable", isRetryableError(err)),
		)
		// 503 makes Pub/Sub redeliver; anything unrecoverable is acked
		// with a 200 so it does not loop forever.
		if isRetryableError(err) {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	return c.NoContent(http.StatusOK)
}

// extractRequestID extracts request_id from message attributes, event, or generates a new one
func (h *PushHandler) extractRequestID(ctx context.Context, pushMsg *PubSubMessage, event *service.Event) string {
	if requestID, ok := pushMsg.Message.Attributes["request_id"]; ok && requestID != "" {
		return requestID
	}

	if event.RequestID != "" {
		return event.RequestID
	}

	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.New().String()
}

// processEvent routes an event to its handler.
func (h *PushHandler) processEvent(ctx context.Context, event *service.Event) error {
	switch event.Type {
	case service.EventChatMessageCreated:
		return h.notifyChatMessage(ctx, event)
	case service.EventUserRegistered:
		return h.notifyRegistration(ctx, event)
	default:
		h.logger.Info("[Worker] Ignoring unknown event type", slog.String("type", event.Type))

		return nil
	}
}

// notifyChatMessage pushes a new-message notification to every room
// participant except the sender.
func (h *PushHandler) notifyChatMessage(ctx context.Context, event *service.Event) error {
	chatID, err := uuid.Parse(event.Attributes["chat_id"])
	if err != nil {
		return errors.Wrap(err, "invalid chat_id attribute")
	}
	senderID, err := uuid.Parse(event.Attributes["sender_id"])
	if err != nil {
		return errors.Wrap(err, "invalid sender_id attribute")
	}

	participants, err := h.chatRepo.ListParticipants(ctx, chatID)
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}

	if h.notificationSvc == nil {
		h.logger.Debug("[Worker] Push notifications disabled, skipping")

		return nil
	}

	chatName := event.Attributes["chat"]
	body := event.Attributes["preview"]
	if senderName := event.Attributes["sender_name"]; senderName != "" {
		body = senderName + ": " + body
	}
	data := map[string]string{
		"chat":       chatName,
		"message_id": event.Attributes["message_id"],
	}

	var failed []string
	for _, participant := range participants {
		if participant.ID == senderID {
			continue
		}
		if err := h.notificationSvc.SendToUser(ctx, participant.ID, chatName, body, data); err != nil {
			failed = append(failed, participant.ID.String())
			h.logger.Warn("[Worker] Failed to push message notification",
				slog.String("user_id", participant.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	if len(failed) > 0 {
		return newRetryableError(
			errors.Errorf("push failed for users: %s", strings.Join(failed, ", ")),
		)
	}

	return nil
}

// notifyRegistration sends the welcome notification for a fresh account.
func (h *PushHandler) notifyRegistration(ctx context.Context, event *service.Event) error {
	if h.notificationSvc == nil {
		return nil
	}

	userID, err := uuid.Parse(event.Attributes["user_id"])
	if err != nil {
		return errors.Wrap(err, "invalid user_id attribute")
	}

	err = h.notificationSvc.SendToUser(ctx, userID,
		"Welcome to Meets",
		"Your account is ready. Find people to follow and join a chat room.",
		map[string]string{"event": event.Type},
	)
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}

	return nil
}

// verifyPubSubToken validates the OIDC token Google attaches to push requests.
func verifyPubSubToken(r *http.Request) error {
	authHeader := r.Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" || token == authHeader {
		return errors.New("missing bearer token")
	}

	if _, err := idtoken.Validate(r.Context(), token, ""); err != nil {
		return errors.Wrap(err, "invalid pubsub token")
	}

	return nil
}
