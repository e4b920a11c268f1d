package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "meets/internal/delivery/context"
	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	"meets/internal/domain/service"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	// recentMessageWindow is the number of messages attached to each room
	// in the chat list.
	recentMessageWindow = 15

	// chatParticipantCount is the fixed membership size of a created room.
	chatParticipantCount = 2

	defaultPerPage = 15
	maxPerPage     = 30
)

// chatService implements the ChatUsecase interface.
type chatService struct {
	txManager      repository.TransactionManager
	chatRepo       repository.ChatRepository
	messageRepo    repository.MessageRepository
	userRepo       repository.UserRepository
	qrcodeService  service.QRCodeService
	eventPublisher service.EventPublisher
	logger         *slog.Logger
}

// ChatServiceParams holds dependencies for chatService, injected by Fx.
type ChatServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	ChatRepo       repository.ChatRepository
	MessageRepo    repository.MessageRepository
	UserRepo       repository.UserRepository
	QRCodeService  service.QRCodeService
	EventPublisher service.EventPublisher
	Logger         *slog.Logger
}

// NewChatService is the constructor for chatService.
func NewChatService(params ChatServiceParams) usecase.ChatUsecase {
	return &chatService{
		txManager:      params.TxManager,
		chatRepo:       params.ChatRepo,
		messageRepo:    params.MessageRepo,
		userRepo:       params.UserRepo,
		qrcodeService:  params.QRCodeService,
		eventPublisher: params.EventPublisher,
		logger:         params.Logger,
	}
}

func (srv *chatService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateChat opens a room between exactly two participants. The name is the
// uniqueness key, so a taken name fails even for a different pair.
func (srv *chatService) CreateChat(ctx context.Context, input usecase.CreateChatInput) (*entity.Chat, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("chat name is empty")
	}
	if len(input.ParticipantIDs) != chatParticipantCount {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("a chat needs exactly two participants")
	}
	if input.ParticipantIDs[0] == input.ParticipantIDs[1] {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("participants must be two distinct users")
	}

	creatorIncluded := false
	for _, participantID := range input.ParticipantIDs {
		if participantID == input.CreatorID {
			creatorIncluded = true

			break
		}
	}
	if !creatorIncluded {
		return nil, domainerrors.ErrChatAccessDenied.WrapMessage("creator must be a participant")
	}

	chat := &entity.Chat{Name: name}
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		chatRepo := repoFactory.ChatRepo()
		if err := chatRepo.Create(ctx, chat); err != nil {
			if errors.Is(err, repository.ErrChatExists) {
				return domainerrors.ErrChatAlreadyExists.WrapMessage("chat name already taken")
			}

			return errors.Wrap(err, "failed to create chat")
		}

		for _, participantID := range input.ParticipantIDs {
			if err := chatRepo.AddParticipant(ctx, chat.ID, participantID); err != nil {
				return errors.Wrap(err, "failed to add participant")
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	chat.Participants, err = srv.chatRepo.ListParticipants(ctx, chat.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list participants")
	}

	srv.log(ctx).Info("Chat created",
		slog.String("chat", name),
		slog.String("creatorID", input.CreatorID.String()),
	)

	return chat, nil
}

// JoinChat joins the caller into the room with the given name, creating the
// room when the name is free.
func (srv *chatService) JoinChat(ctx context.Context, name string, userID uuid.UUID) (*entity.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("chat name is empty")
	}

	chat, err := srv.chatRepo.FindByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrChatNotFound):
		chat = &entity.Chat{Name: name}
		if createErr := srv.chatRepo.Create(ctx, chat); createErr != nil {
			// Another caller may have created the room between the
			// lookup and the insert.
			chat, err = srv.chatRepo.FindByName(ctx, name)
			if err != nil {
				return nil, errors.Wrap(createErr, "failed to create chat")
			}
		}
	case err != nil:
		return nil, errors.Wrap(err, "failed to find chat by name")
	}

	if err := srv.chatRepo.AddParticipant(ctx, chat.ID, userID); err != nil {
		return nil, errors.Wrap(err, "failed to add participant")
	}

	chat.Participants, err = srv.chatRepo.ListParticipants(ctx, chat.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list participants")
	}

	srv.log(ctx).Info("User joined chat",
		slog.String("chat", name),
		slog.String("userID", userID.String()),
	)

	return chat, nil
}

// GetChats returns the caller's chat list, most recently active first, each
// with the other participants, a window of recent messages and the caller's
// unread count.
func (srv *chatService) GetChats(ctx context.Context, userID uuid.UUID) ([]entity.ChatSummary, error) {
	chats, err := srv.chatRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chats")
	}

	summaries := make([]entity.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		participants, err := srv.chatRepo.ListParticipants(ctx, chat.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list participants")
		}

		others := make([]entity.UserSummary, 0, len(participants))
		for _, participant := range participants {
			if participant.ID != userID {
				others = append(others, participant)
			}
		}

		messages, err := srv.messageRepo.ListRecent(ctx, chat.ID, recentMessageWindow)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list recent messages")
		}

		total, err := srv.messageRepo.CountByChat(ctx, chat.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to count messages")
		}

		unread, err := srv.unreadCount(ctx, chat.ID, userID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, entity.ChatSummary{
			Chat:         chat,
			Others:       others,
			Messages:     messages,
			MessageCount: total,
			UnreadCount:  unread,
		})
	}

	return summaries, nil
}

// GetMessages returns one page of room history, newest first. Page is
// 1-indexed and PerPage is capped at 30.
func (srv *chatService) GetMessages(ctx context.Context, input usecase.ListMessagesInput) (*entity.MessagePage, error) {
	page := input.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("page must be at least 1")
	}

	perPage := input.PerPage
	if perPage == 0 {
		perPage = defaultPerPage
	}
	if perPage < 1 || perPage > maxPerPage {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("perPage must be between 1 and 30")
	}

	chat, err := srv.requireMembership(ctx, input.ChatName, input.UserID)
	if err != nil {
		return nil, err
	}

	// Fetch one extra row to learn whether older messages remain.
	offset := (page - 1) * perPage
	messages, err := srv.messageRepo.ListPage(ctx, chat.ID, offset, perPage+1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}

	result := &entity.MessagePage{
		Messages: messages,
		Page:     page,
		PerPage:  perPage,
	}
	if len(messages) > perPage {
		result.Messages = messages[:perPage]
		result.HasMore = true
	}

	return result, nil
}

// SendMessage persists a message in the room and returns it with the sender
// summary attached.
func (srv *chatService) SendMessage(ctx context.Context, input usecase.SendMessageInput) (*entity.Message, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, domainerrors.ErrMessageEmpty.WrapMessage("message content is empty")
	}

	chat, err := srv.requireMembership(ctx, input.ChatName, input.SenderID)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		ChatID:   chat.ID,
		SenderID: input.SenderID,
		Content:  input.Content,
	}
	// Inbox ordering follows the client-supplied timestamp when one is
	// given, so offline-composed messages land where they were written.
	if input.CreatedAt != nil {
		message.CreatedAt = *input.CreatedAt
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.MessageRepo().Create(ctx, message); err != nil {
			return errors.Wrap(err, "failed to create message")
		}

		// Sending also reads: the sender's own message never counts as
		// unread and bumps the room to the top of the chat list.
		chatRepo := repoFactory.ChatRepo()
		if err := chatRepo.Touch(ctx, chat.ID, message.CreatedAt); err != nil {
			return errors.Wrap(err, "failed to touch chat")
		}

		return errors.Wrap(
			chatRepo.UpsertReadMarker(ctx, chat.ID, input.SenderID, message.CreatedAt),
			"failed to advance read marker",
		)
	})
	if err != nil {
		return nil, err
	}

	if sender, err := srv.userRepo.FindByID(ctx, input.SenderID); err == nil {
		summary := entity.UserSummary{ID: sender.ID, Name: sender.Name}
		if sender.Profile != nil {
			summary.Picture = sender.Profile.Picture
		}
		message.Sender = &summary
	}

	srv.publishMessageEvent(ctx, chat, message)

	return message, nil
}

// SendMessages persists a batch of messages in the room within one
// transaction. This is the history-import path: membership is checked once
// and no push events are emitted for the imported rows.
func (srv *chatService) SendMessages(ctx context.Context, input usecase.SendMessagesInput) (int, error) {
	if len(input.Messages) == 0 {
		return 0, domainerrors.ErrValidationFailed.WrapMessage("message batch is empty")
	}
	for _, item := range input.Messages {
		if strings.TrimSpace(item.Content) == "" {
			return 0, domainerrors.ErrMessageEmpty.WrapMessage("message content is empty")
		}
	}

	chat, err := srv.requireMembership(ctx, input.ChatName, input.SenderID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	newest := now
	messages := make([]entity.Message, 0, len(input.Messages))
	for _, item := range input.Messages {
		createdAt := now
		if item.CreatedAt != nil {
			createdAt = *item.CreatedAt
		}
		if createdAt.After(newest) {
			newest = createdAt
		}
		messages = append(messages, entity.Message{
			ChatID:    chat.ID,
			SenderID:  input.SenderID,
			Content:   item.Content,
			CreatedAt: createdAt,
		})
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.MessageRepo().CreateBatch(ctx, messages); err != nil {
			return errors.Wrap(err, "failed to create messages")
		}

		chatRepo := repoFactory.ChatRepo()
		if err := chatRepo.Touch(ctx, chat.ID, newest); err != nil {
			return errors.Wrap(err, "failed to touch chat")
		}

		return errors.Wrap(
			chatRepo.UpsertReadMarker(ctx, chat.ID, input.SenderID, newest),
			"failed to advance read marker",
		)
	})
	if err != nil {
		return 0, err
	}

	srv.log(ctx).Info("Message batch ingested",
		slog.String("chat", chat.Name),
		slog.String("userID", input.SenderID.String()),
		slog.Int("count", len(messages)),
	)

	return len(messages), nil
}

// DeleteMessage removes a message permanently. Only the author may delete
// it.
func (srv *chatService) DeleteMessage(ctx context.Context, messageID, callerID uuid.UUID) error {
	message, err := srv.messageRepo.FindByID(ctx, messageID)
	if errors.Is(err, repository.ErrMessageNotFound) {
		return domainerrors.ErrMessageNotFound.WrapMessage("message not found")
	}
	if err != nil {
		return errors.Wrap(err, "failed to find message")
	}

	if message.SenderID != callerID {
		return domainerrors.ErrMessageOwnershipViolation.WrapMessage("only the author may delete a message")
	}

	if err := srv.messageRepo.Delete(ctx, messageID); err != nil {
		return errors.Wrap(err, "failed to delete message")
	}

	srv.log(ctx).Info("Message deleted",
		slog.String("messageID", messageID.String()),
		slog.String("userID", callerID.String()),
	)

	return nil
}

// CountNewMessages returns the caller's unread count for the room.
func (srv *chatService) CountNewMessages(ctx context.Context, chatName string, userID uuid.UUID) (int64, error) {
	chat, err := srv.requireMembership(ctx, chatName, userID)
	if err != nil {
		return 0, err
	}

	return srv.unreadCount(ctx, chat.ID, userID)
}

// MarkRead advances the caller's read marker so the room's unread count
// drops to zero.
func (srv *chatService) MarkRead(ctx context.Context, chatName string, userID uuid.UUID) error {
	chat, err := srv.requireMembership(ctx, chatName, userID)
	if err != nil {
		return err
	}

	// The marker must cover the newest message even when its timestamp
	// sits ahead of this server's clock.
	markedAt := time.Now()
	latest, err := srv.messageRepo.LatestCreatedAt(ctx, chat.ID)
	if err != nil {
		return errors.Wrap(err, "failed to find newest message")
	}
	if latest != nil && latest.After(markedAt) {
		markedAt = *latest
	}

	if err := srv.chatRepo.UpsertReadMarker(ctx, chat.ID, userID, markedAt); err != nil {
		return errors.Wrap(err, "failed to advance read marker")
	}

	return nil
}

// FollowingToChat lists the users the caller follows who do not yet share
// any room with the caller.
func (srv *chatService) FollowingToChat(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error) {
	following, err := srv.userRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list following")
	}

	partnerIDs, err := srv.chatRepo.ListPartnerIDs(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat partners")
	}

	partners := make(map[uuid.UUID]struct{}, len(partnerIDs))
	for _, partnerID := range partnerIDs {
		partners[partnerID] = struct{}{}
	}

	candidates := make([]entity.UserSummary, 0, len(following))
	for _, candidate := range following {
		if _, ok := partners[candidate.ID]; !ok {
			candidates = append(candidates, candidate)
		}
	}

	return candidates, nil
}

// InviteCandidates lists the users the caller follows who are not yet in
// the given room.
func (srv *chatService) InviteCandidates(ctx context.Context, chatName string, userID uuid.UUID) ([]entity.UserSummary, error) {
	chat, err := srv.requireMembership(ctx, chatName, userID)
	if err != nil {
		return nil, err
	}

	following, err := srv.userRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list following")
	}

	participants, err := srv.chatRepo.ListParticipants(ctx, chat.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list participants")
	}

	members := make(map[uuid.UUID]struct{}, len(participants))
	for _, participant := range participants {
		members[participant.ID] = struct{}{}
	}

	candidates := make([]entity.UserSummary, 0, len(following))
	for _, candidate := range following {
		if _, ok := members[candidate.ID]; !ok {
			candidates = append(candidates, candidate)
		}
	}

	return candidates, nil
}

// InviteQR renders the room's join link as a PNG QR code.
func (srv *chatService) InviteQR(ctx context.Context, chatName string, userID uuid.UUID) ([]byte, error) {
	chat, err := srv.requireMembership(ctx, chatName, userID)
	if err != nil {
		return nil, err
	}

	png, err := srv.qrcodeService.GenerateChatInviteQR(chat.Name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render invite QR code")
	}

	return png, nil
}

// requireMembership resolves the chat by name and checks that the user is a
// participant.
func (srv *chatService) requireMembership(ctx context.Context, chatName string, userID uuid.UUID) (*entity.Chat, error) {
	chat, err := srv.chatRepo.FindByName(ctx, chatName)
	if errors.Is(err, repository.ErrChatNotFound) {
		return nil, domainerrors.ErrChatNotFound.WrapMessage("chat not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find chat by name")
	}

	member, err := srv.chatRepo.IsParticipant(ctx, chat.ID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check chat membership")
	}
	if !member {
		return nil, domainerrors.ErrChatAccessDenied.WrapMessage("not a chat participant")
	}

	return chat, nil
}

func (srv *chatService) unreadCount(ctx context.Context, chatID, userID uuid.UUID) (int64, error) {
	marker, err := srv.chatRepo.ReadMarker(ctx, chatID, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read marker")
	}

	// Without a marker every message from the other participants counts.
	after := time.Time{}
	if marker != nil {
		after = marker.MarkedAt
	}

	count, err := srv.messageRepo.CountAfter(ctx, chatID, after, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread messages")
	}

	return count, nil
}

func (srv *chatService) publishMessageEvent(ctx context.Context, chat *entity.Chat, message *entity.Message) {
	event := &service.Event{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		Type:       service.EventChatMessageCreated,
		OccurredAt: time.Now(),
		Attributes: map[string]string{
			"chat":       chat.Name,
			"chat_id":    chat.ID.String(),
			"message_id": message.ID.String(),
			"sender_id":  message.SenderID.String(),
			"preview":    messagePreview(message.Content),
		},
	}
	if message.Sender != nil {
		event.Attributes["sender_name"] = message.Sender.Name
	}
	if err := srv.eventPublisher.PublishEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish event",
			slog.String("type", service.EventChatMessageCreated),
			slog.String("error", err.Error()),
		)
	}
}

// messagePreview trims a message body down to what fits in a push
// notification.
func messagePreview(content string) string {
	const maxPreview = 120

	runes := []rune(content)
	if len(runes) <= maxPreview {
		return content
	}

	return string(runes[:maxPreview]) + "…"
}
