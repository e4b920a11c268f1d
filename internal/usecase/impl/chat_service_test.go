package impl

import (
	"context"
	"testing"
	"time"

	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	domainsvc "meets/internal/domain/service"
	mockRepo "meets/internal/mocks/repository"
	mockSvc "meets/internal/mocks/service"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// chatServiceFixtures holds all test dependencies for chat service tests.
type chatServiceFixtures struct {
	service        usecase.ChatUsecase
	txManager      *mockRepo.MockTransactionManager
	chatRepo       *mockRepo.MockChatRepository
	messageRepo    *mockRepo.MockMessageRepository
	userRepo       *mockRepo.MockUserRepository
	qrcodeService  *mockSvc.MockQRCodeService
	eventPublisher *mockSvc.MockEventPublisher
}

func createTestChatService(t *testing.T) chatServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	chatRepo := mockRepo.NewMockChatRepository(t)
	messageRepo := mockRepo.NewMockMessageRepository(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	qrcodeService := mockSvc.NewMockQRCodeService(t)
	eventPublisher := mockSvc.NewMockEventPublisher(t)

	service := NewChatService(ChatServiceParams{
		TxManager:      txManager,
		ChatRepo:       chatRepo,
		MessageRepo:    messageRepo,
		UserRepo:       userRepo,
		QRCodeService:  qrcodeService,
		EventPublisher: eventPublisher,
		Logger:         newDiscardLogger(),
	})

	return chatServiceFixtures{
		service:        service,
		txManager:      txManager,
		chatRepo:       chatRepo,
		messageRepo:    messageRepo,
		userRepo:       userRepo,
		qrcodeService:  qrcodeService,
		eventPublisher: eventPublisher,
	}
}

func memberChat(name string) *entity.Chat {
	return &entity.Chat{ID: uuid.New(), Name: name}
}

// expectMembership wires the FindByName and IsParticipant calls every
// room-scoped operation starts with.
func expectMembership(fix chatServiceFixtures, ctx context.Context, chat *entity.Chat, userID uuid.UUID) {
	fix.chatRepo.On("FindByName", ctx, chat.Name).Return(chat, nil)
	fix.chatRepo.On("IsParticipant", ctx, chat.ID, userID).Return(true, nil)
}

func TestChatService_CreateChat_Success(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	creatorID := uuid.New()
	partnerID := uuid.New()
	chatID := uuid.New()

	fix.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(repository.RepositoryFactory) error)

			factory := mockRepo.NewMockRepositoryFactory(t)
			txChatRepo := mockRepo.NewMockChatRepository(t)
			factory.On("ChatRepo").Return(txChatRepo)

			txChatRepo.On("Create", ctx, mock.MatchedBy(func(chat *entity.Chat) bool {
				return chat.Name == "gophers"
			})).Run(func(args mock.Arguments) {
				args.Get(1).(*entity.Chat).ID = chatID
			}).Return(nil)
			txChatRepo.On("AddParticipant", ctx, chatID, creatorID).Return(nil)
			txChatRepo.On("AddParticipant", ctx, chatID, partnerID).Return(nil)

			require.NoError(t, fn(factory))
		}).
		Return(nil)
	fix.chatRepo.On("ListParticipants", ctx, chatID).Return([]entity.UserSummary{
		{ID: creatorID, Name: "Me"},
		{ID: partnerID, Name: "Partner"},
	}, nil)

	chat, err := fix.service.CreateChat(ctx, usecase.CreateChatInput{
		Name:           "gophers",
		CreatorID:      creatorID,
		ParticipantIDs: []uuid.UUID{creatorID, partnerID},
	})

	require.NoError(t, err)
	assert.Equal(t, chatID, chat.ID)
	assert.Len(t, chat.Participants, 2)
}

func TestChatService_CreateChat_NameTaken(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	creatorID := uuid.New()
	partnerID := uuid.New()

	fix.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(repository.RepositoryFactory) error)

			factory := mockRepo.NewMockRepositoryFactory(t)
			txChatRepo := mockRepo.NewMockChatRepository(t)
			factory.On("ChatRepo").Return(txChatRepo)
			txChatRepo.On("Create", ctx, mock.AnythingOfType("*entity.Chat")).
				Return(repository.ErrChatExists)

			assert.True(t, errors.Is(fn(factory), domainerrors.ErrChatAlreadyExists))
		}).
		Return(domainerrors.ErrChatAlreadyExists)

	chat, err := fix.service.CreateChat(ctx, usecase.CreateChatInput{
		Name:           "gophers",
		CreatorID:      creatorID,
		ParticipantIDs: []uuid.UUID{creatorID, partnerID},
	})

	assert.Nil(t, chat)
	assert.True(t, errors.Is(err, domainerrors.ErrChatAlreadyExists))
}

func TestChatService_CreateChat_RejectsBadParticipants(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()
	creatorID := uuid.New()

	tests := []struct {
		name         string
		participants []uuid.UUID
		wantErr      error
	}{
		{"one participant", []uuid.UUID{creatorID}, domainerrors.ErrValidationFailed},
		{"three participants", []uuid.UUID{creatorID, uuid.New(), uuid.New()}, domainerrors.ErrValidationFailed},
		{"same user twice", []uuid.UUID{creatorID, creatorID}, domainerrors.ErrValidationFailed},
		{"creator excluded", []uuid.UUID{uuid.New(), uuid.New()}, domainerrors.ErrChatAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat, err := fix.service.CreateChat(ctx, usecase.CreateChatInput{
				Name:           "gophers",
				CreatorID:      creatorID,
				ParticipantIDs: tt.participants,
			})

			assert.Nil(t, chat)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestChatService_JoinChat_ExistingRoom(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()
	participants := []entity.UserSummary{{ID: userID, Name: "Alice"}}

	fix.chatRepo.On("FindByName", ctx, "gophers").Return(chat, nil)
	fix.chatRepo.On("AddParticipant", ctx, chat.ID, userID).Return(nil)
	fix.chatRepo.On("ListParticipants", ctx, chat.ID).Return(participants, nil)

	joined, err := fix.service.JoinChat(ctx, "gophers", userID)

	require.NoError(t, err)
	assert.Equal(t, chat.ID, joined.ID)
	assert.Equal(t, participants, joined.Participants)
}

func TestChatService_JoinChat_CreatesRoom(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()
	userID := uuid.New()

	fix.chatRepo.On("FindByName", ctx, "new-room").Return(nil, repository.ErrChatNotFound)
	fix.chatRepo.On("Create", ctx, mock.MatchedBy(func(chat *entity.Chat) bool {
		return chat.Name == "new-room"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Chat).ID = uuid.New()
	}).Return(nil)
	fix.chatRepo.On("AddParticipant", ctx, mock.AnythingOfType("uuid.UUID"), userID).Return(nil)
	fix.chatRepo.On("ListParticipants", ctx, mock.AnythingOfType("uuid.UUID")).
		Return([]entity.UserSummary{{ID: userID}}, nil)

	joined, err := fix.service.JoinChat(ctx, "new-room", userID)

	require.NoError(t, err)
	assert.Equal(t, "new-room", joined.Name)
}

func TestChatService_JoinChat_EmptyName(t *testing.T) {
	fix := createTestChatService(t)

	joined, err := fix.service.JoinChat(context.Background(), "  ", uuid.New())

	assert.Nil(t, joined)
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestChatService_GetChats(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()
	chat := entity.Chat{ID: uuid.New(), Name: "gophers"}
	marker := time.Now().Add(-time.Hour)

	fix.chatRepo.On("ListForUser", ctx, userID).Return([]entity.Chat{chat}, nil)
	fix.chatRepo.On("ListParticipants", ctx, chat.ID).Return([]entity.UserSummary{
		{ID: userID, Name: "Me"},
		{ID: otherID, Name: "Other"},
	}, nil)
	fix.messageRepo.On("ListRecent", ctx, chat.ID, recentMessageWindow).
		Return([]entity.Message{{ID: uuid.New(), ChatID: chat.ID}}, nil)
	fix.messageRepo.On("CountByChat", ctx, chat.ID).Return(int64(42), nil)
	fix.chatRepo.On("ReadMarker", ctx, chat.ID, userID).
		Return(&entity.ChatRead{ChatID: chat.ID, UserID: userID, MarkedAt: marker}, nil)
	fix.messageRepo.On("CountAfter", ctx, chat.ID, marker, userID).Return(int64(4), nil)

	summaries, err := fix.service.GetChats(ctx, userID)

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(42), summaries[0].MessageCount)
	assert.Equal(t, int64(4), summaries[0].UnreadCount)
	require.Len(t, summaries[0].Others, 1)
	assert.Equal(t, otherID, summaries[0].Others[0].ID)
}

func TestChatService_GetChats_NoMarkerCountsFromBeginning(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	userID := uuid.New()
	chat := entity.Chat{ID: uuid.New(), Name: "gophers"}

	fix.chatRepo.On("ListForUser", ctx, userID).Return([]entity.Chat{chat}, nil)
	fix.chatRepo.On("ListParticipants", ctx, chat.ID).Return([]entity.UserSummary{}, nil)
	fix.messageRepo.On("ListRecent", ctx, chat.ID, recentMessageWindow).Return([]entity.Message{}, nil)
	fix.messageRepo.On("CountByChat", ctx, chat.ID).Return(int64(9), nil)
	fix.chatRepo.On("ReadMarker", ctx, chat.ID, userID).Return(nil, nil)
	fix.messageRepo.On("CountAfter", ctx, chat.ID, time.Time{}, userID).Return(int64(9), nil)

	summaries, err := fix.service.GetChats(ctx, userID)

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(9), summaries[0].UnreadCount)
}

func TestChatService_GetMessages_Pagination(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()
	expectMembership(fix, ctx, chat, userID)

	// Three rows back for a two-row page means an older page remains.
	now := time.Now()
	rows := []entity.Message{
		{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Minute)},
		{ID: uuid.New(), CreatedAt: now.Add(-3 * time.Minute)},
		{ID: uuid.New(), CreatedAt: now.Add(-4 * time.Minute)},
	}
	fix.messageRepo.On("ListPage", ctx, chat.ID, 2, 3).Return(rows, nil)

	page, err := fix.service.GetMessages(ctx, usecase.ListMessagesInput{
		ChatName: chat.Name,
		UserID:   userID,
		Page:     2,
		PerPage:  2,
	})

	require.NoError(t, err)
	assert.True(t, page.HasMore)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PerPage)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, rows[0].ID, page.Messages[0].ID)
}

func TestChatService_GetMessages_LastPage(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()
	expectMembership(fix, ctx, chat, userID)

	rows := []entity.Message{{ID: uuid.New(), CreatedAt: time.Now()}}
	fix.messageRepo.On("ListPage", ctx, chat.ID, 0, defaultPerPage+1).
		Return(rows, nil)

	page, err := fix.service.GetMessages(ctx, usecase.ListMessagesInput{
		ChatName: chat.Name,
		UserID:   userID,
	})

	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPerPage, page.PerPage)
	assert.Len(t, page.Messages, 1)
}

func TestChatService_GetMessages_PerPageBounds(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()
	userID := uuid.New()

	for _, perPage := range []int{-1, maxPerPage + 1} {
		page, err := fix.service.GetMessages(ctx, usecase.ListMessagesInput{
			ChatName: "gophers",
			UserID:   userID,
			PerPage:  perPage,
		})

		assert.Nil(t, page)
		assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
	}

	page, err := fix.service.GetMessages(ctx, usecase.ListMessagesInput{
		ChatName: "gophers",
		UserID:   userID,
		Page:     -1,
	})

	assert.Nil(t, page)
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestChatService_GetMessages_NotParticipant(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()

	fix.chatRepo.On("FindByName", ctx, chat.Name).Return(chat, nil)
	fix.chatRepo.On("IsParticipant", ctx, chat.ID, userID).Return(false, nil)

	page, err := fix.service.GetMessages(ctx, usecase.ListMessagesInput{
		ChatName: chat.Name,
		UserID:   userID,
	})

	assert.Nil(t, page)
	assert.True(t, errors.Is(err, domainerrors.ErrChatAccessDenied))
}

func TestChatService_SendMessage_Success(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	senderID := uuid.New()
	expectMembership(fix, ctx, chat, senderID)

	fix.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(repository.RepositoryFactory) error)

			factory := mockRepo.NewMockRepositoryFactory(t)
			txMessageRepo := mockRepo.NewMockMessageRepository(t)
			txChatRepo := mockRepo.NewMockChatRepository(t)
			factory.On("MessageRepo").Return(txMessageRepo)
			factory.On("ChatRepo").Return(txChatRepo)

			txMessageRepo.On("Create", ctx, mock.MatchedBy(func(message *entity.Message) bool {
				return message.ChatID == chat.ID && message.Content == "hello"
			})).Run(func(args mock.Arguments) {
				message := args.Get(1).(*entity.Message)
				message.ID = uuid.New()
				message.CreatedAt = time.Now()
			}).Return(nil)
			txChatRepo.On("Touch", ctx, chat.ID, mock.AnythingOfType("time.Time")).Return(nil)
			txChatRepo.On("UpsertReadMarker", ctx, chat.ID, senderID, mock.AnythingOfType("time.Time")).
				Return(nil)

			require.NoError(t, fn(factory))
		}).
		Return(nil)
	fix.userRepo.On("FindByID", ctx, senderID).
		Return(&entity.User{ID: senderID, Name: "gopher"}, nil)
	fix.eventPublisher.On("PublishEvent", ctx, mock.MatchedBy(func(event *domainsvc.Event) bool {
		return event.Type == domainsvc.EventChatMessageCreated &&
			event.Attributes["chat"] == chat.Name &&
			event.Attributes["preview"] == "hello" &&
			event.Attributes["sender_name"] == "gopher"
	})).Return(nil)

	message, err := fix.service.SendMessage(ctx, usecase.SendMessageInput{
		ChatName: chat.Name,
		SenderID: senderID,
		Content:  "hello",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, message.ID)
	require.NotNil(t, message.Sender)
	assert.Equal(t, "gopher", message.Sender.Name)
}

func TestChatService_SendMessage_KeepsClientTimestamp(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	senderID := uuid.New()
	expectMembership(fix, ctx, chat, senderID)

	// Composed offline an hour ago.
	createdAt := time.Now().Add(-time.Hour).Truncate(time.Second)

	fix.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(repository.RepositoryFactory) error)

			factory := mockRepo.NewMockRepositoryFactory(t)
			txMessageRepo := mockRepo.NewMockMessageRepository(t)
			txChatRepo := mockRepo.NewMockChatRepository(t)
			factory.On("MessageRepo").Return(txMessageRepo)
			factory.On("ChatRepo").Return(txChatRepo)

			txMessageRepo.On("Create", ctx, mock.MatchedBy(func(message *entity.Message) bool {
				return message.CreatedAt.Equal(createdAt)
			})).Run(func(args mock.Arguments) {
				args.Get(1).(*entity.Message).ID = uuid.New()
			}).Return(nil)
			txChatRepo.On("Touch", ctx, chat.ID, createdAt).Return(nil)
			txChatRepo.On("UpsertReadMarker", ctx, chat.ID, senderID, createdAt).Return(nil)

			require.NoError(t, fn(factory))
		}).
		Return(nil)
	fix.userRepo.On("FindByID", ctx, senderID).
		Return(&entity.User{ID: senderID, Name: "gopher"}, nil)
	fix.eventPublisher.On("PublishEvent", ctx, mock.AnythingOfType("*service.Event")).Return(nil)

	message, err := fix.service.SendMessage(ctx, usecase.SendMessageInput{
		ChatName:  chat.Name,
		SenderID:  senderID,
		Content:   "sent it on the plane",
		CreatedAt: &createdAt,
	})

	require.NoError(t, err)
	assert.True(t, message.CreatedAt.Equal(createdAt))
}

func TestChatService_SendMessage_EmptyContent(t *testing.T) {
	fix := createTestChatService(t)

	message, err := fix.service.SendMessage(context.Background(), usecase.SendMessageInput{
		ChatName: "gophers",
		SenderID: uuid.New(),
		Content:  "   ",
	})

	assert.Nil(t, message)
	assert.True(t, errors.Is(err, domainerrors.ErrMessageEmpty))
}

func TestChatService_SendMessages_SingleTransaction(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	senderID := uuid.New()
	expectMembership(fix, ctx, chat, senderID)

	// Outbox flushed out of order; the newest timestamp wins the marker.
	older := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	newer := time.Now().Add(-time.Hour).Truncate(time.Second)

	fix.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(repository.RepositoryFactory) error)

			factory := mockRepo.NewMockRepositoryFactory(t)
			txMessageRepo := mockRepo.NewMockMessageRepository(t)
			txChatRepo := mockRepo.NewMockChatRepository(t)
			factory.On("MessageRepo").Return(txMessageRepo)
			factory.On("ChatRepo").Return(txChatRepo)

			txMessageRepo.On("CreateBatch", ctx, mock.MatchedBy(func(messages []entity.Message) bool {
				return len(messages) == 2 &&
					messages[0].ChatID == chat.ID &&
					messages[0].SenderID == senderID &&
					messages[0].CreatedAt.Equal(newer) &&
					messages[1].CreatedAt.Equal(older)
			})).Return(nil)
			txChatRepo.On("Touch", ctx, chat.ID, newer).Return(nil)
			txChatRepo.On("UpsertReadMarker", ctx, chat.ID, senderID, newer).Return(nil)

			require.NoError(t, fn(factory))
		}).
		Return(nil)

	count, err := fix.service.SendMessages(ctx, usecase.SendMessagesInput{
		ChatName: chat.Name,
		SenderID: senderID,
		Messages: []usecase.BatchMessageInput{
			{Content: "second", CreatedAt: &newer},
			{Content: "first", CreatedAt: &older},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	fix.chatRepo.AssertNumberOfCalls(t, "FindByName", 1)
	fix.chatRepo.AssertNumberOfCalls(t, "IsParticipant", 1)
}

func TestChatService_SendMessages_EmptyBatch(t *testing.T) {
	fix := createTestChatService(t)

	count, err := fix.service.SendMessages(context.Background(), usecase.SendMessagesInput{
		ChatName: "gophers",
		SenderID: uuid.New(),
	})

	assert.Zero(t, count)
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestChatService_SendMessages_BlankEntry(t *testing.T) {
	fix := createTestChatService(t)

	count, err := fix.service.SendMessages(context.Background(), usecase.SendMessagesInput{
		ChatName: "gophers",
		SenderID: uuid.New(),
		Messages: []usecase.BatchMessageInput{
			{Content: "fine"},
			{Content: "   "},
		},
	})

	assert.Zero(t, count)
	assert.True(t, errors.Is(err, domainerrors.ErrMessageEmpty))
}

func TestChatService_SendMessages_NotParticipant(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	outsiderID := uuid.New()
	fix.chatRepo.On("FindByName", ctx, chat.Name).Return(chat, nil)
	fix.chatRepo.On("IsParticipant", ctx, chat.ID, outsiderID).Return(false, nil)

	count, err := fix.service.SendMessages(ctx, usecase.SendMessagesInput{
		ChatName: chat.Name,
		SenderID: outsiderID,
		Messages: []usecase.BatchMessageInput{{Content: "hello"}},
	})

	assert.Zero(t, count)
	assert.True(t, errors.Is(err, domainerrors.ErrChatAccessDenied))
}

func TestChatService_MarkRead_CoversNewestMessage(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()
	expectMembership(fix, ctx, chat, userID)

	// The newest message sits ahead of this server's clock.
	latest := time.Now().Add(time.Minute)
	fix.messageRepo.On("LatestCreatedAt", ctx, chat.ID).Return(&latest, nil)
	fix.chatRepo.On("UpsertReadMarker", ctx, chat.ID, userID, latest).Return(nil)

	require.NoError(t, fix.service.MarkRead(ctx, chat.Name, userID))
}

func TestChatService_MarkRead_EmptyRoom(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()
	expectMembership(fix, ctx, chat, userID)

	fix.messageRepo.On("LatestCreatedAt", ctx, chat.ID).Return(nil, nil)
	fix.chatRepo.On("UpsertReadMarker", ctx, chat.ID, userID, mock.AnythingOfType("time.Time")).
		Return(nil)

	require.NoError(t, fix.service.MarkRead(ctx, chat.Name, userID))
}

func TestChatService_DeleteMessage_Success(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	callerID := uuid.New()
	message := &entity.Message{ID: uuid.New(), SenderID: callerID, Content: "oops"}

	fix.messageRepo.On("FindByID", ctx, message.ID).Return(message, nil)
	fix.messageRepo.On("Delete", ctx, message.ID).Return(nil)

	require.NoError(t, fix.service.DeleteMessage(ctx, message.ID, callerID))
}

func TestChatService_DeleteMessage_NotAuthor(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	message := &entity.Message{ID: uuid.New(), SenderID: uuid.New()}
	fix.messageRepo.On("FindByID", ctx, message.ID).Return(message, nil)

	err := fix.service.DeleteMessage(ctx, message.ID, uuid.New())

	assert.True(t, errors.Is(err, domainerrors.ErrMessageOwnershipViolation))
}

func TestChatService_DeleteMessage_NotFound(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	messageID := uuid.New()
	fix.messageRepo.On("FindByID", ctx, messageID).Return(nil, repository.ErrMessageNotFound)

	err := fix.service.DeleteMessage(ctx, messageID, uuid.New())

	assert.True(t, errors.Is(err, domainerrors.ErrMessageNotFound))
}

func TestChatService_CountNewMessages(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()
	marker := time.Now()
	expectMembership(fix, ctx, chat, userID)

	fix.chatRepo.On("ReadMarker", ctx, chat.ID, userID).
		Return(&entity.ChatRead{ChatID: chat.ID, UserID: userID, MarkedAt: marker}, nil)
	fix.messageRepo.On("CountAfter", ctx, chat.ID, marker, userID).Return(int64(0), nil)

	count, err := fix.service.CountNewMessages(ctx, chat.Name, userID)

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChatService_CountNewMessages_NotParticipant(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()

	fix.chatRepo.On("FindByName", ctx, chat.Name).Return(chat, nil)
	fix.chatRepo.On("IsParticipant", ctx, chat.ID, userID).Return(false, nil)

	_, err := fix.service.CountNewMessages(ctx, chat.Name, userID)

	assert.True(t, errors.Is(err, domainerrors.ErrChatAccessDenied))
}

func TestChatService_FollowingToChat_SkipsExistingPartners(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	userID := uuid.New()
	partnerID := uuid.New()
	candidateID := uuid.New()

	fix.userRepo.On("ListFollowing", ctx, userID).Return([]entity.UserSummary{
		{ID: partnerID, Name: "Already Chatting"},
		{ID: candidateID, Name: "Candidate"},
	}, nil)
	fix.chatRepo.On("ListPartnerIDs", ctx, userID).Return([]uuid.UUID{partnerID}, nil)

	candidates, err := fix.service.FollowingToChat(ctx, userID)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, candidateID, candidates[0].ID)
}

func TestChatService_InviteCandidates_FiltersMembers(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()
	memberID := uuid.New()
	candidateID := uuid.New()
	expectMembership(fix, ctx, chat, userID)

	fix.userRepo.On("ListFollowing", ctx, userID).Return([]entity.UserSummary{
		{ID: memberID, Name: "Already In"},
		{ID: candidateID, Name: "Candidate"},
	}, nil)
	fix.chatRepo.On("ListParticipants", ctx, chat.ID).Return([]entity.UserSummary{
		{ID: userID}, {ID: memberID},
	}, nil)

	candidates, err := fix.service.InviteCandidates(ctx, chat.Name, userID)

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, candidateID, candidates[0].ID)
}

func TestChatService_InviteQR(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	chat := memberChat("gophers")
	userID := uuid.New()
	expectMembership(fix, ctx, chat, userID)

	fix.qrcodeService.On("GenerateChatInviteQR", chat.Name).Return([]byte{0x89, 0x50}, nil)

	png, err := fix.service.InviteQR(ctx, chat.Name, userID)

	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestChatService_InviteQR_ChatNotFound(t *testing.T) {
	fix := createTestChatService(t)
	ctx := context.Background()

	fix.chatRepo.On("FindByName", ctx, "missing").Return(nil, repository.ErrChatNotFound)

	png, err := fix.service.InviteQR(ctx, "missing", uuid.New())

	assert.Nil(t, png)
	assert.True(t, errors.Is(err, domainerrors.ErrChatNotFound))
}
