package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"meets/internal/domain/service"
	"meets/internal/usecase"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GatewayParams collects the gateway's dependencies for fx injection.
type GatewayParams struct {
	fx.In

	ChatUsecase  usecase.ChatUsecase
	TokenService service.TokenService
	Logger       *slog.Logger
}

// Gateway upgrades chat connections and bridges socket frames to the chat
// usecase.
type Gateway struct {
	hub    *Hub
	chatUc usecase.ChatUsecase
	tokens service.TokenService
	logger *slog.Logger
}

// NewGateway creates the websocket gateway.
func NewGateway(params GatewayParams) *Gateway {
	return &Gateway{
		hub:    NewHub(),
		chatUc: params.ChatUsecase,
		tokens: params.TokenService,
		logger: params.Logger,
	}
}

// messageEvent is the frame broadcast to a room when a message lands.
type messageEvent struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	ChatName   string    `json:"chatName"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Serve handles GET /ws?chat=<name>&token=<access token>. The caller joins
// the room before the upgrade, so a bad room name or token fails as a
// plain HTTP error instead of a dropped socket.
func (g *Gateway) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token = strings.TrimPrefix(header, "Bearer ")
	}

	claims, err := g.tokens.ValidateAccessToken(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid access token")
	}

	chatName := strings.TrimSpace(c.QueryParam("chat"))
	if chatName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing chat name")
	}

	ctx := c.Request().Context()
	chat, err := g.chatUc.JoinChat(ctx, chatName, claims.UserID)
	if err != nil {
		return err
	}

	displayName := claims.Email
	for _, participant := range chat.Participants {
		if participant.ID == claims.UserID {
			displayName = participant.Name

			break
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, 256),
		userID:    claims.UserID,
		name:      displayName,
		onMessage: g.handleInbound,
		logger:    g.logger,
	}

	client.room = g.hub.Join(chat.Name, client)

	go client.writePump()
	go client.readPump()

	return nil
}

// handleInbound persists a chat frame and fans the stored message out to
// the room.
func (g *Gateway) handleInbound(client *Client, frame inboundFrame) {
	if frame.Type != "" && frame.Type != "message" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message, err := g.chatUc.SendMessage(ctx, usecase.SendMessageInput{
		ChatName: client.room.name,
		SenderID: client.userID,
		Content:  frame.Content,
	})
	if err != nil {
		g.logger.Warn("websocket message rejected",
			slog.String("chat", client.room.name),
			slog.String("user_id", client.userID.String()),
			slog.String("error", err.Error()))

		return
	}

	senderName := client.name
	if message.Sender != nil {
		senderName = message.Sender.Name
	}

	payload, err := json.Marshal(messageEvent{
		Type:       "message",
		ID:         message.ID.String(),
		ChatName:   client.room.name,
		SenderID:   message.SenderID.String(),
		SenderName: senderName,
		Content:    message.Content,
		CreatedAt:  message.CreatedAt,
	})
	if err != nil {
		return
	}

	client.room.Broadcast(payload)
}
