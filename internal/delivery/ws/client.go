package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"meets/internal/infra/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 20
)

// inboundFrame is what a connected client sends over the socket.
type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Client is one websocket connection bound to a user inside a room.
type Client struct {
	room   *RoomHub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
	name   string

	onMessage func(client *Client, frame inboundFrame)
	logger    *slog.Logger
}

// readPump reads frames off the socket and hands chat messages to the
// gateway until the connection closes.
func (c *Client) readPump() {
	defer func() {
		c.room.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed",
					slog.String("chat", c.room.name),
					slog.String("user_id", c.userID.String()),
					slog.String("error", err.Error()))
			}

			return
		}

		metrics.WsMessagesTotal.Inc()

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Bare text frames count as messages too.
			frame = inboundFrame{Type: "message", Content: string(data)}
		}

		if c.onMessage != nil {
			c.onMessage(c, frame)
		}
	}
}

// writePump forwards queued payloads to the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
