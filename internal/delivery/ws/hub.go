// Package ws implements the websocket chat gateway: a hub of name-keyed
// rooms fanning messages out to connected clients.
package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"meets/internal/infra/metrics"
)

// Hub manages room-level sub-hubs, created lazily and safe for concurrent
// use.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*RoomHub
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*RoomHub)}
}

// GetRoom returns the room's sub-hub, or nil when the room has no live
// loop.
func (h *Hub) GetRoom(name string) *RoomHub {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.rooms[name]
}

// Join registers the client in the room's sub-hub, starting one on first
// use. The pending count keeps the loop alive between the handoff here and
// the register event, so a reaped room is never handed out.
func (h *Hub) Join(name string, client *Client) *RoomHub {
	h.mu.Lock()
	room := h.rooms[name]
	if room == nil {
		room = newRoomHub(h, name)
		h.rooms[name] = room
		go room.run()
	}
	room.pending++
	h.mu.Unlock()

	room.register <- client

	return room
}

// Online reports the number of connected clients in the room.
func (h *Hub) Online(name string) int {
	h.mu.RLock()
	room := h.rooms[name]
	h.mu.RUnlock()
	if room == nil {
		return 0
	}

	return room.Online()
}

// RoomHub fans messages out to every client connected to one room.
type RoomHub struct {
	hub        *Hub
	name       string
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	online     int32

	// pending counts clients handed to Join but not yet registered.
	// Guarded by hub.mu.
	pending int
}

func newRoomHub(hub *Hub, name string) *RoomHub {
	return &RoomHub{
		hub:        hub,
		name:       name,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

// presenceEvent announces a client joining or leaving the room.
type presenceEvent struct {
	Type     string `json:"type"`
	ChatName string `json:"chatName"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Online   int    `json:"online"`
}

func (rh *RoomHub) run() {
	for {
		select {
		case client := <-rh.register:
			rh.hub.mu.Lock()
			rh.pending--
			rh.hub.mu.Unlock()
			rh.clients[client] = struct{}{}
			atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
			metrics.WsConnections.Inc()
			rh.fanOut(rh.presencePayload("join", client))
			// The join fan-out may already have evicted the client.
			if len(rh.clients) == 0 && rh.tryReap() {
				return
			}

		case client := <-rh.unregister:
			if _, ok := rh.clients[client]; !ok {
				continue
			}
			delete(rh.clients, client)
			close(client.send)
			atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
			metrics.WsConnections.Dec()
			rh.fanOut(rh.presencePayload("leave", client))
			if len(rh.clients) == 0 && rh.tryReap() {
				return
			}

		case payload := <-rh.broadcast:
			rh.fanOut(payload)
			if len(rh.clients) == 0 && rh.tryReap() {
				return
			}
		}
	}
}

// tryReap removes the empty room from the hub and stops the loop. A client
// mid-handoff in Join keeps the loop alive.
func (rh *RoomHub) tryReap() bool {
	rh.hub.mu.Lock()
	defer rh.hub.mu.Unlock()
	if rh.pending > 0 {
		return false
	}
	delete(rh.hub.rooms, rh.name)

	return true
}

// fanOut delivers the payload to every client, dropping clients whose send
// buffer is full.
func (rh *RoomHub) fanOut(payload []byte) {
	if payload == nil {
		return
	}
	for client := range rh.clients {
		select {
		case client.send <- payload:
		default:
			close(client.send)
			delete(rh.clients, client)
			metrics.WsConnections.Dec()
		}
	}
	atomic.StoreInt32(&rh.online, int32(len(rh.clients)))
}

func (rh *RoomHub) presencePayload(eventType string, client *Client) []byte {
	payload, err := json.Marshal(presenceEvent{
		Type:     eventType,
		ChatName: rh.name,
		UserID:   client.userID.String(),
		Name:     client.name,
		Online:   len(rh.clients),
	})
	if err != nil {
		return nil
	}

	return payload
}

// Broadcast queues a payload for delivery to every client in the room.
func (rh *RoomHub) Broadcast(payload []byte) {
	rh.broadcast <- payload
}

// Online reports the number of connected clients.
func (rh *RoomHub) Online() int {
	return int(atomic.LoadInt32(&rh.online))
}
