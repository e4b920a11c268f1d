package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{
		send:   make(chan []byte, 16),
		userID: uuid.New(),
		name:   "tester",
	}
}

func join(hub *Hub, name string, client *Client) *RoomHub {
	client.room = hub.Join(name, client)

	return client.room
}

func waitForOnline(t *testing.T, room *RoomHub, want int) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if room.Online() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, want, room.Online())
}

func TestHubJoinReusesRoom(t *testing.T) {
	hub := NewHub()

	room := join(hub, "lobby", newTestClient())
	again := join(hub, "lobby", newTestClient())
	other := join(hub, "random", newTestClient())

	assert.Same(t, room, again)
	assert.NotSame(t, room, other)
	assert.Same(t, room, hub.GetRoom("lobby"))
}

func TestRoomHubRegisterAnnouncesPresence(t *testing.T) {
	hub := NewHub()

	client := newTestClient()
	room := join(hub, "lobby", client)
	waitForOnline(t, room, 1)

	select {
	case payload := <-client.send:
		var event presenceEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, "join", event.Type)
		assert.Equal(t, "lobby", event.ChatName)
		assert.Equal(t, client.userID.String(), event.UserID)
		assert.Equal(t, 1, event.Online)
	case <-time.After(time.Second):
		t.Fatal("no join event received")
	}
}

func TestRoomHubBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub()

	first := newTestClient()
	second := newTestClient()
	room := join(hub, "lobby", first)
	join(hub, "lobby", second)
	waitForOnline(t, room, 2)

	// Drain presence events so the broadcast is the next frame.
	<-first.send
	<-first.send
	<-second.send

	room.Broadcast([]byte(`{"type":"message","content":"hello"}`))

	for _, client := range []*Client{first, second} {
		select {
		case payload := <-client.send:
			assert.JSONEq(t, `{"type":"message","content":"hello"}`, string(payload))
		case <-time.After(time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestRoomHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()

	client := newTestClient()
	room := join(hub, "lobby", client)
	waitForOnline(t, room, 1)

	room.unregister <- client
	waitForOnline(t, room, 0)

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-client.send:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("send channel never closed")
		}
	}
}

func TestRoomHubDropsStuckClient(t *testing.T) {
	hub := NewHub()

	healthy := newTestClient()
	room := join(hub, "lobby", healthy)
	waitForOnline(t, room, 1)
	<-healthy.send

	stuck := newTestClient()
	stuck.send = make(chan []byte) // unbuffered, nobody reading
	join(hub, "lobby", stuck)

	// The join fan-out already finds the stuck client unable to accept
	// frames and evicts it, leaving only the healthy client.
	waitForOnline(t, room, 1)

	select {
	case _, open := <-stuck.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("stuck client never evicted")
	}
}

func TestHubReapsEmptyRoom(t *testing.T) {
	hub := NewHub()

	client := newTestClient()
	room := join(hub, "lobby", client)
	waitForOnline(t, room, 1)

	room.unregister <- client

	require.Eventually(t, func() bool {
		return hub.GetRoom("lobby") == nil
	}, time.Second, 5*time.Millisecond, "empty room never removed")

	// A later join gets a fresh room with a live loop.
	revived := newTestClient()
	fresh := join(hub, "lobby", revived)
	assert.NotSame(t, room, fresh)
	waitForOnline(t, fresh, 1)
}
