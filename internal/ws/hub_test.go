package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-chat-service/internal/models"
)

func recvEvent(t *testing.T, s *Session) models.RoomEvent {
	t.Helper()
	select {
	case payload, ok := <-s.Outbound():
		require.True(t, ok, "session queue closed")
		var event models.RoomEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return models.RoomEvent{}
	}
}

func requireClosed(t *testing.T, s *Session) {
	t.Helper()
	for {
		select {
		case _, ok := <-s.Outbound():
			if !ok {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("session queue never closed")
		}
	}
}

func newRegisteredSession(h *Hub, userID int) *Session {
	s := NewSession(nil, userID)
	h.Register(s)
	return s
}

func TestSubscribeAnnouncesJoinToEveryone(t *testing.T) {
	hub := NewHub()

	s1 := newRegisteredSession(hub, 1)
	hub.Subscribe(s1, 10)
	first := recvEvent(t, s1)
	require.Equal(t, EventJoinRoom, first.Type)
	assert.Equal(t, 1, first.UserID)

	s2 := newRegisteredSession(hub, 2)
	hub.Subscribe(s2, 10)

	forExisting := recvEvent(t, s1)
	forJoiner := recvEvent(t, s2)
	assert.Equal(t, EventJoinRoom, forExisting.Type)
	assert.Equal(t, 2, forExisting.UserID)
	assert.Equal(t, EventJoinRoom, forJoiner.Type)
	assert.Equal(t, 2, forJoiner.UserID)
}

func TestSubscribeIgnoresUnregisteredSession(t *testing.T) {
	hub := NewHub()
	s := NewSession(nil, 1)

	hub.Subscribe(s, 10)

	assert.Equal(t, 0, hub.RoomSessions(10))
}

func TestPublishScopedToRoom(t *testing.T) {
	hub := NewHub()

	s1 := newRegisteredSession(hub, 1)
	hub.Subscribe(s1, 10)
	recvEvent(t, s1)

	s2 := newRegisteredSession(hub, 2)
	hub.Subscribe(s2, 20)
	recvEvent(t, s2)

	hub.Publish(10, models.RoomEvent{Type: EventSendMessage, UserID: 1})

	got := recvEvent(t, s1)
	assert.Equal(t, EventSendMessage, got.Type)

	select {
	case payload := <-s2.Outbound():
		t.Fatalf("unexpected delivery to other room: %s", payload)
	default:
	}
}

func TestPublishReachesAllRoomSubscribers(t *testing.T) {
	hub := NewHub()

	sessions := make([]*Session, 0, 3)
	for i := 1; i <= 3; i++ {
		s := newRegisteredSession(hub, i)
		hub.Subscribe(s, 10)
		sessions = append(sessions, s)
	}
	// Drain the join announcements before the real broadcast. A session
	// sees its own join plus one per later joiner.
	for i, s := range sessions {
		for j := i; j < len(sessions); j++ {
			recvEvent(t, s)
		}
	}

	hub.Publish(10, models.RoomEvent{Type: EventSendMessage, UserID: 1})
	for _, s := range sessions {
		got := recvEvent(t, s)
		assert.Equal(t, EventSendMessage, got.Type)
	}
}

func TestUnregisterRemovesFromAllRooms(t *testing.T) {
	hub := NewHub()

	s := newRegisteredSession(hub, 1)
	hub.Subscribe(s, 10)
	hub.Subscribe(s, 20)
	recvEvent(t, s)
	recvEvent(t, s)

	hub.Unregister(s)

	assert.Equal(t, 0, hub.RoomSessions(10))
	assert.Equal(t, 0, hub.RoomSessions(20))
	requireClosed(t, s)

	// A second unregister is harmless.
	hub.Unregister(s)
}

func TestQueueOverflowDropsSession(t *testing.T) {
	hub := NewHub()

	s := newRegisteredSession(hub, 1)
	hub.Subscribe(s, 10)

	// One join announcement already occupies the queue; fill the rest
	// without a consumer, then push one more to trigger the overflow.
	for i := 0; i < sendQueueSize; i++ {
		hub.Publish(10, models.RoomEvent{Type: EventSendMessage, UserID: 1})
	}

	assert.Equal(t, 0, hub.RoomSessions(10))
	requireClosed(t, s)
}

func TestShutdownDrainsEverySession(t *testing.T) {
	hub := NewHub()

	s1 := newRegisteredSession(hub, 1)
	hub.Subscribe(s1, 10)
	s2 := newRegisteredSession(hub, 2)
	hub.Subscribe(s2, 20)

	hub.Shutdown()

	assert.Equal(t, 0, hub.RoomSessions(10))
	assert.Equal(t, 0, hub.RoomSessions(20))
	requireClosed(t, s1)
	requireClosed(t, s2)
}

func TestEnqueueAfterCloseIsSafe(t *testing.T) {
	s := NewSession(nil, 1)
	s.close()

	require.False(t, s.enqueue([]byte("late")))
}

func TestSessionIDsAreUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		s := NewSession(nil, i)
		if _, dup := seen[s.ID]; dup {
			t.Fatalf("duplicate session id %s", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
}
