package ws

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type staticMembership struct {
	allowed map[uuid.UUID]bool
	err     error
}

func (m *staticMembership) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.allowed[chatID], nil
}

func newTestClient(userID uuid.UUID) *Client {
	return &Client{
		userID: userID,
		send:   make(chan []byte, 16),
		rooms:  make(map[uuid.UUID]struct{}),
	}
}

func TestHub_JoinRoom_Member(t *testing.T) {
	chatID := uuid.New()
	hub := NewHub(context.Background(), &staticMembership{allowed: map[uuid.UUID]bool{chatID: true}})
	client := newTestClient(uuid.New())

	err := hub.joinRoom(context.Background(), client, chatID)

	assert.NoError(t, err)
	assert.Contains(t, client.rooms, chatID)
	assert.Contains(t, hub.rooms[chatID], client)

	// Повторная подписка идемпотентна.
	assert.NoError(t, hub.joinRoom(context.Background(), client, chatID))
	assert.Len(t, client.rooms, 1)
}

func TestHub_JoinRoom_NotMember(t *testing.T) {
	hub := NewHub(context.Background(), &staticMembership{allowed: map[uuid.UUID]bool{}})
	client := newTestClient(uuid.New())

	err := hub.joinRoom(context.Background(), client, uuid.New())

	assert.ErrorIs(t, err, errNotChatMember)
	assert.Empty(t, client.rooms)
}

func TestHub_JoinRoom_RoomLimit(t *testing.T) {
	membership := &staticMembership{allowed: map[uuid.UUID]bool{}}
	hub := NewHub(context.Background(), membership)
	client := newTestClient(uuid.New())

	for i := 0; i < maxRoomsPerClient; i++ {
		chatID := uuid.New()
		membership.allowed[chatID] = true
		assert.NoError(t, hub.joinRoom(context.Background(), client, chatID))
	}

	extra := uuid.New()
	membership.allowed[extra] = true

	err := hub.joinRoom(context.Background(), client, extra)

	assert.ErrorIs(t, err, errTooManyRooms)
}

func TestHub_LeaveRoom(t *testing.T) {
	chatID := uuid.New()
	hub := NewHub(context.Background(), &staticMembership{allowed: map[uuid.UUID]bool{chatID: true}})
	client := newTestClient(uuid.New())

	assert.NoError(t, hub.joinRoom(context.Background(), client, chatID))
	hub.leaveRoom(client, chatID)

	assert.Empty(t, client.rooms)
	assert.NotContains(t, hub.rooms, chatID)

	// Выход из комнаты без подписки — no-op.
	hub.leaveRoom(client, uuid.New())
}

func TestHub_RemoveClient_DetachesRooms(t *testing.T) {
	chatID := uuid.New()
	hub := NewHub(context.Background(), &staticMembership{allowed: map[uuid.UUID]bool{chatID: true}})
	client := newTestClient(uuid.New())

	hub.addClient(client)
	assert.NoError(t, hub.joinRoom(context.Background(), client, chatID))

	hub.removeClient(client)

	assert.NotContains(t, hub.rooms, chatID)
	assert.NotContains(t, hub.users, client.userID)
}

func TestHub_Deliver_ToUser(t *testing.T) {
	hub := NewHub(context.Background(), &staticMembership{})
	userID := uuid.New()
	client := newTestClient(userID)
	other := newTestClient(uuid.New())

	hub.addClient(client)
	hub.addClient(other)

	hub.deliver(envelope{kind: targetUser, id: userID, payload: []byte(`{"type":"notification"}`)})

	assert.Len(t, client.send, 1)
	assert.Empty(t, other.send)
}

func TestHub_Deliver_ToChatRoom(t *testing.T) {
	chatID := uuid.New()
	hub := NewHub(context.Background(), &staticMembership{allowed: map[uuid.UUID]bool{chatID: true}})

	subscriber := newTestClient(uuid.New())
	bystander := newTestClient(uuid.New())
	hub.addClient(subscriber)
	hub.addClient(bystander)
	assert.NoError(t, hub.joinRoom(context.Background(), subscriber, chatID))

	hub.deliver(envelope{kind: targetChat, id: chatID, payload: []byte(`{"type":"new_message"}`)})

	assert.Len(t, subscriber.send, 1)
	assert.Empty(t, bystander.send)
}
