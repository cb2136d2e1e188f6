// internal/websocket/hub_test.go
package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	wstypes "mealdesk-service/internal/domain/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staffClient(h *Hub, branchID int64, rooms ...string) *Client {
	return NewClient(h, nil, &ClientAuth{IdentityID: 7, SessionID: "sess", Roles: []string{"kitchen"}, BranchID: branchID}, rooms)
}

func anonClient(h *Hub, rooms ...string) *Client {
	return NewClient(h, nil, nil, rooms)
}

func TestRoomAllowed(t *testing.T) {
	h := NewHub(nil, nil)
	staff := staffClient(h, 1)
	anon := anonClient(h)

	// Order rooms are open to everyone; the token is the credential.
	assert.True(t, h.roomAllowed(anon, "order:abc-123"))
	assert.True(t, h.roomAllowed(staff, "order:abc-123"))

	// Branch rooms are staff-only.
	assert.False(t, h.roomAllowed(anon, "branch:1:kitchen"))
	assert.True(t, h.roomAllowed(staff, "branch:1:kitchen"))

	// Personal rooms belong to their owner (or any staff connection).
	assert.True(t, h.roomAllowed(staff, "user:7"))
	assert.False(t, h.roomAllowed(anon, "user:7"))

	// Unknown prefixes are rejected outright.
	assert.False(t, h.roomAllowed(staff, "admin:everything"))
}

func TestRegisterClientFiltersRooms(t *testing.T) {
	h := NewHub(nil, nil)

	// An anonymous customer asking for a kitchen room only gets the order room.
	anon := anonClient(h, "order:tok-1", "branch:1:kitchen")
	h.registerClient(anon)

	stats := h.RoomStats()
	assert.Equal(t, 1, stats["order:tok-1"])
	assert.NotContains(t, stats, "branch:1:kitchen")
}

func TestEmitToRoomReachesMembers(t *testing.T) {
	h := NewHub(nil, nil)

	member := anonClient(h, "order:tok-9")
	outsider := anonClient(h, "order:tok-other")
	h.registerClient(member)
	h.registerClient(outsider)
	drain(member)
	drain(outsider)

	h.EmitToRoom("order:tok-9", wstypes.EventTypeOrderStatus, map[string]string{"status": "ready"})
	h.deliverToRoom(<-h.emit)

	select {
	case data := <-member.send:
		var msg wstypes.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, wstypes.EventTypeOrderStatus, msg.Type)
		assert.Equal(t, "order:tok-9", msg.Room)
	default:
		t.Fatal("expected room member to receive the emit")
	}

	select {
	case <-outsider.send:
		t.Fatal("outsider must not receive emits for another room")
	default:
	}
}

func TestFullSendBufferDoesNotStallHub(t *testing.T) {
	h := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	slow := anonClient(h, "order:tok-slow")
	h.Register <- slow

	// Fill the slow client's send buffer so the next delivery overflows it.
	for filling := true; filling; {
		select {
		case slow.send <- []byte(`{}`):
		default:
			filling = false
		}
	}

	h.EmitToRoom("order:tok-slow", wstypes.EventTypeOrderStatus, map[string]string{"status": "ready"})

	// The overflow cancels the slow client instead of blocking delivery.
	require.Eventually(t, func() bool {
		select {
		case <-slow.ctx.Done():
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// The hub must keep accepting registrations afterwards.
	registered := make(chan struct{})
	go func() {
		h.Register <- anonClient(h, "order:tok-fresh")
		close(registered)
	}()
	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("hub stopped accepting registrations after a client's buffer filled")
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	h := NewHub(nil, nil)
	c := anonClient(h, "order:tok-1")

	c.Close()
	assert.NotPanics(t, c.Close)
}

func TestJoinAndLeaveRoom(t *testing.T) {
	h := NewHub(nil, nil)
	staff := staffClient(h, 1)
	h.registerClient(staff)

	require.True(t, h.JoinRoom(staff, "branch:1:kitchen"))
	assert.Equal(t, 1, h.RoomStats()["branch:1:kitchen"])

	h.LeaveRoom(staff, "branch:1:kitchen")
	assert.NotContains(t, h.RoomStats(), "branch:1:kitchen")
}

// drain discards the connected greeting queued during registration.
func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}
