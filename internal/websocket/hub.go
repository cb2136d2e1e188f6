// internal/websocket/hub.go
package websocket

import (
	"context"
	"log"
	"strings"
	"sync"

	wstypes "mealdesk-service/internal/domain/websocket"
	"mealdesk-service/internal/pkg/jwt"
	"mealdesk-service/internal/pkg/session"
)

// Hub is the push-notification sink. Services address clients by room name
// (branch:<id>:kitchen, order:<token>, user:<id>) and never learn whether
// anyone was listening; emits are fire-and-forget with no delivery guarantee.
type Hub struct {
	// Room membership
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex

	// Registration/unregistration
	Register   chan *Client
	unregister chan *Client

	// Outbound room emits
	emit chan *roomEmit

	// Auth dependencies for staff connections
	jwtVerifier    *jwt.Verifier
	sessionManager *session.Manager
}

type roomEmit struct {
	Room    string
	Message *wstypes.WSMessage
}

func NewHub(jwtVerifier *jwt.Verifier, sessionManager *session.Manager) *Hub {
	return &Hub{
		rooms:          make(map[string]map[*Client]bool),
		Register:       make(chan *Client),
		unregister:     make(chan *Client),
		emit:           make(chan *roomEmit, 256),
		jwtVerifier:    jwtVerifier,
		sessionManager: sessionManager,
	}
}

// AuthenticateStaff validates a JWT token and returns the staff identity for
// the connection. Customer connections carry no token and stay anonymous.
func (h *Hub) AuthenticateStaff(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	blacklisted, err := h.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenBlacklisted
	}

	if _, err := h.sessionManager.GetSession(ctx, claims.IdentityID, claims.ID); err != nil {
		return nil, err
	}

	return &ClientAuth{
		IdentityID: claims.IdentityID,
		SessionID:  claims.ID,
		Roles:      claims.Roles,
		BranchID:   claims.BranchID,
	}, nil
}

// EmitToRoom queues a message for every client in a room. Fire-and-forget:
// a full queue drops the emit rather than blocking the caller.
func (h *Hub) EmitToRoom(room string, event wstypes.EventType, payload interface{}) {
	msg := wstypes.NewMessage(event, payload)
	msg.Room = room

	select {
	case h.emit <- &roomEmit{Room: room, Message: msg}:
	default:
		log.Printf("websocket emit queue full, dropping %s for room %s", event, room)
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case e := <-h.emit:
			h.deliverToRoom(e)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range client.initialRooms {
		if h.roomAllowed(client, room) {
			h.joinRoomLocked(client, room)
		}
	}

	log.Printf("websocket client connected: staff=%v rooms=%d total_rooms=%d",
		client.IsStaff(), len(client.initialRooms), len(h.rooms))

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"rooms": client.initialRooms,
		"staff": client.IsStaff(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	for room, members := range h.rooms {
		if members[client] {
			delete(members, client)
			removed = true
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	if removed {
		client.Close()
	}
}

// JoinRoom adds a client to a room, enforcing that staff-only rooms are
// reachable only by staff connections.
func (h *Hub) JoinRoom(client *Client, room string) bool {
	if !h.roomAllowed(client, room) {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinRoomLocked(client, room)
	return true
}

// LeaveRoom removes a client from a room.
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) joinRoomLocked(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

// roomAllowed gates kitchen and user rooms behind authenticated connections.
// Order rooms are addressable by token alone; the token is the credential.
func (h *Hub) roomAllowed(client *Client, room string) bool {
	switch {
	case strings.HasPrefix(room, "order:"):
		return true
	case strings.HasPrefix(room, "branch:"):
		return client.IsStaff()
	case strings.HasPrefix(room, "user:"):
		return client.IsStaff() || client.UserRoom() == room
	default:
		return false
	}
}

func (h *Hub) deliverToRoom(e *roomEmit) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := e.Message.ToJSON()
	if err != nil {
		log.Printf("failed to marshal room message: %v", err)
		return
	}

	for client := range h.rooms[e.Room] {
		client.SendRaw(data)
	}
}

// RoomStats reports client counts per room, used by the admin stats endpoint.
func (h *Hub) RoomStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := make(map[string]int, len(h.rooms))
	for room, members := range h.rooms {
		stats[room] = len(members)
	}
	return stats
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := make(map[*Client]bool)
	for _, members := range h.rooms {
		for client := range members {
			if !closed[client] {
				client.Close()
				closed[client] = true
			}
		}
	}
	h.rooms = make(map[string]map[*Client]bool)
}
