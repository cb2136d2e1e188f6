// internal/websocket/client.go
package websocket

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	wstypes "mealdesk-service/internal/domain/websocket"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64KB; clients only send room membership messages
)

// ClientAuth holds the staff identity for an authenticated connection.
// Anonymous customer connections have a nil ClientAuth.
type ClientAuth struct {
	IdentityID int64
	SessionID  string
	Roles      []string
	BranchID   int64
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	auth *ClientAuth

	// Rooms requested at connect time (order token from the query string).
	initialRooms []string

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, auth *ClientAuth, initialRooms []string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, 256),
		auth:         auth,
		initialRooms: initialRooms,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// IsStaff reports whether this connection carried a valid staff token.
func (c *Client) IsStaff() bool {
	return c.auth != nil
}

// UserRoom returns the personal room name for a staff connection, or "".
func (c *Client) UserRoom() string {
	if c.auth == nil {
		return ""
	}
	return fmt.Sprintf("user:%d", c.auth.IdentityID)
}

// ReadPump handles incoming messages from client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}

			c.handleMessage(message)
		}
	}
}

// WritePump handles outgoing messages to client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from client. The sink is
// push-oriented; clients only ping and manage room membership.
func (c *Client) handleMessage(data []byte) {
	msg, err := wstypes.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))

	case wstypes.EventTypeJoinRoom:
		var req wstypes.JoinRoomRequest
		if err := mapToStruct(msg.Data, &req); err != nil {
			c.SendError("invalid_join", "Invalid join request", err.Error())
			return
		}
		joined := make([]string, 0, len(req.Rooms))
		for _, room := range req.Rooms {
			if c.hub.JoinRoom(c, room) {
				joined = append(joined, room)
			}
		}
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeJoinRoom, map[string]interface{}{
			"rooms":  joined,
			"status": "joined",
		}))

	case wstypes.EventTypeLeaveRoom:
		var req wstypes.LeaveRoomRequest
		if err := mapToStruct(msg.Data, &req); err != nil {
			c.SendError("invalid_leave", "Invalid leave request", err.Error())
			return
		}
		for _, room := range req.Rooms {
			c.hub.LeaveRoom(c, room)
		}
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeLeaveRoom, map[string]interface{}{
			"rooms":  req.Rooms,
			"status": "left",
		}))
	}
}

// SendMessage sends a message to the client
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		log.Printf("failed to marshal message: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw queues pre-marshalled bytes for delivery. A full buffer means the
// reader stalled: the message is dropped and the connection cancelled. Teardown
// stays with the pumps; SendRaw runs on the hub goroutine during delivery and
// must never block on the hub's own channels.
func (c *Client) SendRaw(data []byte) {
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		c.cancel()
	}
}

// SendError sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// Close gracefully closes the client connection. Idempotent: both the
// unregister path and shutdown may reach it.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
	})
}
