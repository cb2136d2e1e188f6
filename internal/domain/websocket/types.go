// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Room membership (client -> server)
	EventTypeJoinRoom  EventType = "room:join"
	EventTypeLeaveRoom EventType = "room:leave"

	// Order events (server -> client)
	EventTypeOrderPlaced EventType = "order:placed"
	EventTypeOrderStatus EventType = "order:status"

	// Kitchen events (server -> client)
	EventTypeKitchenRefresh EventType = "kitchen:refresh"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Room      string                 `json:"room,omitempty"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"` // For message tracking/acknowledgment
}

// JoinRoomRequest sent by a client to join rooms. Staff-only rooms require a
// staff connection; order rooms are open to whoever holds the order token.
type JoinRoomRequest struct {
	Rooms []string `json:"rooms"`
}

// LeaveRoomRequest sent by a client to leave rooms.
type LeaveRoomRequest struct {
	Rooms []string `json:"rooms"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// OrderStatusData is the payload pushed on every order status transition.
type OrderStatusData struct {
	OrderID   int64     `json:"order_id"`
	Token     string    `json:"token"`
	OrderType string    `json:"order_type"`
	Status    string    `json:"status"`
	BranchID  int64     `json:"branch_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        generateMessageID(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}

func generateMessageID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
