// internal/domain/order/entity.go
package order

import (
	"database/sql"
	"time"
)

// OrderType distinguishes the three non-subscription order flows. They share
// one state machine and one kitchen queue.
type OrderType string

const (
	TypeDineIn   OrderType = "dine_in"
	TypeTakeaway OrderType = "takeaway"
	TypeCatering OrderType = "catering"
)

type OrderStatus string

const (
	StatusPlaced    OrderStatus = "placed"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCollected OrderStatus = "collected"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// transitions per order type. Dine-in ends at served, takeaway at collected,
// catering at delivered; cancellation is allowed until the food is ready.
var transitions = map[OrderType]map[OrderStatus][]OrderStatus{
	TypeDineIn: {
		StatusPlaced:    {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusPreparing, StatusCancelled},
		StatusPreparing: {StatusReady, StatusCancelled},
		StatusReady:     {StatusServed},
	},
	TypeTakeaway: {
		StatusPlaced:    {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusPreparing, StatusCancelled},
		StatusPreparing: {StatusReady, StatusCancelled},
		StatusReady:     {StatusCollected},
	},
	TypeCatering: {
		StatusPlaced:    {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusPreparing, StatusCancelled},
		StatusPreparing: {StatusDelivered, StatusCancelled},
	},
}

// CanTransition reports whether a status change is valid for the order type.
func CanTransition(t OrderType, from, to OrderStatus) bool {
	for _, s := range transitions[t][from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order is one dine-in, takeaway or catering order. Token is the customer
// facing handle: a table-session UUID for dine-in, a ULID pickup token for
// takeaway and catering.
type Order struct {
	ID       int64     `json:"id" db:"id"`
	BranchID int64     `json:"branch_id" db:"branch_id"`
	Type     OrderType `json:"type" db:"order_type"`
	Token    string    `json:"token" db:"token"`

	// Dine-in only
	TableSessionID sql.NullInt64 `json:"table_session_id,omitempty" db:"table_session_id"`

	// Catering only
	EventDate     sql.NullTime    `json:"event_date,omitempty" db:"event_date"`
	AdvanceAmount sql.NullFloat64 `json:"advance_amount,omitempty" db:"advance_amount"`

	CustomerName  string  `json:"customer_name" db:"customer_name"`
	CustomerPhone string  `json:"customer_phone" db:"customer_phone"`
	Notes         string  `json:"notes" db:"notes"`
	TotalAmount   float64 `json:"total_amount" db:"total_amount"`

	// Payment is mocked; the reference is stored verbatim.
	PaymentReference sql.NullString `json:"payment_reference,omitempty" db:"payment_reference"`

	Status    OrderStatus `json:"status" db:"status"`
	Items     []OrderItem `json:"items,omitempty"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem snapshots name and price at order time so later item edits never
// change a placed order.
type OrderItem struct {
	ID       int64   `json:"id" db:"id"`
	OrderID  int64   `json:"order_id" db:"order_id"`
	ItemID   int64   `json:"item_id" db:"item_id"`
	Name     string  `json:"name" db:"name"`
	Price    float64 `json:"price" db:"price"`
	Quantity int     `json:"quantity" db:"quantity"`
}

// TableSession is an open dine-in sitting at one table, addressed by the
// token printed on the table's QR card (token generation is external).
type TableSession struct {
	ID          int64        `json:"id" db:"id"`
	BranchID    int64        `json:"branch_id" db:"branch_id"`
	TableNumber int          `json:"table_number" db:"table_number"`
	Token       string       `json:"token" db:"token"`
	IsOpen      bool         `json:"is_open" db:"is_open"`
	OpenedAt    time.Time    `json:"opened_at" db:"opened_at"`
	ClosedAt    sql.NullTime `json:"closed_at,omitempty" db:"closed_at"`
}
