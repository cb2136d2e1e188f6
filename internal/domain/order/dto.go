// internal/domain/order/dto.go
package order

type OrderItemInput struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,min=1"`
}

type OpenTableSessionRequest struct {
	BranchID    int64 `json:"branch_id" binding:"required"`
	TableNumber int   `json:"table_number" binding:"required,min=1"`
}

type PlaceDineInOrderRequest struct {
	SessionToken string           `json:"session_token" binding:"required"`
	Items        []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	Notes        string           `json:"notes"`
}

type PlaceTakeawayOrderRequest struct {
	BranchID         int64            `json:"branch_id" binding:"required"`
	CustomerName     string           `json:"customer_name" binding:"required,max=255"`
	CustomerPhone    string           `json:"customer_phone" binding:"required,max=20"`
	Items            []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	Notes            string           `json:"notes"`
	PaymentReference string           `json:"payment_reference"`
}

type PlaceCateringOrderRequest struct {
	BranchID         int64            `json:"branch_id" binding:"required"`
	CustomerName     string           `json:"customer_name" binding:"required,max=255"`
	CustomerPhone    string           `json:"customer_phone" binding:"required,max=20"`
	EventDate        string           `json:"event_date" binding:"required"` // YYYY-MM-DD
	Items            []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	AdvanceAmount    float64          `json:"advance_amount" binding:"min=0"`
	Notes            string           `json:"notes"`
	PaymentReference string           `json:"payment_reference"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}
