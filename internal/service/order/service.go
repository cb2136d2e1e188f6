// internal/service/order/service.go
package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/order"
	wstypes "mealdesk-service/internal/domain/websocket"
	"mealdesk-service/internal/pkg/dates"
	xerrors "mealdesk-service/internal/pkg/errors"
	"mealdesk-service/internal/repository/postgres"
	"mealdesk-service/internal/websocket"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Catering needs lead time for sourcing; same-week events are refused.
const minCateringNoticeDays = 2

// DashboardCache drops cached kitchen views after order writes so the next
// poll reflects them without waiting out the TTL.
type DashboardCache interface {
	InvalidateDashboard(ctx context.Context, branchID int64, date time.Time)
}

// Service handles the three non-subscription order flows. All three share
// the order table, the item-snapshot rule and the kitchen queue; they differ
// only in token scheme, extra fields and terminal status.
type Service struct {
	orderRepo  *postgres.OrderRepository
	itemRepo   *postgres.ItemRepository
	hub        *websocket.Hub
	dashboards DashboardCache
	db         *postgres.DB
	logger     *zap.Logger
}

func NewService(orderRepo *postgres.OrderRepository, itemRepo *postgres.ItemRepository, hub *websocket.Hub, dashboards DashboardCache, db *postgres.DB, logger *zap.Logger) *Service {
	return &Service{orderRepo: orderRepo, itemRepo: itemRepo, hub: hub, dashboards: dashboards, db: db, logger: logger}
}

// OpenTableSession opens a dine-in sitting and mints its QR token.
func (s *Service) OpenTableSession(ctx context.Context, req *order.OpenTableSessionRequest) (*order.TableSession, error) {
	session := &order.TableSession{
		BranchID:    req.BranchID,
		TableNumber: req.TableNumber,
		Token:       uuid.NewString(),
	}
	if err := s.orderRepo.OpenTableSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("table session opened",
		zap.Int64("branch_id", req.BranchID),
		zap.Int("table_number", req.TableNumber))
	return session, nil
}

// CloseTableSession settles a sitting. Its orders keep their own lifecycle.
func (s *Service) CloseTableSession(ctx context.Context, token string) error {
	session, err := s.orderRepo.FindOpenSessionByToken(ctx, token)
	if err != nil {
		return err
	}
	return s.orderRepo.CloseTableSession(ctx, session.ID)
}

// SessionOrders lists everything ordered under one sitting, for the bill.
func (s *Service) SessionOrders(ctx context.Context, token string) ([]order.Order, error) {
	session, err := s.orderRepo.FindOpenSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.ListBySession(ctx, session.ID)
}

// PlaceDineIn places an order against an open table session. The session
// token doubles as the order's customer-facing token so the table's clients
// can watch all their orders on one room.
func (s *Service) PlaceDineIn(ctx context.Context, req *order.PlaceDineInOrderRequest) (*order.Order, error) {
	session, err := s.orderRepo.FindOpenSessionByToken(ctx, req.SessionToken)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		BranchID: session.BranchID,
		Type:     order.TypeDineIn,
		Token:    session.Token,
		Notes:    req.Notes,
		Status:   order.StatusPlaced,
	}
	o.TableSessionID = sql.NullInt64{Int64: session.ID, Valid: true}

	if err := s.place(ctx, o, req.Items); err != nil {
		return nil, err
	}
	return o, nil
}

// PlaceTakeaway places a pickup order and mints its ULID pickup token.
func (s *Service) PlaceTakeaway(ctx context.Context, req *order.PlaceTakeawayOrderRequest) (*order.Order, error) {
	o := &order.Order{
		BranchID:      req.BranchID,
		Type:          order.TypeTakeaway,
		Token:         ulid.Make().String(),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		Status:        order.StatusPlaced,
	}
	if req.PaymentReference != "" {
		o.PaymentReference = sql.NullString{String: req.PaymentReference, Valid: true}
	}

	if err := s.place(ctx, o, req.Items); err != nil {
		return nil, err
	}
	return o, nil
}

// PlaceCatering places a dated event order with an advance payment.
func (s *Service) PlaceCatering(ctx context.Context, req *order.PlaceCateringOrderRequest) (*order.Order, error) {
	eventDate, err := time.Parse(dateLayout, req.EventDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid event_date", xerrors.ErrValidation)
	}
	eventDate = dates.Truncate(eventDate)
	if eventDate.Before(dates.Today().AddDate(0, 0, minCateringNoticeDays)) {
		return nil, xerrors.ErrInsufficientNotice
	}

	o := &order.Order{
		BranchID:      req.BranchID,
		Type:          order.TypeCatering,
		Token:         ulid.Make().String(),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		Status:        order.StatusPlaced,
	}
	o.EventDate = sql.NullTime{Time: eventDate, Valid: true}
	o.AdvanceAmount = sql.NullFloat64{Float64: req.AdvanceAmount, Valid: true}
	if req.PaymentReference != "" {
		o.PaymentReference = sql.NullString{String: req.PaymentReference, Valid: true}
	}

	if err := s.place(ctx, o, req.Items); err != nil {
		return nil, err
	}
	return o, nil
}

// place snapshots items, totals the order, writes it transactionally and
// notifies the kitchen and the order room.
func (s *Service) place(ctx context.Context, o *order.Order, inputs []order.OrderItemInput) error {
	ids := make([]int64, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ItemID)
	}

	items, err := s.itemRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		it, ok := items[in.ItemID]
		if !ok || !it.IsAvailable || it.BranchID != o.BranchID {
			return fmt.Errorf("%w: item %d is not orderable at this branch", xerrors.ErrValidation, in.ItemID)
		}
		o.Items = append(o.Items, order.OrderItem{
			ItemID:   it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: in.Quantity,
		})
		o.TotalAmount += it.Price * float64(in.Quantity)
	}

	err = s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		return s.orderRepo.CreateWithTx(ctx, tx, o)
	})
	if err != nil {
		return err
	}

	s.hub.EmitToRoom(kitchenRoom(o.BranchID), wstypes.EventTypeOrderPlaced, o)
	s.hub.EmitToRoom(orderRoom(o.Token), wstypes.EventTypeOrderStatus, statusData(o))
	s.dashboards.InvalidateDashboard(ctx, o.BranchID, dates.Today())

	s.logger.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("type", string(o.Type)),
		zap.Int64("branch_id", o.BranchID),
		zap.Float64("total", o.TotalAmount))
	return nil
}

// TrackByToken is the customer-facing lookup; the token is the credential.
func (s *Service) TrackByToken(ctx context.Context, token string) (*order.Order, error) {
	return s.orderRepo.FindByToken(ctx, token)
}

// UpdateStatus moves an order through its per-type state machine and pushes
// the change to both the kitchen and the customer.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, to order.OrderStatus) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanTransition(o.Type, o.Status, to) {
		return nil, fmt.Errorf("%w: %s order cannot move from %s to %s",
			xerrors.ErrInvalidTransition, o.Type, o.Status, to)
	}

	if err := s.orderRepo.UpdateStatus(ctx, o.ID, o.Status, to); err != nil {
		return nil, err
	}
	o.Status = to
	o.UpdatedAt = time.Now()

	s.hub.EmitToRoom(kitchenRoom(o.BranchID), wstypes.EventTypeOrderStatus, statusData(o))
	s.hub.EmitToRoom(orderRoom(o.Token), wstypes.EventTypeOrderStatus, statusData(o))
	s.dashboards.InvalidateDashboard(ctx, o.BranchID, dates.Today())

	s.logger.Info("order status updated",
		zap.Int64("order_id", o.ID),
		zap.String("status", string(to)))
	return o, nil
}

// ListOpenByBranch feeds the kitchen's live order queue.
func (s *Service) ListOpenByBranch(ctx context.Context, branchID int64) ([]order.Order, error) {
	return s.orderRepo.ListOpenByBranch(ctx, branchID)
}

func kitchenRoom(branchID int64) string {
	return fmt.Sprintf("branch:%d:kitchen", branchID)
}

func orderRoom(token string) string {
	return fmt.Sprintf("order:%s", token)
}

func statusData(o *order.Order) wstypes.OrderStatusData {
	return wstypes.OrderStatusData{
		OrderID:   o.ID,
		Token:     o.Token,
		OrderType: string(o.Type),
		Status:    string(o.Status),
		BranchID:  o.BranchID,
		UpdatedAt: o.UpdatedAt,
	}
}
