// internal/service/subscription/service.go
package subscription

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/branchconfig"
	"mealdesk-service/internal/domain/subscription"
	"mealdesk-service/internal/pkg/dates"
	xerrors "mealdesk-service/internal/pkg/errors"
	"mealdesk-service/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Service owns the subscription lifecycle: purchase, the user-facing skip
// flow, calendar reads and status changes. Holiday-driven extensions live in
// the branchconfig service; both funnel into the same ExtensionEngine.
type Service struct {
	subRepo    *postgres.SubscriptionRepository
	dayRepo    *postgres.SubscriptionDayRepository
	planRepo   *postgres.PlanRepository
	configRepo *postgres.BranchConfigRepository
	engine     *ExtensionEngine
	db         *postgres.DB
	logger     *zap.Logger
}

func NewService(
	subRepo *postgres.SubscriptionRepository,
	dayRepo *postgres.SubscriptionDayRepository,
	planRepo *postgres.PlanRepository,
	configRepo *postgres.BranchConfigRepository,
	engine *ExtensionEngine,
	db *postgres.DB,
	logger *zap.Logger,
) *Service {
	return &Service{
		subRepo:    subRepo,
		dayRepo:    dayRepo,
		planRepo:   planRepo,
		configRepo: configRepo,
		engine:     engine,
		db:         db,
		logger:     logger,
	}
}

// Purchase creates a subscription with its fully materialized day ledger.
// Days falling on branch holidays known at purchase time are still created
// available; the admin's holiday call sites compensate them like any other
// active subscription, so purchase stays a plain insert.
func (s *Service) Purchase(ctx context.Context, userID int64, req *subscription.PurchaseSubscriptionRequest) (*subscription.Subscription, error) {
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date", xerrors.ErrValidation)
	}
	startDate = dates.Truncate(startDate)
	if startDate.Before(dates.Today()) {
		return nil, fmt.Errorf("%w: start_date must not be in the past", xerrors.ErrValidation)
	}

	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive || plan.BranchID != req.BranchID {
		return nil, fmt.Errorf("%w: plan not available at this branch", xerrors.ErrValidation)
	}

	for _, pkg := range req.SelectedPackages {
		if !planOffersPackage(plan.Packages, pkg) {
			return nil, fmt.Errorf("%w: plan does not offer package %q", xerrors.ErrValidation, pkg)
		}
	}

	skipAllowance := 0
	if policy, err := s.configRepo.GetPlanDuration(ctx, req.BranchID, plan.DurationType); err == nil {
		skipAllowance = policy.SkipDays
	}

	sub := &subscription.Subscription{
		OrderID:          newOrderID(),
		BranchID:         req.BranchID,
		UserID:           userID,
		PlanID:           plan.ID,
		SelectedPackages: req.SelectedPackages,
		DurationType:     plan.DurationType,
		TotalDays:        plan.TotalDays,
		StartDate:        startDate,
		EndDate:          startDate.AddDate(0, 0, plan.TotalDays-1),
		Status:           subscription.SubscriptionStatusActive,
		SkipMealStatus:   subscription.SkipMealStatus{TotalSkipsAllowed: skipAllowance},
	}
	if req.TimeSlotID != nil {
		sub.TimeSlotID = sql.NullInt64{Int64: *req.TimeSlotID, Valid: true}
	}

	ledger := subscription.InitializeLedger(startDate, plan.TotalDays)

	err = s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := s.subRepo.CreateWithTx(ctx, tx, sub); err != nil {
			return err
		}
		return s.dayRepo.InsertLedgerWithTx(ctx, tx, sub.ID, ledger)
	})
	if err != nil {
		return nil, err
	}

	sub.Days = ledger
	s.logger.Info("subscription purchased",
		zap.String("order_id", sub.OrderID),
		zap.Int64("user_id", userID),
		zap.Int64("plan_id", plan.ID),
		zap.Time("start_date", startDate),
		zap.Float64("amount_paid", req.AmountPaid),
		zap.String("payment_reference", req.PaymentReference))

	return sub, nil
}

// SkipDay burns one unit of the user's skip quota for a future date and
// appends the compensating extension day. Validation, quota spend, the day
// flip and the extension all commit or roll back together.
func (s *Service) SkipDay(ctx context.Context, orderID string, userID int64, req *subscription.SkipDayRequest) (*subscription.SkipDayResponse, error) {
	skipDate, err := time.Parse(dateLayout, req.SkipDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid skipDate", xerrors.ErrValidation)
	}
	skipDate = dates.Truncate(skipDate)

	var resp *subscription.SkipDayResponse

	err = s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		sub, err := s.subRepo.FindByOrderIDWithTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if sub.UserID != userID {
			return xerrors.ErrForbidden
		}
		if sub.Status != subscription.SubscriptionStatusActive {
			return fmt.Errorf("%w: subscription is %s", xerrors.ErrValidation, sub.Status)
		}

		cfg, err := s.configRepo.GetByBranchWithTx(ctx, tx, sub.BranchID)
		if err != nil {
			return err
		}

		earliest := dates.Today().AddDate(0, 0, cfg.SkipMealDays)
		if skipDate.Before(earliest) {
			return xerrors.ErrInsufficientNotice
		}
		if !skipDate.Before(dates.Truncate(sub.EndDate)) {
			return xerrors.ErrOutsideSkipWindow
		}
		if sub.SkipMealStatus.SkipsUsed >= sub.SkipMealStatus.TotalSkipsAllowed {
			return xerrors.ErrQuotaExceeded
		}

		sub.Days, err = s.dayRepo.ListBySubscriptionWithTx(ctx, tx, sub.ID)
		if err != nil {
			return err
		}

		holidays, err := s.holidaySetWithTx(ctx, tx, cfg)
		if err != nil {
			return err
		}

		result, err := s.engine.Extend(ctx, tx, ExtensionRequest{
			Sub:      sub,
			Date:     skipDate,
			Reason:   "Skipped by user",
			UserSkip: true,
			Holidays: holidays,
		})
		if err != nil {
			return err
		}
		if !result.Applied {
			return fmt.Errorf("%w: day is not skippable", xerrors.ErrValidation)
		}

		if err := s.subRepo.IncrementSkipsUsedWithTx(ctx, tx, sub.ID, skipDate); err != nil {
			return err
		}

		resp = &subscription.SkipDayResponse{
			SkipDate:   skipDate.Format(dateLayout),
			NewEndDate: result.NewEndDate.Format(dateLayout),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user skipped day",
		zap.String("order_id", orderID),
		zap.String("skip_date", resp.SkipDate),
		zap.String("new_end_date", resp.NewEndDate))

	return resp, nil
}

// SkipAvailability reports the remaining quota and the concrete dates the
// user could still skip: future deliverable days beyond the notice window.
func (s *Service) SkipAvailability(ctx context.Context, orderID string, userID int64) (*subscription.SkipAvailabilityResponse, error) {
	sub, err := s.subRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, xerrors.ErrForbidden
	}

	cfg, err := s.configRepo.GetByBranch(ctx, sub.BranchID)
	if err != nil {
		return nil, err
	}

	remaining := sub.SkipMealStatus.TotalSkipsAllowed - sub.SkipMealStatus.SkipsUsed
	if remaining < 0 {
		remaining = 0
	}

	resp := &subscription.SkipAvailabilityResponse{
		RemainingSkips:    remaining,
		MaxSkipDays:       sub.SkipMealStatus.TotalSkipsAllowed,
		MinSkipNoticeDays: cfg.SkipMealDays,
		EligibleDates:     []subscription.EligibleSkipDate{},
	}
	if remaining == 0 || sub.Status != subscription.SubscriptionStatusActive {
		return resp, nil
	}

	days, err := s.dayRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	earliest := dates.Today().AddDate(0, 0, cfg.SkipMealDays)
	endDate := dates.Truncate(sub.EndDate)
	for _, d := range days {
		if d.Deliverable() && !dates.Truncate(d.Date).Before(earliest) && dates.Truncate(d.Date).Before(endDate) {
			resp.EligibleDates = append(resp.EligibleDates, subscription.EligibleSkipDate{
				Date:    d.Date.Format(dateLayout),
				DayName: d.Date.Weekday().String(),
			})
		}
	}
	return resp, nil
}

// Calendar returns the full day ledger for one subscription.
func (s *Service) Calendar(ctx context.Context, orderID string, userID int64) (*subscription.CalendarResponse, error) {
	sub, err := s.subRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, xerrors.ErrForbidden
	}

	days, err := s.dayRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	return &subscription.CalendarResponse{
		OrderID:        sub.OrderID,
		StartDate:      sub.StartDate,
		EndDate:        sub.EndDate,
		TotalDays:      sub.TotalDays,
		ExtraDaysAdded: sub.ExtraDaysAdded,
		Days:           days,
	}, nil
}

// Get returns one subscription after an ownership check.
func (s *Service) Get(ctx context.Context, orderID string, userID int64) (*subscription.Subscription, error) {
	sub, err := s.subRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, xerrors.ErrForbidden
	}
	return sub, nil
}

// ListForUser returns the user's subscriptions without ledgers.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]subscription.Subscription, error) {
	return s.subRepo.ListByUser(ctx, userID)
}

// SkipHistory returns the append-only audit trail.
func (s *Service) SkipHistory(ctx context.Context, orderID string, userID int64) ([]subscription.SkipHistoryEntry, error) {
	sub, err := s.subRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, xerrors.ErrForbidden
	}
	return s.dayRepo.ListSkipHistory(ctx, sub.ID)
}

// ChangeStatus applies a lifecycle transition after checking the table. The
// user-stated reason is not persisted, only logged.
func (s *Service) ChangeStatus(ctx context.Context, orderID string, userID int64, to subscription.SubscriptionStatus, reason string) error {
	sub, err := s.subRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return xerrors.ErrForbidden
	}
	if !subscription.CanTransition(sub.Status, to) {
		return fmt.Errorf("%w: cannot move %s subscription to %s", xerrors.ErrInvalidTransition, sub.Status, to)
	}
	if err := s.subRepo.UpdateStatus(ctx, sub.ID, to); err != nil {
		return err
	}

	s.logger.Info("subscription status changed",
		zap.String("order_id", orderID),
		zap.String("from", string(sub.Status)),
		zap.String("to", string(to)),
		zap.String("reason", reason))
	return nil
}

// holidaySetWithTx snapshots the branch's full unavailability set inside the
// caller's transaction, so extensions land on genuinely open days.
func (s *Service) holidaySetWithTx(ctx context.Context, tx pgx.Tx, cfg *branchconfig.BranchConfig) (branchconfig.HolidaySet, error) {
	branchID := cfg.BranchID
	holidays, err := s.configRepo.ListNationalHolidaysWithTx(ctx, tx, branchID, dates.Today())
	if err != nil {
		return branchconfig.HolidaySet{}, err
	}
	closures, err := s.configRepo.ListEmergencyClosuresWithTx(ctx, tx, branchID, dates.Today())
	if err != nil {
		return branchconfig.HolidaySet{}, err
	}
	return branchconfig.NewHolidaySet(cfg.WeeklyHolidays, holidays, closures), nil
}

func planOffersPackage(offered []subscription.PackageType, pkg subscription.PackageType) bool {
	for _, p := range offered {
		if p == pkg {
			return true
		}
	}
	return false
}

func newOrderID() string {
	return "SUB-" + ulid.Make().String()
}
