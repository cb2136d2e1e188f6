// internal/service/branchconfig/service.go
package branchconfig

import (
	"context"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/branchconfig"
	"mealdesk-service/internal/pkg/dates"
	xerrors "mealdesk-service/internal/pkg/errors"
	"mealdesk-service/internal/repository/postgres"
	subservice "mealdesk-service/internal/service/subscription"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Service owns branch calendar administration. The three holiday call sites
// here and the user skip in the subscription service are the only four paths
// that alter day availability, and each runs entirely inside one WithinTx.
type Service struct {
	configRepo *postgres.BranchConfigRepository
	subRepo    *postgres.SubscriptionRepository
	dayRepo    *postgres.SubscriptionDayRepository
	engine     *subservice.ExtensionEngine
	db         *postgres.DB
	logger     *zap.Logger
}

func NewService(
	configRepo *postgres.BranchConfigRepository,
	subRepo *postgres.SubscriptionRepository,
	dayRepo *postgres.SubscriptionDayRepository,
	engine *subservice.ExtensionEngine,
	db *postgres.DB,
	logger *zap.Logger,
) *Service {
	return &Service{
		configRepo: configRepo,
		subRepo:    subRepo,
		dayRepo:    dayRepo,
		engine:     engine,
		db:         db,
		logger:     logger,
	}
}

// UpdateWeeklyHolidays replaces the recurring holiday list and retroactively
// compensates every future matching day of every active subscription. Only
// additions propagate: removing a weekday never un-skips days that were
// already compensated.
func (s *Service) UpdateWeeklyHolidays(ctx context.Context, branchID int64, req *branchconfig.UpdateWeeklyHolidaysRequest) (*branchconfig.UpdateWeeklyHolidaysResponse, error) {
	addedWeekdays := make(map[time.Weekday]bool)
	for _, name := range req.WeeklyHolidays {
		if _, ok := branchconfig.ParseWeekday(name); !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", xerrors.ErrValidation, name)
		}
	}

	var resp *branchconfig.UpdateWeeklyHolidaysResponse

	err := s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		cfg, err := s.configRepo.GetByBranchWithTx(ctx, tx, branchID)
		if err != nil {
			return err
		}

		added := branchconfig.DiffAddedWeekdays(cfg.WeeklyHolidays, req.WeeklyHolidays)
		for _, name := range added {
			wd, _ := branchconfig.ParseWeekday(name)
			addedWeekdays[wd] = true
		}

		if err := s.configRepo.UpdateWeeklyHolidaysWithTx(ctx, tx, branchID, req.WeeklyHolidays); err != nil {
			return err
		}
		cfg.WeeklyHolidays = req.WeeklyHolidays

		affected := 0
		if len(added) > 0 {
			holidays, err := s.holidaySetWithTx(ctx, tx, cfg)
			if err != nil {
				return err
			}

			subs, err := s.subRepo.ListActiveEndingOnOrAfterWithTx(ctx, tx, branchID, dates.Today())
			if err != nil {
				return err
			}

			for i := range subs {
				sub := &subs[i]
				sub.Days, err = s.dayRepo.ListBySubscriptionWithTx(ctx, tx, sub.ID)
				if err != nil {
					return err
				}

				// Snapshot matching dates before extending; extension days are
				// picked off the holiday set and can never match an added weekday.
				var targets []time.Time
				for _, d := range sub.Days {
					day := dates.Truncate(d.Date)
					if !day.Before(dates.Today()) && addedWeekdays[day.Weekday()] && d.Deliverable() {
						targets = append(targets, day)
					}
				}

				applied := false
				for _, target := range targets {
					result, err := s.engine.Extend(ctx, tx, subservice.ExtensionRequest{
						Sub:      sub,
						Date:     target,
						Reason:   "Weekly Holiday",
						Holidays: holidays,
					})
					if err != nil {
						return err
					}
					applied = applied || result.Applied
				}
				if applied {
					affected++
				}
			}
		}

		resp = &branchconfig.UpdateWeeklyHolidaysResponse{
			Config:                cfg,
			NewHolidays:           added,
			AffectedSubscriptions: affected,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("weekly holidays updated",
		zap.Int64("branch_id", branchID),
		zap.Strings("new_holidays", resp.NewHolidays),
		zap.Int("affected_subscriptions", resp.AffectedSubscriptions))

	return resp, nil
}

// AddNationalHoliday records a dated holiday and compensates that date across
// all active subscriptions that reach it.
func (s *Service) AddNationalHoliday(ctx context.Context, branchID int64, req *branchconfig.AddNationalHolidayRequest) (*branchconfig.AddNationalHolidayResponse, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", xerrors.ErrValidation)
	}
	date = dates.Truncate(date)
	if date.Before(dates.Today()) {
		return nil, fmt.Errorf("%w: holiday date must not be in the past", xerrors.ErrValidation)
	}

	var resp *branchconfig.AddNationalHolidayResponse

	err = s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		cfg, err := s.configRepo.GetByBranchWithTx(ctx, tx, branchID)
		if err != nil {
			return err
		}

		holiday := &branchconfig.NationalHoliday{BranchID: branchID, Date: date, Name: req.Name}
		if err := s.configRepo.AddNationalHolidayWithTx(ctx, tx, holiday); err != nil {
			return err
		}

		affected, err := s.propagateSingleDate(ctx, tx, cfg, date, "National Holiday - "+req.Name, 1)
		if err != nil {
			return err
		}

		all, err := s.configRepo.ListNationalHolidaysWithTx(ctx, tx, branchID, dates.Today())
		if err != nil {
			return err
		}

		resp = &branchconfig.AddNationalHolidayResponse{
			Holidays:              all,
			AffectedSubscriptions: affected,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("national holiday added",
		zap.Int64("branch_id", branchID),
		zap.String("date", req.Date),
		zap.String("name", req.Name),
		zap.Int("affected_subscriptions", resp.AffectedSubscriptions))

	return resp, nil
}

// AddEmergencyClosure records an unplanned closure. Unlike holidays it can
// grant more than one compensation day per subscription, a goodwill factor
// the admin sets per closure.
func (s *Service) AddEmergencyClosure(ctx context.Context, branchID int64, req *branchconfig.AddEmergencyClosureRequest) (*branchconfig.AddEmergencyClosureResponse, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", xerrors.ErrValidation)
	}
	date = dates.Truncate(date)
	if date.Before(dates.Today()) {
		return nil, fmt.Errorf("%w: closure date must not be in the past", xerrors.ErrValidation)
	}

	compDays := req.CompensationDays
	if compDays < 1 {
		compDays = 1
	}

	var resp *branchconfig.AddEmergencyClosureResponse

	err = s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		cfg, err := s.configRepo.GetByBranchWithTx(ctx, tx, branchID)
		if err != nil {
			return err
		}

		closure := &branchconfig.EmergencyClosure{
			BranchID:         branchID,
			Date:             date,
			Description:      req.Description,
			CompensationDays: compDays,
		}
		if err := s.configRepo.AddEmergencyClosureWithTx(ctx, tx, closure); err != nil {
			return err
		}

		// The stored reason is the closure description itself, so the audit
		// trail says what actually happened that day.
		reason := req.Description
		if reason == "" {
			reason = "Emergency Closure"
		}

		affected, err := s.propagateSingleDate(ctx, tx, cfg, date, reason, compDays)
		if err != nil {
			return err
		}

		all, err := s.configRepo.ListEmergencyClosuresWithTx(ctx, tx, branchID, dates.Today())
		if err != nil {
			return err
		}

		resp = &branchconfig.AddEmergencyClosureResponse{
			Closures:              all,
			AffectedSubscriptions: affected,
			CompensationDays:      compDays,
			ClosureDate:           date.Format(dateLayout),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("emergency closure added",
		zap.Int64("branch_id", branchID),
		zap.String("date", resp.ClosureDate),
		zap.Int("compensation_days", compDays),
		zap.Int("affected_subscriptions", resp.AffectedSubscriptions))

	return resp, nil
}

// propagateSingleDate runs the engine for one unavailable date across every
// active subscription whose calendar reaches it. Already-compensated days
// count as no-ops, so re-adding an overlapping holiday is harmless.
func (s *Service) propagateSingleDate(ctx context.Context, tx pgx.Tx, cfg *branchconfig.BranchConfig, date time.Time, reason string, compDays int) (int, error) {
	holidays, err := s.holidaySetWithTx(ctx, tx, cfg)
	if err != nil {
		return 0, err
	}

	subs, err := s.subRepo.ListActiveEndingOnOrAfterWithTx(ctx, tx, cfg.BranchID, date)
	if err != nil {
		return 0, err
	}

	affected := 0
	for i := range subs {
		sub := &subs[i]
		sub.Days, err = s.dayRepo.ListBySubscriptionWithTx(ctx, tx, sub.ID)
		if err != nil {
			return 0, err
		}

		result, err := s.engine.Extend(ctx, tx, subservice.ExtensionRequest{
			Sub:              sub,
			Date:             date,
			Reason:           reason,
			CompensationDays: compDays,
			Holidays:         holidays,
		})
		if err != nil {
			return 0, err
		}
		if result.Applied {
			affected++
		}
	}
	return affected, nil
}

// holidaySetWithTx builds the unavailability snapshot from the config passed
// in, which already carries the change being committed, plus the dated tables
// as this transaction sees them.
func (s *Service) holidaySetWithTx(ctx context.Context, tx pgx.Tx, cfg *branchconfig.BranchConfig) (branchconfig.HolidaySet, error) {
	holidays, err := s.configRepo.ListNationalHolidaysWithTx(ctx, tx, cfg.BranchID, dates.Today())
	if err != nil {
		return branchconfig.HolidaySet{}, err
	}
	closures, err := s.configRepo.ListEmergencyClosuresWithTx(ctx, tx, cfg.BranchID, dates.Today())
	if err != nil {
		return branchconfig.HolidaySet{}, err
	}
	return branchconfig.NewHolidaySet(cfg.WeeklyHolidays, holidays, closures), nil
}

// ConfigDetails returns the full admin view of one branch's calendar setup.
func (s *Service) ConfigDetails(ctx context.Context, branchID int64) (*branchconfig.ConfigDetailsResponse, error) {
	cfg, err := s.configRepo.GetByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	holidays, err := s.configRepo.ListNationalHolidays(ctx, branchID, dates.Today().AddDate(-1, 0, 0))
	if err != nil {
		return nil, err
	}

	closures, err := s.configRepo.ListEmergencyClosures(ctx, branchID, dates.Today().AddDate(-1, 0, 0))
	if err != nil {
		return nil, err
	}

	durations := make([]branchconfig.PlanDuration, 0, 4)
	for _, dt := range []string{"weekly", "monthly", "quarterly", "yearly"} {
		if d, err := s.configRepo.GetPlanDuration(ctx, branchID, dt); err == nil {
			durations = append(durations, *d)
		}
	}

	return &branchconfig.ConfigDetailsResponse{
		Config:           cfg,
		NationalHolidays: holidays,
		Closures:         closures,
		PlanDurations:    durations,
	}, nil
}

// UpdatePlanDurations upserts the per-duration skip policies. Existing
// subscriptions keep the allowance snapshotted at purchase.
func (s *Service) UpdatePlanDurations(ctx context.Context, branchID int64, req *branchconfig.UpdatePlanDurationsRequest) ([]branchconfig.PlanDuration, error) {
	out := make([]branchconfig.PlanDuration, 0, len(req.PlanDurations))
	for _, in := range req.PlanDurations {
		d := branchconfig.PlanDuration{
			BranchID:     branchID,
			DurationType: in.DurationType,
			MinDays:      in.MinDays,
			SkipDays:     in.SkipDays,
			IsActive:     in.IsActive,
		}
		if err := s.configRepo.UpsertPlanDuration(ctx, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// UpdateTimeSlots replaces the branch's delivery windows.
func (s *Service) UpdateTimeSlots(ctx context.Context, branchID int64, req *branchconfig.UpdateTimeSlotsRequest) ([]branchconfig.TimeSlot, error) {
	slots := make([]branchconfig.TimeSlot, 0, len(req.TimeSlots))
	for _, in := range req.TimeSlots {
		slots = append(slots, branchconfig.TimeSlot{
			Label:     in.Label,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			IsActive:  in.IsActive,
		})
	}

	err := s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		return s.configRepo.ReplaceTimeSlots(ctx, tx, branchID, slots)
	})
	if err != nil {
		return nil, err
	}
	return s.configRepo.ListTimeSlots(ctx, branchID)
}
