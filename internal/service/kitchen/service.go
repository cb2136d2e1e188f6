// internal/service/kitchen/service.go
package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/order"
	"mealdesk-service/internal/domain/subscription"
	"mealdesk-service/internal/pkg/dates"
	"mealdesk-service/internal/repository/postgres"
	menuservice "mealdesk-service/internal/service/menu"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dashboard reads are aggregation-heavy and hit by every kitchen screen on a
// poll loop, so results are cached briefly in redis. Fifteen seconds is short
// enough that a skip or a new order shows up on the next poll.
const dashboardCacheTTL = 15 * time.Second

// Dashboard is what a kitchen screen renders for one branch and date.
type Dashboard struct {
	BranchID    int64     `json:"branch_id"`
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`

	// Aggregated prep counts across all deliverable subscriptions.
	PrepCounts map[subscription.PackageType]map[string]int `json:"prep_counts"`

	SubscriptionCount int           `json:"subscription_count"`
	OpenOrders        []order.Order `json:"open_orders"`
}

type Service struct {
	subRepo   *postgres.SubscriptionRepository
	orderRepo *postgres.OrderRepository
	menus     *menuservice.Service
	cache     *redis.Client
	logger    *zap.Logger
}

func NewService(subRepo *postgres.SubscriptionRepository, orderRepo *postgres.OrderRepository, menus *menuservice.Service, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{subRepo: subRepo, orderRepo: orderRepo, menus: menus, cache: cache, logger: logger}
}

// GetDashboard returns the branch's prep view for a date, cached.
func (s *Service) GetDashboard(ctx context.Context, branchID int64, date time.Time) (*Dashboard, error) {
	date = dates.Truncate(date)
	key := cacheKey(branchID, date)

	if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var cached Dashboard
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	dashboard, err := s.buildDashboard(ctx, branchID, date)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(dashboard); err == nil {
		if err := s.cache.Set(ctx, key, data, dashboardCacheTTL).Err(); err != nil {
			s.logger.Warn("failed to cache kitchen dashboard", zap.Error(err))
		}
	}
	return dashboard, nil
}

// InvalidateDashboard drops the cache for a branch and date, used after
// writes that must show up immediately.
func (s *Service) InvalidateDashboard(ctx context.Context, branchID int64, date time.Time) {
	if err := s.cache.Del(ctx, cacheKey(branchID, dates.Truncate(date))).Err(); err != nil {
		s.logger.Warn("failed to invalidate kitchen dashboard", zap.Error(err))
	}
}

func (s *Service) buildDashboard(ctx context.Context, branchID int64, date time.Time) (*Dashboard, error) {
	subs, err := s.subRepo.ListDeliverableToday(ctx, branchID, date)
	if err != nil {
		return nil, err
	}

	prep := make(map[subscription.PackageType]map[string]int)
	for i := range subs {
		resolved, err := s.menus.ResolveByWeekday(ctx, &subs[i], date)
		if err != nil {
			s.logger.Warn("failed to resolve meals for subscription",
				zap.Int64("subscription_id", subs[i].ID),
				zap.Error(err))
			continue
		}
		for pkg, items := range resolved.Packages {
			if prep[pkg] == nil {
				prep[pkg] = make(map[string]int)
			}
			for _, it := range items {
				prep[pkg][it.Name]++
			}
		}
	}

	openOrders, err := s.orderRepo.ListOpenByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		BranchID:          branchID,
		Date:              date.Format("2006-01-02"),
		GeneratedAt:       time.Now(),
		PrepCounts:        prep,
		SubscriptionCount: len(subs),
		OpenOrders:        openOrders,
	}, nil
}

func cacheKey(branchID int64, date time.Time) string {
	return fmt.Sprintf("kitchen:dashboard:%d:%s", branchID, date.Format("2006-01-02"))
}
