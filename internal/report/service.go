// Package report aggregates bill data into store sales reports, cached in
// Redis with a short TTL.
package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/repo"
)

// StoreReport is the rolled-up sales picture for one store. Tax pending is a
// simulated figure: 20% of the collected tax, floored to whole currency
// units.
type StoreReport struct {
	StoreID        string          `json:"storeId"`
	StoreName      string          `json:"storeName,omitempty"`
	Address        string          `json:"address,omitempty"`
	DailySales     int64           `json:"dailySales"`
	DailyRevenue   decimal.Decimal `json:"dailyRevenue"`
	WeeklySales    int64           `json:"weeklySales"`
	WeeklyRevenue  decimal.Decimal `json:"weeklyRevenue"`
	MonthlySales   int64           `json:"monthlySales"`
	MonthlyRevenue decimal.Decimal `json:"monthlyRevenue"`
	TaxCollected   decimal.Decimal `json:"taxCollected"`
	TaxPending     decimal.Decimal `json:"taxPending"`
}

type window struct {
	count   int64
	revenue decimal.Decimal
	tax     decimal.Decimal
}

// Service computes store reports with a read-through Redis cache.
type Service struct {
	DB    repo.DB
	Redis *redis.Client
	TTL   time.Duration
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// StoreReport builds the report for one store.
func (s *Service) StoreReport(ctx context.Context, storeID string) (StoreReport, error) {
	key := "report:store:" + storeID
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	now := s.now()
	daily, err := s.aggregate(ctx, storeID, now.AddDate(0, 0, -1), now)
	if err != nil {
		return StoreReport{}, err
	}
	weekly, err := s.aggregate(ctx, storeID, now.AddDate(0, 0, -7), now)
	if err != nil {
		return StoreReport{}, err
	}
	monthly, err := s.aggregate(ctx, storeID, now.AddDate(0, 0, -30), now)
	if err != nil {
		return StoreReport{}, err
	}

	rep := StoreReport{
		StoreID:        storeID,
		DailySales:     daily.count,
		DailyRevenue:   daily.revenue,
		WeeklySales:    weekly.count,
		WeeklyRevenue:  weekly.revenue,
		MonthlySales:   monthly.count,
		MonthlyRevenue: monthly.revenue,
		TaxCollected:   monthly.tax,
		TaxPending:     pendingTax(monthly.tax),
	}
	s.store(ctx, key, rep)
	return rep, nil
}

// AllStoreReports builds one report per store, carrying the store name and
// address for the admin dashboard.
func (s *Service) AllStoreReports(ctx context.Context) ([]StoreReport, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text, name, COALESCE(address, '') FROM stores ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type storeRow struct{ id, name, address string }
	stores := make([]storeRow, 0, 8)
	for rows.Next() {
		var st storeRow
		if err := rows.Scan(&st.id, &st.name, &st.address); err != nil {
			return nil, err
		}
		stores = append(stores, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reports := make([]StoreReport, 0, len(stores))
	for _, st := range stores {
		rep, err := s.StoreReport(ctx, st.id)
		if err != nil {
			return nil, err
		}
		rep.StoreName = st.name
		rep.Address = st.address
		reports = append(reports, rep)
	}
	return reports, nil
}

// pendingTax simulates the not-yet-remitted share: 20% of collected tax,
// floored to whole units.
func pendingTax(collected decimal.Decimal) decimal.Decimal {
	return collected.Mul(decimal.NewFromFloat(0.2)).Floor()
}

func (s *Service) aggregate(ctx context.Context, storeID string, from, to time.Time) (window, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(grand_total), 0),
		       COALESCE(SUM(tax_amount), 0)
		FROM bills
		WHERE store_id = $1::uuid AND created_at >= $2 AND created_at <= $3`,
		storeID, from, to)
	var w window
	if err := row.Scan(&w.count, &w.revenue, &w.tax); err != nil {
		return window{}, err
	}
	return w, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (StoreReport, bool) {
	if s.Redis == nil || s.TTL <= 0 {
		return StoreReport{}, false
	}
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return StoreReport{}, false
	}
	var rep StoreReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return StoreReport{}, false
	}
	return rep, true
}

func (s *Service) store(ctx context.Context, key string, rep StoreReport) {
	if s.Redis == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return
	}
	s.Redis.Set(ctx, key, data, s.TTL)
}
