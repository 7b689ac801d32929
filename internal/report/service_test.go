package report

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestStoreReportServedFromCache(t *testing.T) {
	rdb := newTestRedis(t)
	svc := &Service{Redis: rdb, TTL: time.Minute}

	cached := StoreReport{
		StoreID:      "s-1",
		MonthlySales: 12,
		TaxCollected: decimal.RequireFromString("340.50"),
		TaxPending:   decimal.RequireFromString("68"),
	}
	svc.store(context.Background(), "report:store:s-1", cached)

	// DB is nil: a cache miss would panic, so success proves the hit.
	rep, err := svc.StoreReport(context.Background(), "s-1")
	require.NoError(t, err)
	require.EqualValues(t, 12, rep.MonthlySales)
	require.True(t, rep.TaxCollected.Equal(cached.TaxCollected))
}

func TestCacheRoundTrip(t *testing.T) {
	rdb := newTestRedis(t)
	svc := &Service{Redis: rdb, TTL: time.Minute}

	rep := StoreReport{StoreID: "s-2", DailySales: 3, DailyRevenue: decimal.RequireFromString("99.99")}
	svc.store(context.Background(), "report:store:s-2", rep)

	got, ok := svc.fromCache(context.Background(), "report:store:s-2")
	require.True(t, ok)
	require.Equal(t, "s-2", got.StoreID)
	require.True(t, got.DailyRevenue.Equal(rep.DailyRevenue))
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	svc := &Service{}
	_, ok := svc.fromCache(context.Background(), "report:store:s-1")
	require.False(t, ok)
}

func TestPendingTaxFloors(t *testing.T) {
	pending := pendingTax(decimal.RequireFromString("123.45"))
	require.True(t, pending.Equal(decimal.RequireFromString("24")), "20%% of 123.45 floored, got %s", pending)

	require.True(t, pendingTax(decimal.Zero).IsZero())
}
