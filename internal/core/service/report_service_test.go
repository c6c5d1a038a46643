package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/fuel-station/internal/core/domain"
)

// mockReports counts queries so cache behavior is observable.
type mockReports struct {
	overviewCalls   int
	timeseriesCalls int
	breakdownCalls  int
	historyCalls    int
}

func (m *mockReports) SalesOverview(ctx context.Context, filter domain.SalesFilter) (*domain.SalesOverview, error) {
	m.overviewCalls++
	return &domain.SalesOverview{
		TotalRevenue: decimal.RequireFromString("4500.00"),
		TotalLitres:  decimal.RequireFromString("50.000"),
		TxCount:      1,
		AvgTicket:    decimal.RequireFromString("4500.00"),
	}, nil
}

func (m *mockReports) SalesTimeseries(ctx context.Context, filter domain.SalesFilter, granularity domain.Granularity) ([]domain.SalesBucket, error) {
	m.timeseriesCalls++
	return []domain.SalesBucket{{
		PeriodStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Revenue:     decimal.RequireFromString("4500.00"),
		Litres:      decimal.RequireFromString("50.000"),
		TxCount:     1,
		AvgPrice:    decimal.RequireFromString("90.000"),
	}}, nil
}

func (m *mockReports) SalesByFuelType(ctx context.Context, filter domain.SalesFilter) ([]domain.FuelTypeSales, error) {
	m.breakdownCalls++
	return []domain.FuelTypeSales{{FuelTypeID: 1, Name: "Diesel", TxCount: 1}}, nil
}

func (m *mockReports) PriceHistory(ctx context.Context, fuelTypeID int64, filter domain.SalesFilter) ([]domain.PriceSegment, error) {
	m.historyCalls++
	return []domain.PriceSegment{{
		ID:            1,
		FuelTypeID:    fuelTypeID,
		PricePerLitre: decimal.RequireFromString("90.000"),
		ValidFrom:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}}, nil
}

// memCache is a map-backed ReportCache (TTL ignored).
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gen     int64
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memCache) BumpGeneration(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return nil
}

func (m *memCache) Generation(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen, nil
}

func TestSalesOverview_CacheAside(t *testing.T) {
	reports := &mockReports{}
	cache := newMemCache()
	svc := NewReportService(reports, cache, 30*time.Second)
	ctx := context.Background()

	first, err := svc.SalesOverview(ctx, domain.SalesFilter{})
	require.NoError(t, err)
	second, err := svc.SalesOverview(ctx, domain.SalesFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, reports.overviewCalls, "second read must come from cache")
	assert.True(t, first.TotalRevenue.Equal(second.TotalRevenue))
	assert.Equal(t, first.TxCount, second.TxCount)
}

func TestSalesOverview_GenerationInvalidates(t *testing.T) {
	reports := &mockReports{}
	cache := newMemCache()
	svc := NewReportService(reports, cache, 30*time.Second)
	ctx := context.Background()

	_, err := svc.SalesOverview(ctx, domain.SalesFilter{})
	require.NoError(t, err)
	require.NoError(t, cache.BumpGeneration(ctx))
	_, err = svc.SalesOverview(ctx, domain.SalesFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, reports.overviewCalls, "generation bump must force recompute")
}

func TestReportFilters_DistinctCacheKeys(t *testing.T) {
	reports := &mockReports{}
	cache := newMemCache()
	svc := NewReportService(reports, cache, 30*time.Second)
	ctx := context.Background()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	id := int64(1)

	_, err := svc.SalesOverview(ctx, domain.SalesFilter{})
	require.NoError(t, err)
	_, err = svc.SalesOverview(ctx, domain.SalesFilter{From: &from})
	require.NoError(t, err)
	_, err = svc.SalesOverview(ctx, domain.SalesFilter{From: &from, FuelTypeID: &id})
	require.NoError(t, err)

	assert.Equal(t, 3, reports.overviewCalls)
}

func TestSalesTimeseries_GranularityKeyedSeparately(t *testing.T) {
	reports := &mockReports{}
	cache := newMemCache()
	svc := NewReportService(reports, cache, 30*time.Second)
	ctx := context.Background()

	_, err := svc.SalesTimeseries(ctx, domain.SalesFilter{}, domain.GranularityDay)
	require.NoError(t, err)
	_, err = svc.SalesTimeseries(ctx, domain.SalesFilter{}, domain.GranularityMonth)
	require.NoError(t, err)
	_, err = svc.SalesTimeseries(ctx, domain.SalesFilter{}, domain.GranularityDay)
	require.NoError(t, err)

	assert.Equal(t, 2, reports.timeseriesCalls)
}

func TestReports_NilCachePassthrough(t *testing.T) {
	reports := &mockReports{}
	svc := NewReportService(reports, nil, 30*time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.SalesOverview(ctx, domain.SalesFilter{})
		require.NoError(t, err)
		_, err = svc.SalesByFuelType(ctx, domain.SalesFilter{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, reports.overviewCalls)
	assert.Equal(t, 2, reports.breakdownCalls)
}

func TestPriceHistory_Validation(t *testing.T) {
	reports := &mockReports{}
	svc := NewReportService(reports, nil, 30*time.Second)
	ctx := context.Background()

	_, err := svc.PriceHistory(ctx, 0, domain.SalesFilter{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, reports.historyCalls)

	segs, err := svc.PriceHistory(ctx, 1, domain.SalesFilter{})
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Nil(t, segs[0].ValidTo)
}
