package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fuelops/fuel-station/internal/core/domain"
	"github.com/fuelops/fuel-station/internal/obs"
	"github.com/fuelops/fuel-station/internal/port"
)

// ReportService runs the read-only aggregations, with an optional cache-aside
// layer. Cached entries are keyed by report name, filter and the write
// generation; staleness is bounded by the TTL.
type ReportService struct {
	reports port.ReportRepository
	cache   port.ReportCache
	ttl     time.Duration
}

func NewReportService(reports port.ReportRepository, cache port.ReportCache, ttl time.Duration) *ReportService {
	return &ReportService{reports: reports, cache: cache, ttl: ttl}
}

func (r *ReportService) SalesOverview(ctx context.Context, filter domain.SalesFilter) (*domain.SalesOverview, error) {
	key := r.cacheKey(ctx, "overview", filter, "")
	var cached domain.SalesOverview
	if r.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	overview, err := r.reports.SalesOverview(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, key, overview)
	return overview, nil
}

func (r *ReportService) SalesTimeseries(ctx context.Context, filter domain.SalesFilter, granularity domain.Granularity) ([]domain.SalesBucket, error) {
	key := r.cacheKey(ctx, "timeseries", filter, string(granularity))
	var cached []domain.SalesBucket
	if r.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	buckets, err := r.reports.SalesTimeseries(ctx, filter, granularity)
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, key, buckets)
	return buckets, nil
}

func (r *ReportService) SalesByFuelType(ctx context.Context, filter domain.SalesFilter) ([]domain.FuelTypeSales, error) {
	key := r.cacheKey(ctx, "by-fuel-type", filter, "")
	var cached []domain.FuelTypeSales
	if r.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := r.reports.SalesByFuelType(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, key, rows)
	return rows, nil
}

func (r *ReportService) PriceHistory(ctx context.Context, fuelTypeID int64, filter domain.SalesFilter) ([]domain.PriceSegment, error) {
	if fuelTypeID <= 0 {
		return nil, domain.Validationf("fuel_type_id must be > 0")
	}

	key := r.cacheKey(ctx, "price-history", filter, fmt.Sprintf("ft%d", fuelTypeID))
	var cached []domain.PriceSegment
	if r.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	segments, err := r.reports.PriceHistory(ctx, fuelTypeID, filter)
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, key, segments)
	return segments, nil
}

func (r *ReportService) cacheKey(ctx context.Context, name string, filter domain.SalesFilter, extra string) string {
	if r.cache == nil {
		return ""
	}
	gen, err := r.cache.Generation(ctx)
	if err != nil {
		obs.Logger.Warn("report cache generation lookup failed", "error", err)
		return ""
	}

	from, to, ftid := "-", "-", "-"
	if filter.From != nil {
		from = filter.From.UTC().Format(time.RFC3339Nano)
	}
	if filter.To != nil {
		to = filter.To.UTC().Format(time.RFC3339Nano)
	}
	if filter.FuelTypeID != nil {
		ftid = fmt.Sprintf("%d", *filter.FuelTypeID)
	}
	return fmt.Sprintf("%s:g%d:%s:%s:%s:%s", name, gen, from, to, ftid, extra)
}

func (r *ReportService) cacheGet(ctx context.Context, key string, dest any) bool {
	if r.cache == nil || key == "" {
		return false
	}
	hit, err := r.cache.GetJSON(ctx, key, dest)
	if err != nil {
		obs.Logger.Warn("report cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (r *ReportService) cacheSet(ctx context.Context, key string, value any) {
	if r.cache == nil || key == "" {
		return
	}
	if err := r.cache.SetJSON(ctx, key, value, r.ttl); err != nil {
		obs.Logger.Warn("report cache write failed", "key", key, "error", err)
	}
}
