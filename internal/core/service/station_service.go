package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fuelops/fuel-station/internal/core/domain"
	"github.com/fuelops/fuel-station/internal/obs"
	"github.com/fuelops/fuel-station/internal/port"
)

// StationService is the inventory/pricing engine. Validation happens here,
// before any store call; mutual exclusion is delegated entirely to the store's
// transactions and conditional updates, so the service holds no locks and no
// state between calls.
type StationService struct {
	store port.StoreRepository
	cache port.ReportCache
}

// NewStationService wires the engine to its store. cache may be nil; when set,
// successful writes advance its generation so reports stop serving pre-write
// aggregates.
func NewStationService(store port.StoreRepository, cache port.ReportCache) *StationService {
	return &StationService{store: store, cache: cache}
}

// CreateFuelType registers a new product with its first price segment.
// Duplicate names surface as domain.ErrConflict, never as a silent merge.
func (s *StationService) CreateFuelType(ctx context.Context, name string, price, initialStock decimal.Decimal) (*domain.FuelType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("name must not be empty")
	}
	if price.IsNegative() {
		return nil, domain.Validationf("price_per_litre must be >= 0")
	}
	if initialStock.IsNegative() {
		return nil, domain.Validationf("initial_stock_litres must be >= 0")
	}

	ft, err := s.store.CreateFuelType(ctx, name,
		price.Round(domain.QuantityScale), initialStock.Round(domain.QuantityScale))
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return ft, nil
}

func (s *StationService) UpdatePrice(ctx context.Context, fuelTypeID int64, price decimal.Decimal) (*domain.FuelType, error) {
	if price.IsNegative() {
		return nil, domain.Validationf("price_per_litre must be >= 0")
	}

	ft, err := s.store.UpdatePrice(ctx, fuelTypeID, price.Round(domain.QuantityScale))
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return ft, nil
}

func (s *StationService) RefillStock(ctx context.Context, fuelTypeID int64, litres decimal.Decimal) (*domain.StockLevel, error) {
	if !litres.IsPositive() {
		return nil, domain.Validationf("litres must be > 0")
	}

	lvl, err := s.store.RefillStock(ctx, fuelTypeID, litres.Round(domain.QuantityScale))
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return lvl, nil
}

// RecordSale decrements stock and records the sale as one store transaction.
// The price bound to the sale is whatever was live at the instant of the
// conditional decrement, independent of submission order.
func (s *StationService) RecordSale(ctx context.Context, fuelTypeID int64, litres decimal.Decimal) (*domain.Sale, error) {
	if !litres.IsPositive() {
		return nil, domain.Validationf("litres must be > 0")
	}

	sale, err := s.store.RecordSale(ctx, fuelTypeID, litres.Round(domain.QuantityScale))
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return sale, nil
}

func (s *StationService) ListFuelTypes(ctx context.Context) ([]domain.FuelType, error) {
	return s.store.ListFuelTypes(ctx)
}

func (s *StationService) ListInventory(ctx context.Context) ([]domain.StockLevel, error) {
	return s.store.ListInventory(ctx)
}

func (s *StationService) ListSales(ctx context.Context, filter domain.SalesFilter) ([]domain.Sale, error) {
	return s.store.ListSales(ctx, filter)
}

// invalidateReports is best-effort: a failed bump only extends report
// staleness by one TTL window, it never fails the write that already
// committed.
func (s *StationService) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.BumpGeneration(ctx); err != nil {
		obs.Logger.Warn("report cache invalidation failed", "error", err)
	}
}
