package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fuelops/fuel-station/internal/core/domain"
)

// StoreRepository is the transactional store behind the inventory/pricing
// engine. Every mutating method runs as a single store transaction; a failure
// rolls back all of its writes.
type StoreRepository interface {
	// CreateFuelType inserts a fuel type together with its initial open price
	// segment. Returns domain.ErrConflict if the name is taken.
	CreateFuelType(ctx context.Context, name string, price, initialStock decimal.Decimal) (*domain.FuelType, error)

	// UpdatePrice closes the open price segment, sets the live price and opens
	// a new segment, all in one transaction. Returns domain.ErrNotFound if the
	// fuel type does not exist.
	UpdatePrice(ctx context.Context, fuelTypeID int64, price decimal.Decimal) (*domain.FuelType, error)

	// RefillStock adds litres to the stock column and returns the post-update
	// level. Returns domain.ErrNotFound if the fuel type does not exist.
	RefillStock(ctx context.Context, fuelTypeID int64, litres decimal.Decimal) (*domain.StockLevel, error)

	// RecordSale atomically decrements stock conditioned on sufficiency and
	// inserts the sale at the price read in the same conditional step. Returns
	// domain.ErrNotFound or domain.ErrInsufficientStock.
	RecordSale(ctx context.Context, fuelTypeID int64, litres decimal.Decimal) (*domain.Sale, error)

	ListFuelTypes(ctx context.Context) ([]domain.FuelType, error)
	ListInventory(ctx context.Context) ([]domain.StockLevel, error)
	ListSales(ctx context.Context, filter domain.SalesFilter) ([]domain.Sale, error)
}

// ReportRepository serves the read-only reporting aggregations.
type ReportRepository interface {
	SalesOverview(ctx context.Context, filter domain.SalesFilter) (*domain.SalesOverview, error)
	SalesTimeseries(ctx context.Context, filter domain.SalesFilter, granularity domain.Granularity) ([]domain.SalesBucket, error)
	SalesByFuelType(ctx context.Context, filter domain.SalesFilter) ([]domain.FuelTypeSales, error)
	PriceHistory(ctx context.Context, fuelTypeID int64, filter domain.SalesFilter) ([]domain.PriceSegment, error)
}
