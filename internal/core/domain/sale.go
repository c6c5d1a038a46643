package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable record of litres sold at a fixed price. PriceAtSale is
// copied from the fuel type at commit time, not a reference into price history.
type Sale struct {
	ID          int64
	FuelTypeID  int64
	Litres      decimal.Decimal
	PriceAtSale decimal.Decimal
	Amount      decimal.Decimal
	SoldAt      time.Time
}

// SalesFilter narrows sale listings and reports. Nil fields mean "no bound".
type SalesFilter struct {
	From       *time.Time
	To         *time.Time
	FuelTypeID *int64
}
