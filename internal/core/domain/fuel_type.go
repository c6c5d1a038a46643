package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type FuelType struct {
	ID            int64
	Name          string
	PricePerLitre decimal.Decimal
	StockLitres   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StockLevel is the inventory view of a fuel type.
type StockLevel struct {
	FuelTypeID  int64
	Name        string
	StockLitres decimal.Decimal
}
