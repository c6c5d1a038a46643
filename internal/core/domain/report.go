package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity maps unknown values to day, matching the API contract
// (granularity is an optional hint, not a validated field).
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GranularityWeek:
		return GranularityWeek
	case GranularityMonth:
		return GranularityMonth
	default:
		return GranularityDay
	}
}

// DayRevenue is a single day's revenue, used for peak/low day KPIs.
type DayRevenue struct {
	Date    time.Time
	Revenue decimal.Decimal
}

// SalesOverview aggregates all sales matching a filter.
type SalesOverview struct {
	TotalRevenue     decimal.Decimal
	TotalLitres      decimal.Decimal
	TxCount          int64
	AvgTicket        decimal.Decimal
	WeightedAvgPrice decimal.Decimal
	FirstSaleAt      *time.Time
	LastSaleAt       *time.Time
	PeakDay          *DayRevenue
	LowDay           *DayRevenue
}

// SalesBucket is one time bucket of the sales series.
type SalesBucket struct {
	PeriodStart time.Time
	Revenue     decimal.Decimal
	Litres      decimal.Decimal
	TxCount     int64
	AvgPrice    decimal.Decimal
}

// FuelTypeSales is the per-fuel-type breakdown row.
type FuelTypeSales struct {
	FuelTypeID int64
	Name       string
	Revenue    decimal.Decimal
	Litres     decimal.Decimal
	TxCount    int64
	AvgPrice   decimal.Decimal
}
