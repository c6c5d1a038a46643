package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSegment is one interval during which a price was authoritative for a
// fuel type. ValidTo == nil means the segment is still open (current price).
// Segments are append-only; a fuel type has at most one open segment.
type PriceSegment struct {
	ID            int64
	FuelTypeID    int64
	PricePerLitre decimal.Decimal
	ValidFrom     time.Time
	ValidTo       *time.Time
}
