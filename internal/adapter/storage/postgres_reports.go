package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fuelops/fuel-station/internal/core/domain"
)

// Reporting aggregations. Pure reads under read-committed isolation; no write
// side effects.

func (p *PostgresAdapter) SalesOverview(ctx context.Context, filter domain.SalesFilter) (*domain.SalesOverview, error) {
	where, args := salesWhere(filter, "")

	var o domain.SalesOverview
	var first, last sql.NullTime
	err := p.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0),
		       COALESCE(SUM(litres), 0),
		       COUNT(*),
		       CASE WHEN SUM(litres) > 0
		            THEN SUM(price_at_sale * litres) / SUM(litres)
		            ELSE 0 END,
		       MIN(sold_at),
		       MAX(sold_at)
		  FROM sales `+where, args...,
	).Scan(&o.TotalRevenue, &o.TotalLitres, &o.TxCount, &o.WeightedAvgPrice, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("sales overview: %w", err)
	}
	if first.Valid {
		o.FirstSaleAt = &first.Time
	}
	if last.Valid {
		o.LastSaleAt = &last.Time
	}
	if o.TxCount > 0 {
		o.AvgTicket = o.TotalRevenue.Div(decimal.NewFromInt(o.TxCount)).Round(domain.MoneyScale)
	}

	peak, err := p.dayRevenue(ctx, where, args, "DESC")
	if err != nil {
		return nil, err
	}
	low, err := p.dayRevenue(ctx, where, args, "ASC")
	if err != nil {
		return nil, err
	}
	o.PeakDay, o.LowDay = peak, low
	return &o, nil
}

func (p *PostgresAdapter) dayRevenue(ctx context.Context, where string, args []any, order string) (*domain.DayRevenue, error) {
	var d domain.DayRevenue
	err := p.db.QueryRowContext(ctx, `
		SELECT date_trunc('day', sold_at) AS d, SUM(amount) AS rev
		  FROM sales `+where+`
		 GROUP BY d
		 ORDER BY rev `+order+`
		 LIMIT 1`, args...,
	).Scan(&d.Date, &d.Revenue)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("day revenue: %w", err)
	}
	return &d, nil
}

func (p *PostgresAdapter) SalesTimeseries(ctx context.Context, filter domain.SalesFilter, granularity domain.Granularity) ([]domain.SalesBucket, error) {
	where, args := salesWhere(filter, "")
	// granularity is one of day/week/month by construction, safe to splice.
	rows, err := p.db.QueryContext(ctx, `
		SELECT date_trunc('`+string(granularity)+`', sold_at) AS bucket,
		       SUM(amount), SUM(litres), COUNT(*), AVG(price_at_sale)
		  FROM sales `+where+`
		 GROUP BY bucket
		 ORDER BY bucket`, args...)
	if err != nil {
		return nil, fmt.Errorf("sales timeseries: %w", err)
	}
	defer rows.Close()

	var out []domain.SalesBucket
	for rows.Next() {
		var b domain.SalesBucket
		if err := rows.Scan(&b.PeriodStart, &b.Revenue, &b.Litres, &b.TxCount, &b.AvgPrice); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *PostgresAdapter) SalesByFuelType(ctx context.Context, filter domain.SalesFilter) ([]domain.FuelTypeSales, error) {
	// The per-fuel breakdown ignores the fuel-type filter: it always reports
	// all fuel types within the time range.
	where, args := salesWhere(domain.SalesFilter{From: filter.From, To: filter.To}, "s.")
	rows, err := p.db.QueryContext(ctx, `
		SELECT s.fuel_type_id, ft.name,
		       SUM(s.amount) AS revenue, SUM(s.litres), COUNT(*), AVG(s.price_at_sale)
		  FROM sales s
		  JOIN fuel_types ft ON ft.id = s.fuel_type_id
		  `+where+`
		 GROUP BY s.fuel_type_id, ft.name
		 ORDER BY revenue DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sales by fuel type: %w", err)
	}
	defer rows.Close()

	var out []domain.FuelTypeSales
	for rows.Next() {
		var fts domain.FuelTypeSales
		if err := rows.Scan(&fts.FuelTypeID, &fts.Name, &fts.Revenue, &fts.Litres, &fts.TxCount, &fts.AvgPrice); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		out = append(out, fts)
	}
	return out, rows.Err()
}

// PriceHistory returns the segments overlapping [from, to]; an open segment
// overlaps every future instant.
func (p *PostgresAdapter) PriceHistory(ctx context.Context, fuelTypeID int64, filter domain.SalesFilter) ([]domain.PriceSegment, error) {
	query := `
		SELECT id, fuel_type_id, price_per_litre, valid_from, valid_to
		  FROM fuel_price_history
		 WHERE fuel_type_id = $1`
	args := []any{fuelTypeID}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND (valid_to IS NULL OR valid_to >= $%d)", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND valid_from <= $%d", len(args))
	}
	query += " ORDER BY valid_from"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceSegment
	for rows.Next() {
		var seg domain.PriceSegment
		var to sql.NullTime
		if err := rows.Scan(&seg.ID, &seg.FuelTypeID, &seg.PricePerLitre, &seg.ValidFrom, &to); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		if to.Valid {
			t := to.Time
			seg.ValidTo = &t
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}
